package vectorutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/vector"
	"github.com/papercomputeco/wikiart/pkg/vector/sqlitevec"
	vectorutils "github.com/papercomputeco/wikiart/pkg/vector/utils"
)

var _ = Describe("NewStore", func() {
	It("defaults to the file store", func() {
		s, err := vectorutils.NewStore(&vectorutils.NewStoreOpts{FilePath: "/tmp/x.idx"})
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeAssignableToTypeOf(&vector.FileStore{}))
	})

	It("builds the sqlite store", func() {
		s, err := vectorutils.NewStore(&vectorutils.NewStoreOpts{
			ProviderType: vectorutils.ProviderSQLite,
			SQLitePath:   ":memory:",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeAssignableToTypeOf(&sqlitevec.Store{}))
		Expect(s.Close()).To(Succeed())
	})

	It("rejects unknown providers", func() {
		_, err := vectorutils.NewStore(&vectorutils.NewStoreOpts{ProviderType: "chroma"})
		Expect(err).To(MatchError(ContainSubstring("unsupported index provider")))
	})
})
