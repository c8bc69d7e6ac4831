package sqlitevec_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/logger"
	"github.com/papercomputeco/wikiart/pkg/vector"
	"github.com/papercomputeco/wikiart/pkg/vector/sqlitevec"
)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *sqlitevec.Store
		idx   *vector.Index
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		store, err = sqlitevec.NewStore(sqlitevec.Config{
			DBPath: ":memory:",
			Logger: logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		idx, err = vector.NewIndex(vector.Meta{Model: "hashing-v1/4", Dimensions: 4, CatalogDigest: "abc"})
		Expect(err).NotTo(HaveOccurred())
		Expect(idx.Add("starry", []float32{1, 0, 0, 0})).To(Succeed())
		Expect(idx.Add("scream", []float32{0, 1, 0, 0})).To(Succeed())
		Expect(idx.Add("mona", []float32{0, 0, 0.6, 0.8})).To(Succeed())
	})

	It("requires a database path", func() {
		_, err := sqlitevec.NewStore(sqlitevec.Config{})
		Expect(err).To(MatchError(ContainSubstring("database path is required")))
	})

	It("reports an empty database as not found", func() {
		_, err := store.Load(ctx)
		Expect(err).To(MatchError(vector.ErrIndexLoad))
		Expect(err).To(MatchError(vector.ErrNotFound))
	})

	It("round-trips an index", func() {
		Expect(store.Save(ctx, idx)).To(Succeed())

		loaded, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.IDs()).To(Equal([]string{"starry", "scream", "mona"}))
		Expect(loaded.Vector(2)).To(Equal([]float32{0, 0, 0.6, 0.8}))
		Expect(loaded.Meta().Model).To(Equal("hashing-v1/4"))
		Expect(loaded.Meta().CatalogDigest).To(Equal("abc"))
	})

	It("replaces the index on every save, including a new dimension", func() {
		Expect(store.Save(ctx, idx)).To(Succeed())

		wider, err := vector.NewIndex(vector.Meta{Model: "hashing-v1/8", Dimensions: 8})
		Expect(err).NotTo(HaveOccurred())
		Expect(wider.Add("mona", []float32{0, 0, 0, 0, 0, 0, 0, 1})).To(Succeed())
		Expect(store.Save(ctx, wider)).To(Succeed())

		loaded, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Len()).To(Equal(1))
		Expect(loaded.Dimensions()).To(Equal(8))
	})

	It("persists across reopen", func() {
		path := filepath.Join(GinkgoT().TempDir(), "artworks.db")
		onDisk, err := sqlitevec.NewStore(sqlitevec.Config{DBPath: path})
		Expect(err).NotTo(HaveOccurred())
		Expect(onDisk.Save(ctx, idx)).To(Succeed())
		Expect(onDisk.Close()).To(Succeed())

		reopened, err := sqlitevec.NewStore(sqlitevec.Config{DBPath: path})
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		loaded, err := reopened.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Len()).To(Equal(3))
	})
})
