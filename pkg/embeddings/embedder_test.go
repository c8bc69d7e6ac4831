package embeddings_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
)

var _ = Describe("Normalize", func() {
	It("trims and collapses whitespace", func() {
		Expect(embeddings.Normalize("  swirling \n\t night   sky ")).To(Equal("swirling night sky"))
	})

	It("returns an empty string for whitespace-only input", func() {
		Expect(embeddings.Normalize(" \n\t ")).To(BeEmpty())
	})
})

var _ = Describe("NormalizeAll", func() {
	It("normalizes every input", func() {
		out, err := embeddings.NormalizeAll([]string{" a  b ", "c"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]string{"a b", "c"}))
	})

	It("reports the first empty input as an encoding failure", func() {
		_, err := embeddings.NormalizeAll([]string{"ok", "   "})
		Expect(err).To(MatchError(embeddings.ErrEncoding))
		Expect(err).To(MatchError(embeddings.ErrEmptyText))
		Expect(err.Error()).To(ContainSubstring("input 1"))
	})
})

var _ = Describe("L2Normalize", func() {
	It("scales a vector to unit length", func() {
		v := embeddings.L2Normalize([]float32{3, 4})
		Expect(float64(v[0])).To(BeNumerically("~", 0.6, 1e-6))
		Expect(float64(v[1])).To(BeNumerically("~", 0.8, 1e-6))

		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		Expect(math.Sqrt(sum)).To(BeNumerically("~", 1, 1e-6))
	})

	It("leaves zero vectors untouched", func() {
		Expect(embeddings.L2Normalize([]float32{0, 0})).To(Equal([]float32{0, 0}))
	})
})
