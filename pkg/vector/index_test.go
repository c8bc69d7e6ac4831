package vector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/vector"
)

func newIndex(vectors map[string][]float32, order ...string) *vector.Index {
	idx, err := vector.NewIndex(vector.Meta{Model: "test/3", Dimensions: 3, CatalogDigest: "abc"})
	Expect(err).NotTo(HaveOccurred())
	for _, id := range order {
		Expect(idx.Add(id, vectors[id])).To(Succeed())
	}
	return idx
}

var _ = Describe("Index", func() {
	var idx *vector.Index

	BeforeEach(func() {
		idx = newIndex(map[string][]float32{
			"starry": {1, 0, 0},
			"scream": {0, 1, 0},
			"mona":   {0, 0, 1},
			"twin":   {1, 0, 0},
		}, "starry", "scream", "mona", "twin")
	})

	It("defaults the metric to inner product", func() {
		Expect(idx.Meta().Metric).To(Equal(vector.MetricInnerProduct))
		Expect(idx.Len()).To(Equal(4))
		Expect(idx.Dimensions()).To(Equal(3))
	})

	It("ranks by descending score and breaks ties by position", func() {
		hits, err := idx.Search([]float32{0.9, 0.1, 0}, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(3))
		Expect(hits[0].ID).To(Equal("starry"))
		Expect(hits[0].Position).To(Equal(0))
		Expect(hits[1].ID).To(Equal("twin"))
		Expect(hits[1].Position).To(Equal(3))
		Expect(hits[2].ID).To(Equal("scream"))

		for i := 1; i < len(hits); i++ {
			Expect(hits[i].Score).To(BeNumerically("<=", hits[i-1].Score))
		}
	})

	It("caps k at the index size", func() {
		hits, err := idx.Search([]float32{0, 0, 1}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(4))
		Expect(hits[0].ID).To(Equal("mona"))
	})

	It("returns nothing for non-positive k", func() {
		hits, err := idx.Search([]float32{0, 0, 1}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(BeEmpty())
	})

	It("rejects queries of the wrong length", func() {
		_, err := idx.Search([]float32{1, 0}, 1)
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
	})

	It("rejects vectors of the wrong length", func() {
		Expect(idx.Add("bad", []float32{1})).To(MatchError(vector.ErrDimensionMismatch))
		Expect(idx.Len()).To(Equal(4))
	})

	It("looks up ids by position", func() {
		id, ok := idx.IDAt(2)
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal("mona"))

		_, ok = idx.IDAt(4)
		Expect(ok).To(BeFalse())
		_, ok = idx.IDAt(-1)
		Expect(ok).To(BeFalse())
	})

	It("requires positive dimensions", func() {
		_, err := vector.NewIndex(vector.Meta{})
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
	})
})

var _ = Describe("FromParts", func() {
	It("rejects a count mismatch as a load failure", func() {
		_, err := vector.FromParts(vector.Meta{Dimensions: 2}, []string{"a", "b"}, [][]float32{{1, 0}})
		Expect(err).To(MatchError(vector.ErrIndexLoad))
		Expect(err).To(MatchError(vector.ErrCountMismatch))
	})

	It("rejects a vector of the wrong length as a load failure", func() {
		_, err := vector.FromParts(vector.Meta{Dimensions: 2}, []string{"a"}, [][]float32{{1, 0, 0}})
		Expect(err).To(MatchError(vector.ErrIndexLoad))
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
	})
})

var _ = Describe("Validate", func() {
	var idx *vector.Index

	BeforeEach(func() {
		idx = newIndex(map[string][]float32{"a": {1, 0, 0}}, "a")
	})

	It("accepts a matching index", func() {
		Expect(vector.Validate(idx, vector.Expectation{Model: "test/3", Dimensions: 3, CatalogDigest: "abc"})).To(Succeed())
	})

	It("rejects a dimension mismatch", func() {
		err := vector.Validate(idx, vector.Expectation{Dimensions: 384})
		Expect(err).To(MatchError(vector.ErrIndexLoad))
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
	})

	It("rejects a different model as stale", func() {
		err := vector.Validate(idx, vector.Expectation{Model: "other"})
		Expect(err).To(MatchError(vector.ErrIndexLoad))
		Expect(err).To(MatchError(vector.ErrStale))
	})

	It("rejects a changed catalog as stale", func() {
		err := vector.Validate(idx, vector.Expectation{CatalogDigest: "def"})
		Expect(err).To(MatchError(vector.ErrStale))
	})
})
