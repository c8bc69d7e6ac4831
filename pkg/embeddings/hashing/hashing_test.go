package hashing_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/embeddings/hashing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

var _ = Describe("Tokens", func() {
	It("lowercases, drops stopwords and strips simple suffixes", func() {
		Expect(hashing.Tokens("Who painted The Starry Night?")).To(Equal([]string{"paint", "starry", "night"}))
	})

	It("keeps apostrophes inside words", func() {
		Expect(hashing.Tokens("Whistler’s Mother")).To(Equal([]string{"whistler", "mother"}))
	})
})

var _ = Describe("Embedder", func() {
	var (
		ctx context.Context
		e   *hashing.Embedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		e, err = hashing.NewEmbedder(64)
		Expect(err).NotTo(HaveOccurred())
	})

	It("is deterministic", func() {
		a, err := e.Embed(ctx, "swirling night sky")
		Expect(err).NotTo(HaveOccurred())
		b, err := e.Embed(ctx, "  swirling   night sky ")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("produces unit vectors of the configured length", func() {
		v, err := e.Embed(ctx, "Mona Lisa by Leonardo da Vinci")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(64))
		Expect(dot(v, v)).To(BeNumerically("~", 1, 1e-5))
	})

	It("produces a non-zero vector for stopword-only text", func() {
		v, err := e.Embed(ctx, "who is the")
		Expect(err).NotTo(HaveOccurred())
		Expect(dot(v, v)).To(BeNumerically("~", 1, 1e-5))
	})

	It("scores overlapping text above unrelated text", func() {
		big, err := hashing.NewEmbedder(512)
		Expect(err).NotTo(HaveOccurred())

		vecs, err := big.EmbedBatch(ctx, []string{
			"Who painted a swirling night sky?",
			"The Starry Night by Vincent van Gogh - Post-Impressionism (1889): A swirling night sky over a village.",
			"Mona Lisa by Leonardo da Vinci - High Renaissance (1503): Portrait of a woman with an enigmatic smile.",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(dot(vecs[0], vecs[1])).To(BeNumerically(">", dot(vecs[0], vecs[2])))
	})

	It("rejects empty text", func() {
		_, err := e.Embed(ctx, " \t ")
		Expect(err).To(MatchError(embeddings.ErrEncoding))
		Expect(err).To(MatchError(embeddings.ErrEmptyText))
	})

	It("fails the whole batch on an empty entry", func() {
		_, err := e.EmbedBatch(ctx, []string{"sunflowers", ""})
		Expect(err).To(MatchError(embeddings.ErrEmptyText))
	})

	It("encodes the dimension count in the model name", func() {
		Expect(e.Model()).To(Equal("hashing-v1/64"))
		dims, err := e.Dimensions(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(dims).To(Equal(64))
	})

	It("defaults the dimension count", func() {
		d, err := hashing.NewEmbedder(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Model()).To(Equal("hashing-v1/512"))
	})
})
