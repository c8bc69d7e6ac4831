package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/embeddings/ollama"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		calls    atomic.Int32
		lastBody map[string]any
		status   int
		reply    func(inputs []string) [][]float32
	)

	BeforeEach(func() {
		calls.Store(0)
		status = http.StatusOK
		reply = func(inputs []string) [][]float32 {
			out := make([][]float32, len(inputs))
			for i := range inputs {
				out[i] = []float32{3, 4, 0}
			}
			return out
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			calls.Add(1)
			Expect(r.URL.Path).To(Equal("/api/embed"))

			lastBody = map[string]any{}
			Expect(json.NewDecoder(r.Body).Decode(&lastBody)).To(Succeed())

			if status != http.StatusOK {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":"model not found"}`))
				return
			}

			var inputs []string
			for _, in := range lastBody["input"].([]any) {
				inputs = append(inputs, in.(string))
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": reply(inputs)})
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newEmbedder := func(dims int) *ollama.Embedder {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    server.URL + "/",
			Model:      "all-minilm",
			Dimensions: dims,
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	It("sends a normalized batch and returns unit vectors", func() {
		e := newEmbedder(3)
		vecs, err := e.EmbedBatch(context.Background(), []string{"  starry\n night ", "scream"})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls.Load()).To(Equal(int32(1)))
		Expect(lastBody["model"]).To(Equal("all-minilm"))
		Expect(lastBody["input"]).To(Equal([]any{"starry night", "scream"}))

		Expect(vecs).To(HaveLen(2))
		Expect(float64(vecs[0][0])).To(BeNumerically("~", 0.6, 1e-6))
		Expect(float64(vecs[0][1])).To(BeNumerically("~", 0.8, 1e-6))
	})

	It("rejects empty text without calling the server", func() {
		e := newEmbedder(3)
		_, err := e.Embed(context.Background(), "   ")
		Expect(err).To(MatchError(embeddings.ErrEmptyText))
		Expect(calls.Load()).To(BeZero())
	})

	It("wraps non-200 responses as encoding failures", func() {
		status = http.StatusNotFound
		e := newEmbedder(3)
		_, err := e.Embed(context.Background(), "sunflowers")
		Expect(err).To(MatchError(embeddings.ErrEncoding))
		Expect(err.Error()).To(ContainSubstring("model not found"))
	})

	It("fails when the model emits the wrong number of dimensions", func() {
		e := newEmbedder(384)
		_, err := e.Embed(context.Background(), "sunflowers")
		Expect(err).To(MatchError(embeddings.ErrEncoding))
		Expect(err.Error()).To(ContainSubstring("configured 384"))
	})

	It("fails when the response count does not match the inputs", func() {
		reply = func([]string) [][]float32 { return [][]float32{{1, 0, 0}} }
		e := newEmbedder(3)
		_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
		Expect(err).To(MatchError(embeddings.ErrEncoding))
	})

	It("reports configured dimensions without a request", func() {
		e := newEmbedder(3)
		dims, err := e.Dimensions(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(dims).To(Equal(3))
		Expect(calls.Load()).To(BeZero())
	})

	It("probes dimensions once when none are configured", func() {
		e := newEmbedder(0)
		for range 3 {
			dims, err := e.Dimensions(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(dims).To(Equal(3))
		}
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("retries the probe after a failed one", func() {
		status = http.StatusServiceUnavailable
		e := newEmbedder(0)
		_, err := e.Dimensions(context.Background())
		Expect(err).To(MatchError(embeddings.ErrEncoding))

		status = http.StatusOK
		dims, err := e.Dimensions(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(dims).To(Equal(3))
		Expect(calls.Load()).To(Equal(int32(2)))
	})

	It("prefixes the model with the provider", func() {
		Expect(newEmbedder(3).Model()).To(Equal("ollama/all-minilm"))
	})
})
