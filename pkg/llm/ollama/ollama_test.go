package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/llm/ollama"
)

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		client  *ollama.Client
		temp    = 0.7
	)

	BeforeEach(func() {
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			handler(w, r)
		}))
		client = ollama.New(ollama.Config{BaseURL: server.URL, Model: "llama3.2:latest", Temperature: &temp})
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Generate", func() {
		It("posts a non-streaming request and returns the response text", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/generate"))
				Expect(r.Header.Get("User-Agent")).To(HavePrefix("wikiart/dev"))
				var body map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["model"]).To(Equal("llama3.2:latest"))
				Expect(body["prompt"]).To(Equal("Question: who?"))
				Expect(body["stream"]).To(BeFalse())
				Expect(body["options"]).To(HaveKeyWithValue("temperature", 0.7))

				_, _ = w.Write([]byte(`{"model":"llama3.2:latest","response":" Van Gogh. ","done":true,"done_reason":"stop","prompt_eval_count":10,"eval_count":3}`))
			}

			resp, err := client.Generate(context.Background(), llm.GenerateRequest{Prompt: "Question: who?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Text).To(Equal(" Van Gogh. "))
			Expect(resp.StopReason).To(Equal("stop"))
			Expect(resp.Usage.TotalTokens).To(Equal(13))
		})

		It("treats a missing response field as a non-retryable failure", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"model":"llama3.2:latest","done":true}`))
			}

			_, err := client.Generate(context.Background(), llm.GenerateRequest{Prompt: "p"})
			Expect(err).To(MatchError(llm.ErrGeneration))
			Expect(llm.IsRetryable(err)).To(BeFalse())
		})

		It("refuses a reply larger than the read limit", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"model":"llama3.2:latest","response":"`))
				_, _ = w.Write([]byte(strings.Repeat("a", ollama.MaxResponseBytes)))
				_, _ = w.Write([]byte(`","done":true}`))
			}

			_, err := client.Generate(context.Background(), llm.GenerateRequest{Prompt: "p"})
			Expect(err).To(MatchError(llm.ErrGeneration))
			Expect(err.Error()).To(ContainSubstring("response exceeds"))
			Expect(llm.IsRetryable(err)).To(BeFalse())
		})

		It("decodes the error body of a non-200 reply", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
			}

			_, err := client.Generate(context.Background(), llm.GenerateRequest{Prompt: "p", Model: "nope"})
			Expect(err).To(MatchError(llm.ErrGeneration))
			Expect(err.Error()).To(ContainSubstring("model 'nope' not found"))
			Expect(llm.IsRetryable(err)).To(BeFalse())
		})

		It("marks server errors retryable", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}

			_, err := client.Generate(context.Background(), llm.GenerateRequest{Prompt: "p"})
			Expect(llm.IsRetryable(err)).To(BeTrue())
		})

		It("honours the context deadline", func() {
			release := make(chan struct{})
			DeferCleanup(func() { close(release) })
			handler = func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, err := client.Generate(ctx, llm.GenerateRequest{Prompt: "p"})
			Expect(err).To(MatchError(llm.ErrGeneration))
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(llm.IsRetryable(err)).To(BeTrue())
			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
		})
	})

	Describe("Health", func() {
		It("succeeds when the model is pulled", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/tags"))
				_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"all-minilm:latest"}]}`))
			}
			Expect(client.Health(context.Background())).To(Succeed())
		})

		It("fails when the model is missing", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"models":[{"name":"mistral:latest"}]}`))
			}
			Expect(client.Health(context.Background())).To(MatchError(ContainSubstring("ollama pull llama3.2:latest")))
		})

		It("fails when the server is down", func() {
			server.Close()
			Expect(client.Health(context.Background())).To(MatchError(llm.ErrGeneration))
		})
	})
})
