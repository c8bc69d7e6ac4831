package chatcmder_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/wikiart/cmd/wikiart/chat"
	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/logger"
	"github.com/papercomputeco/wikiart/pkg/search"
	testutils "github.com/papercomputeco/wikiart/pkg/utils/test"
)

const testTimeout = 2 * time.Second

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has a --model flag with a shorthand", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("m"))
		Expect(flag.DefValue).To(Equal("llama3.2:latest"))
	})

	It("defaults --top-k to three artworks", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("top-k")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("3"))
	})

	It("rejects positional arguments", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = Describe("Conversation loop", func() {
	var (
		searcher  *testutils.MockSearcher
		generator *testutils.MockGenerator
		orch      *chat.Orchestrator
		out       *bytes.Buffer
	)

	BeforeEach(func() {
		searcher = &testutils.MockSearcher{Results: []search.Result{{
			Artwork: catalog.Artwork{ID: "1", Title: "The Starry Night", Artist: "Vincent van Gogh", Year: "1889"},
			Score:   0.9,
			Rank:    1,
		}}}
		generator = testutils.NewMockGenerator("Van Gogh painted it in 1889.")
		out = &bytes.Buffer{}

		var err error
		orch, err = chat.NewOrchestrator(chat.Config{
			Searcher:  searcher,
			Generator: generator,
			TopK:      3,
			Timeout:   testTimeout,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	run := func(input string) error {
		return chatcmder.Converse(context.Background(), strings.NewReader(input), out, false, orch, 20)
	}

	It("answers each question until quit", func() {
		Expect(run("Who painted The Starry Night?\nquit\nnever asked\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Van Gogh painted it in 1889."))
		Expect(generator.Calls()).To(Equal(1))
		Expect(searcher.Queries()).To(Equal([]string{"Who painted The Starry Night?"}))
	})

	It("skips blank lines without asking the model", func() {
		Expect(run("\n   \nexit\n")).To(Succeed())
		Expect(generator.Calls()).To(BeZero())
	})

	It("stops cleanly at end of input", func() {
		Expect(run("Tell me about the sky")).To(Succeed())
		Expect(generator.Calls()).To(Equal(1))
	})

	It("carries earlier turns into later prompts", func() {
		Expect(run("Who painted The Starry Night?\nWhen?\n")).To(Succeed())
		prompts := generator.Prompts()
		Expect(prompts).To(HaveLen(2))
		Expect(prompts[1]).To(ContainSubstring("User: Who painted The Starry Night?"))
		Expect(prompts[1]).To(ContainSubstring("Assistant: Van Gogh painted it in 1889."))
	})

	It("forgets earlier turns after clear", func() {
		Expect(run("Who painted The Starry Night?\nclear\nWhen?\n")).To(Succeed())
		prompts := generator.Prompts()
		Expect(prompts).To(HaveLen(2))
		Expect(prompts[1]).NotTo(ContainSubstring("Conversation so far"))
	})

	It("reports a failed turn and keeps going", func() {
		generator.Errs = []error{llm.StatusError("mock", 400, "bad request")}
		Expect(run("first\nsecond\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("✗"))
		Expect(out.String()).To(ContainSubstring("Van Gogh painted it in 1889."))
	})

	It("answers with the fixed reply when nothing is retrieved", func() {
		searcher.Results = nil
		Expect(run("anything\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(chat.NoMatchesReply))
		Expect(generator.Calls()).To(BeZero())
	})

	It("reports retrieval failures", func() {
		searcher.Err = errors.New("index offline")
		Expect(run("anything\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("index offline"))
	})
})
