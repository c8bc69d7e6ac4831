package chat_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/search"
	testutils "github.com/papercomputeco/wikiart/pkg/utils/test"
)

var _ = Describe("Orchestrator", func() {
	var (
		ctx       context.Context
		searcher  *testutils.MockSearcher
		generator *testutils.MockGenerator
		session   *chat.Session
		cfg       chat.Config
	)

	newOrchestrator := func() *chat.Orchestrator {
		o, err := chat.NewOrchestrator(cfg)
		Expect(err).NotTo(HaveOccurred())
		return o
	}

	BeforeEach(func() {
		ctx = context.Background()
		searcher = &testutils.MockSearcher{Results: []search.Result{
			{Artwork: starryNight, Score: 0.9, Rank: 1},
			{Artwork: theScream, Score: 0.2, Rank: 2},
		}}
		generator = testutils.NewMockGenerator("  Vincent van Gogh painted it.  ")
		session = chat.NewSession(10)
		cfg = chat.Config{
			Searcher:   searcher,
			Generator:  generator,
			TopK:       3,
			Timeout:    time.Second,
			Retries:    2,
			RetryDelay: time.Millisecond,
		}
	})

	It("answers from the model and records both turns", func() {
		reply, err := newOrchestrator().Respond(ctx, session, "Who painted The Starry Night?")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("Vincent van Gogh painted it."))

		turns := session.History()
		Expect(turns).To(HaveLen(2))
		Expect(turns[0].Role).To(Equal(llm.RoleUser))
		Expect(turns[0].Text).To(Equal("Who painted The Starry Night?"))
		Expect(turns[1].Role).To(Equal(llm.RoleAssistant))
		Expect(turns[1].Text).To(Equal(reply))

		Expect(generator.Prompts()[0]).To(ContainSubstring("[The Starry Night by Vincent van Gogh]"))
	})

	It("includes earlier turns in the next prompt", func() {
		o := newOrchestrator()
		_, err := o.Respond(ctx, session, "Who painted The Starry Night?")
		Expect(err).NotTo(HaveOccurred())
		_, err = o.Respond(ctx, session, "When?")
		Expect(err).NotTo(HaveOccurred())

		Expect(generator.Prompts()[1]).To(ContainSubstring("User: Who painted The Starry Night?\nAssistant: Vincent van Gogh painted it."))
	})

	It("rejects empty input without any downstream call", func() {
		_, err := newOrchestrator().Respond(ctx, session, " \t\n")
		Expect(err).To(MatchError(chat.ErrInvalidInput))
		Expect(searcher.Queries()).To(BeEmpty())
		Expect(generator.Calls()).To(BeZero())
	})

	It("replies without the model when nothing matches", func() {
		searcher.Results = nil
		ex, err := newOrchestrator().Exchange(ctx, session, "Anything about sculpture?")
		Expect(err).NotTo(HaveOccurred())
		Expect(ex.Answer.Text).To(Equal(chat.NoMatchesReply))
		Expect(ex.Attempts).To(BeZero())
		Expect(generator.Calls()).To(BeZero())
		Expect(session.History()).To(HaveLen(2))
	})

	It("makes exactly one plus retries attempts when every attempt times out", func() {
		generator.Block = true
		cfg.Timeout = 20 * time.Millisecond

		_, err := newOrchestrator().Respond(ctx, session, "Who painted The Scream?")
		Expect(err).To(MatchError(llm.ErrGeneration))
		Expect(generator.Calls()).To(Equal(3))
		Expect(session.History()).To(BeEmpty())
	})

	It("recovers when a later attempt succeeds", func() {
		generator.Errs = []error{
			llm.StatusError("mock", 503, ""),
			llm.StatusError("mock", 429, ""),
		}
		ex, err := newOrchestrator().Exchange(ctx, session, "Who painted The Scream?")
		Expect(err).NotTo(HaveOccurred())
		Expect(ex.Attempts).To(Equal(3))
		Expect(session.History()).To(HaveLen(2))
	})

	It("does not retry client errors", func() {
		generator.Err = llm.StatusError("mock", 400, "bad request")
		_, err := newOrchestrator().Respond(ctx, session, "Who painted The Scream?")
		Expect(err).To(MatchError(llm.ErrGeneration))
		Expect(generator.Calls()).To(Equal(1))
		Expect(session.History()).To(BeEmpty())
	})

	It("retries empty replies", func() {
		generator.Reply = "   "
		_, err := newOrchestrator().Respond(ctx, session, "Who painted The Scream?")
		Expect(err).To(MatchError(llm.ErrGeneration))
		Expect(generator.Calls()).To(Equal(3))
	})

	It("surfaces retrieval errors untouched", func() {
		boom := errors.New("index unavailable")
		searcher.Err = boom
		_, err := newOrchestrator().Respond(ctx, session, "Who painted The Scream?")
		Expect(err).To(MatchError(boom))
		Expect(generator.Calls()).To(BeZero())
	})

	It("evicts the oldest exchange once the bound is exceeded", func() {
		session = chat.NewSession(4)
		o := newOrchestrator()
		for _, q := range []string{"first", "second", "third"} {
			_, err := o.Respond(ctx, session, q)
			Expect(err).NotTo(HaveOccurred())
		}

		turns := session.History()
		Expect(turns).To(HaveLen(4))
		Expect(turns[0].Text).To(Equal("second"))
		Expect(turns[2].Text).To(Equal("third"))

		_, err := o.Respond(ctx, session, "fourth")
		Expect(err).NotTo(HaveOccurred())

		prompts := generator.Prompts()
		Expect(prompts).To(HaveLen(4))
		Expect(prompts[2]).To(ContainSubstring("User: first"))
		Expect(prompts[3]).NotTo(ContainSubstring("User: first"))
		Expect(prompts[3]).To(ContainSubstring("User: second"))
		Expect(prompts[3]).To(ContainSubstring("User: third"))
	})

	It("rejects a second request while one is in flight", func() {
		generator.Block = true
		cfg.Timeout = time.Minute
		o := newOrchestrator()

		inflight, cancel := context.WithCancel(ctx)
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			_, err := o.Respond(inflight, session, "first")
			Expect(err).To(MatchError(llm.ErrGeneration))
		}()

		Eventually(generator.Calls).Should(Equal(1))
		_, err := o.Respond(ctx, session, "second")
		Expect(err).To(MatchError(chat.ErrSessionBusy))

		cancel()
		wg.Wait()
		Expect(generator.Calls()).To(Equal(1))
		Expect(session.History()).To(BeEmpty())
	})

	It("notifies observers of completed exchanges only", func() {
		var seen []chat.Exchange
		cfg.Observers = []chat.Observer{chat.ObserverFunc(func(_ context.Context, ex chat.Exchange) {
			seen = append(seen, ex)
		})}
		o := newOrchestrator()

		_, err := o.Respond(ctx, session, "Who painted The Starry Night?")
		Expect(err).NotTo(HaveOccurred())

		generator.Err = llm.StatusError("mock", 400, "")
		_, err = o.Respond(ctx, session, "again")
		Expect(err).To(HaveOccurred())

		Expect(seen).To(HaveLen(1))
		Expect(seen[0].SessionID).To(Equal(session.ID))
		Expect(seen[0].Question.Seq).To(Equal(1))
		Expect(seen[0].Answer.Seq).To(Equal(2))
		Expect(seen[0].Sources).To(HaveLen(2))
	})

	It("validates its configuration", func() {
		cfg.TopK = 0
		_, err := chat.NewOrchestrator(cfg)
		Expect(err).To(MatchError(search.ErrInvalidTopK))
	})
})
