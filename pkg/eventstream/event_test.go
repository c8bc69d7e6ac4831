package eventstream_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("stamps new events with a schema version, type and id", func() {
		a := eventstream.NewExchangeEvent(eventstream.EventSource{Service: "wikiart"}, eventstream.ExchangeBody{SessionID: "s1"})
		b := eventstream.NewExchangeEvent(eventstream.EventSource{Service: "wikiart"}, eventstream.ExchangeBody{SessionID: "s1"})

		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(a.EventType).To(Equal("wikiart.exchange.completed"))
		Expect(a.EventID).To(HavePrefix("evt_"))
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.EmittedAt.IsZero()).To(BeFalse())
	})

	It("marshals with the expected top-level keys", func() {
		event := eventstream.NewExchangeEvent(
			eventstream.EventSource{Service: "wikiart", Provider: "ollama", Model: "llama3.2:latest"},
			eventstream.ExchangeBody{
				SessionID: "s1",
				Question:  "Who painted The Scream?",
				Answer:    "Edvard Munch.",
				Sources:   []eventstream.ArtworkRef{{ID: "scream", Label: "The Scream by Edvard Munch", Score: 0.8, Rank: 1}},
			},
		)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("exchange"))
		Expect(got["exchange"]).To(HaveKeyWithValue("session_id", "s1"))
	})

	Describe("Validate", func() {
		It("accepts a freshly stamped event", func() {
			Expect(eventstream.Validate(eventstream.NewExchangeEvent(eventstream.EventSource{}, eventstream.ExchangeBody{SessionID: "s1"}))).To(Succeed())
		})

		It("names the missing field", func() {
			event := eventstream.NewExchangeEvent(eventstream.EventSource{}, eventstream.ExchangeBody{SessionID: "s1"})
			event.EventID = ""
			err := eventstream.Validate(event)
			Expect(err).To(MatchError(eventstream.ErrInvalidEvent))
			Expect(err.Error()).To(ContainSubstring("event id"))
		})

		It("rejects unknown schema versions", func() {
			event := eventstream.NewExchangeEvent(eventstream.EventSource{}, eventstream.ExchangeBody{SessionID: "s1"})
			event.SchemaVersion = 2
			Expect(eventstream.Validate(event)).To(MatchError(eventstream.ErrInvalidEvent))
		})

		It("rejects nil", func() {
			Expect(eventstream.Validate(nil)).To(MatchError(eventstream.ErrNilEvent))
		})
	})
})
