package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/wikiart/pkg/eventstream"
	"github.com/papercomputeco/wikiart/pkg/eventstream/kafka"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer    *recordingWriter
		publisher *kafka.Publisher
		event     *eventstream.ExchangeEvent
	)

	BeforeEach(func() {
		writer = &recordingWriter{}
		publisher = kafka.NewPublisherWithWriter(writer, kafka.Config{Topic: "wikiart.exchanges"})
		event = eventstream.NewExchangeEvent(
			eventstream.EventSource{Service: "wikiart"},
			eventstream.ExchangeBody{SessionID: "session-1", Question: "Who painted The Scream?", Answer: "Edvard Munch."},
		)
	})

	It("writes one JSON message keyed by session", func() {
		Expect(publisher.PublishExchange(context.Background(), event)).To(Succeed())
		Expect(writer.msgs).To(HaveLen(1))

		msg := writer.msgs[0]
		Expect(string(msg.Key)).To(Equal("session-1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeExchangeCompleted)}))

		var decoded eventstream.ExchangeEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.Exchange.Answer).To(Equal("Edvard Munch."))
	})

	It("rejects nil events", func() {
		Expect(publisher.PublishExchange(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(writer.msgs).To(BeEmpty())
	})

	It("rejects events without a session", func() {
		event.Exchange.SessionID = ""
		Expect(publisher.PublishExchange(context.Background(), event)).To(MatchError(eventstream.ErrInvalidEvent))
		Expect(writer.msgs).To(BeEmpty())
	})

	It("wraps write failures", func() {
		writer.err = errors.New("broker down")
		err := publisher.PublishExchange(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(publisher.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})

	Describe("NewPublisher", func() {
		It("requires brokers", func() {
			_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
			Expect(err).To(HaveOccurred())
		})

		It("requires a topic", func() {
			_, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
			Expect(err).To(HaveOccurred())
		})

		It("builds without connecting", func() {
			p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Close()).To(Succeed())
		})
	})
})
