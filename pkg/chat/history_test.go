package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/llm"
)

var _ = Describe("History", func() {
	user := func(text string) llm.Turn { return llm.Turn{Role: llm.RoleUser, Text: text} }

	It("numbers turns in append order", func() {
		h := chat.NewHistory(10)
		h.Append(user("a"), user("b"))
		h.Append(user("c"))

		turns := h.Turns()
		Expect(turns).To(HaveLen(3))
		for i, t := range turns {
			Expect(t.Seq).To(Equal(i + 1))
			Expect(t.CreatedAt.IsZero()).To(BeFalse())
		}
	})

	It("evicts the oldest turns past the bound", func() {
		h := chat.NewHistory(2)
		h.Append(user("a"), user("b"), user("c"))

		turns := h.Turns()
		Expect(turns).To(HaveLen(2))
		Expect(turns[0].Text).To(Equal("b"))
		Expect(turns[1].Text).To(Equal("c"))
		Expect(turns[1].Seq).To(Equal(3))
	})

	It("keeps nothing with a zero bound", func() {
		h := chat.NewHistory(0)
		h.Append(user("a"))
		Expect(h.Len()).To(BeZero())
	})

	It("returns a copy", func() {
		h := chat.NewHistory(4)
		h.Append(user("a"))
		turns := h.Turns()
		turns[0].Text = "changed"
		Expect(h.Turns()[0].Text).To(Equal("a"))
	})
})
