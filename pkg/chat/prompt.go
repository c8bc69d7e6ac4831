package chat

import (
	"strings"

	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/search"
)

// NoMatchesReply is returned without calling the model when retrieval finds
// nothing.
const NoMatchesReply = "I couldn't find any relevant artworks to answer your question."

const preamble = `You are an art expert assistant. Use the following context to provide a detailed and engaging answer to the user's question.
Be specific about the artworks mentioned and their historical significance.`

const guidance = `Provide a well-structured answer that:
1. Directly addresses the user's question
2. References specific artworks when relevant
3. Includes interesting historical or artistic details
4. Maintains a conversational and engaging tone`

// BuildPrompt assembles the instruction preamble, the retrieved artworks
// tagged with their labels, the prior turns in order, and the question.
func BuildPrompt(results []search.Result, history []llm.Turn, question string) string {
	var b strings.Builder

	b.WriteString(preamble)
	b.WriteString("\n\nContext:\n")
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[")
		b.WriteString(r.Artwork.Label())
		b.WriteString("]\n")
		b.WriteString(r.Artwork.ContextBlock())
	}

	if len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, t := range history {
			switch t.Role {
			case llm.RoleAssistant:
				b.WriteString("Assistant: ")
			default:
				b.WriteString("User: ")
			}
			b.WriteString(t.Text)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(guidance)
	b.WriteString("\n\nAnswer:")

	return b.String()
}
