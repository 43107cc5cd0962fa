package synthesis

import (
	"fmt"
	"strings"

	"github.com/harshadeepak1/agentic-rag-system/models"
)

const documentSystemPrompt = `You are a document analysis expert. Your role is to:
1. Carefully read and understand the provided document context
2. Answer questions accurately based on the context, quoting literally where possible
3. Cite sources with an inline marker [Source: <id>] for every claim
4. Indicate when information is not available in the context

Be precise, factual, and helpful in your responses.`

const tabularSystemPrompt = `You are a data analysis expert specializing in spreadsheet data. Your role is to:
1. Analyze tabular data and statistics from the provided context
2. Answer questions about data trends, patterns, and specific values
3. Perform aggregations and comparisons when needed
4. Cite sources with an inline marker [Source: <id>] for every claim

Be analytical, precise with numbers, and clear in your explanations.`

const generalSystemPrompt = `You are a helpful AI assistant. Your role is to:
1. Answer questions clearly and concisely
2. Use provided context when available, citing sources with an inline marker [Source: <id>]
3. Admit when you don't have enough information

Provide accurate and useful responses.`

func systemPromptFor(category models.AgentCategory) string {
	switch category {
	case models.CategoryDocument:
		return documentSystemPrompt
	case models.CategoryTabular:
		return tabularSystemPrompt
	default:
		return generalSystemPrompt
	}
}

// buildPrompt assembles the generation prompt: category instructions, the
// retrieved context with each chunk labeled by its source identifier, and
// the question. With no context, the model is told to answer from the query
// alone and say so.
func buildPrompt(query models.Query, context models.RetrievalResult, category models.AgentCategory) string {
	var b strings.Builder
	b.WriteString(systemPromptFor(category))
	b.WriteString("\n\n")

	if context.Empty() {
		b.WriteString("No supporting context was retrieved. Answer from general knowledge and state clearly that the answer is not grounded in any uploaded document.\n\n")
	} else {
		b.WriteString("Context:\n")
		for _, sc := range context.Chunks {
			fmt.Fprintf(&b, "[Source: %s]\n%s\n\n", sc.Chunk.SourceID, sc.Chunk.Content)
		}
	}

	b.WriteString("Question:\n")
	b.WriteString(query.Text)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
