package prompt

import (
	"fmt"
	"strings"

	"medichain-be/pkg/store"
)

// OffTopicNotice is the sentence the assistant opens with when it declines
// a non-medical question.
const OffTopicNotice = "Your question is outside the medical topics I can help with."

// Example is one piece of few-shot evidence for the classifier.
type Example struct {
	Text  string
	Label string
	Score float64
}

// BuildClassifierPrompt asks for exactly one label from labels, using the
// ranked examples as evidence.
func BuildClassifierPrompt(query string, examples []Example, labels []string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString(fmt.Sprintf("You classify medical text into exactly ONE of the following %d categories.\n", len(labels)))
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<categories>\n")
	for _, l := range labels {
		prompt.WriteString("- ")
		prompt.WriteString(l)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</categories>\n\n")

	prompt.WriteString("<examples>\n")
	for i, ex := range examples {
		prompt.WriteString(fmt.Sprintf("Example %d:\nText: %q\nCategory: %s\n\n", i+1, ex.Text, ex.Label))
	}
	prompt.WriteString("</examples>\n\n")

	prompt.WriteString("Pick ONE category for the input text. Output the category name only, with no explanation.\n\n")
	prompt.WriteString(fmt.Sprintf("Input text: %q\n\n", query))
	prompt.WriteString("Category:")

	return prompt.String()
}

// BuildSpecialistPrompt is the shared template for every category's draft.
// An empty context produces an explicit "no reference documents" note.
func BuildSpecialistPrompt(query, context string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a medical specialist. Write a professional answer to the question below.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<reference_material>\n")
	if strings.TrimSpace(context) == "" {
		prompt.WriteString("No reference documents were found for this question.\n")
	} else {
		prompt.WriteString(context)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</reference_material>\n\n")

	prompt.WriteString("<guidelines>\n")
	if strings.TrimSpace(context) != "" {
		prompt.WriteString("1. Ground the answer in the reference material and include its content.\n")
	} else {
		prompt.WriteString("1. Answer from general medical knowledge and say that no reference documents were available.\n")
	}
	prompt.WriteString("2. Be logical and kind.\n")
	prompt.WriteString("3. If the question is not about medicine, drugs or treatment, politely decline and say it is off topic.\n")
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_question>\n\n")

	prompt.WriteString("Answer:")

	return prompt.String()
}

// FinalizerSystemPrompt sets the assistant persona for the conversational stage.
const FinalizerSystemPrompt = "You are an AI counselor who answers medical questions professionally.\n" +
	"Use the user's question, the conversation history and the specialist draft to write the best final answer.\n" +
	"If the question is not about medicine, drugs, treatment or the previous conversation, do not answer it. " +
	"Reply with: \"" + OffTopicNotice + "\""

// BuildFinalizerMessage is the user turn sent after the prior history.
func BuildFinalizerMessage(query, draft string) string {
	var prompt strings.Builder

	prompt.WriteString("[User question]\n")
	prompt.WriteString(query)
	prompt.WriteString("\n\n[Specialist draft]\n")
	prompt.WriteString(draft)
	prompt.WriteString("\n\n[Final answer]")

	return prompt.String()
}

// BuildSummaryPrompt asks for a short recap of a session.
func BuildSummaryPrompt(turns []store.Turn, maxLines int) string {
	var prompt strings.Builder

	prompt.WriteString("<conversation>\n")
	for _, t := range turns {
		switch t.Role {
		case store.RoleUser:
			prompt.WriteString("Q: ")
		default:
			prompt.WriteString("A: ")
		}
		prompt.WriteString(t.Text)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</conversation>\n\n")

	prompt.WriteString(fmt.Sprintf("Summarize the key points of the conversation above in at most %d lines.", maxLines))

	return prompt.String()
}
