package llm

import (
	"fmt"
	"strings"
)

// QAPair is one question/answer pair parsed out of a model response.
type QAPair struct {
	Question string
	Answer   string
}

// parseQAPairs extracts question/answer pairs from the model's output.
// The expected protocol is alternating "Question: ..." and "Answer: ..."
// lines, but it tolerates several common model quirks:
// - response wrapped in ``` code fences
// - bolded labels (**Question:**) and numbered labels (Question 1:)
// - multi-line answers, accumulated until the next question
func parseQAPairs(raw string) ([]QAPair, error) {
	raw = stripFence(raw)

	var pairs []QAPair
	var currentQ string
	var answerBuilder strings.Builder
	inAnswer := false

	flush := func() {
		answer := strings.TrimSpace(answerBuilder.String())
		if currentQ != "" && answer != "" {
			pairs = append(pairs, QAPair{Question: currentQ, Answer: answer})
		}
		currentQ = ""
		answerBuilder.Reset()
		inAnswer = false
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)

		if q, ok := matchLabel(trimmed, "question"); ok {
			flush()
			currentQ = q
			continue
		}
		if a, ok := matchLabel(trimmed, "answer"); ok {
			if currentQ == "" {
				// Answer without a question; nothing to attach it to.
				continue
			}
			answerBuilder.Reset()
			answerBuilder.WriteString(a)
			inAnswer = true
			continue
		}

		// Continuation lines extend the current answer.
		if inAnswer && trimmed != "" {
			answerBuilder.WriteString("\n")
			answerBuilder.WriteString(trimmed)
		}
	}
	flush()

	if len(pairs) == 0 {
		return nil, fmt.Errorf("response contained no Question/Answer pairs")
	}
	return pairs, nil
}

// matchLabel reports whether a line starts with the given label ("question" or
// "answer") in one of its accepted spellings and returns the remainder.
func matchLabel(line, label string) (string, bool) {
	candidate := strings.TrimLeft(line, "*-# ")
	lower := strings.ToLower(candidate)
	if !strings.HasPrefix(lower, label) {
		return "", false
	}

	rest := candidate[len(label):]
	// Optional number ("Question 1:") and bold markers before the colon.
	rest = strings.TrimLeft(rest, " *0123456789")
	// Require the colon form; a sentence merely starting with the word
	// "question" is content, not a label.
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	rest = strings.TrimPrefix(rest, ":")
	rest = strings.TrimLeft(rest, "* ")
	return strings.TrimSpace(rest), true
}

// stripFence removes ``` wrapping that some models add around their output.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return s
	}
	inner := trimmed[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}
