package parser

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"quiz-ingest/internal/models"
)

// TopWords returns the n most frequent lower-cased tokens longer than three
// characters. Ties keep the order in which tokens first appeared.
func TopWords(text string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(word) < models.FallbackMinWordLen {
			continue
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// SynthesizeFallback builds two placeholder questions from keyword frequency
// when no question structure was recognised. The first option is always the
// one marked correct; that is a convention, not a judgement about the text.
// Empty text yields no questions.
func SynthesizeFallback(text, documentName string) []models.ParsedQuestion {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	top := TopWords(text, models.FallbackTopWords)
	word := func(i int, fallback string) string {
		if i < len(top) {
			return top[i]
		}
		return fallback
	}
	mainTopic := word(0, "the content")

	main := models.FallbackMainTopicOptions
	concept := models.FallbackConceptOptions
	return []models.ParsedQuestion{
		{
			QuestionText: fmt.Sprintf(models.FallbackMainTopicQuestion, documentName),
			Options:      []string{word(0, main[0]), word(1, main[1]), word(2, main[2]), main[3]},
			AnswerIndex:  intPtr(0),
			Explanation:  fmt.Sprintf(models.FallbackMainTopicExplanation, documentName, mainTopic),
		},
		{
			QuestionText: fmt.Sprintf(models.FallbackConceptQuestion, documentName),
			Options:      []string{word(1, concept[0]), word(2, concept[1]), word(3, concept[2]), concept[3]},
			AnswerIndex:  intPtr(0),
			Explanation:  fmt.Sprintf(models.FallbackConceptExplanation, documentName),
		},
	}
}

func intPtr(i int) *int {
	return &i
}
