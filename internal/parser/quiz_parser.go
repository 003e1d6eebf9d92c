package parser

import (
	"regexp"
	"strconv"
	"strings"

	"quiz-ingest/internal/models"

	"github.com/rs/zerolog/log"
)

// LineKind is the stateless classification of a single quiz document line.
type LineKind int

const (
	LineText LineKind = iota
	LineQuestion
	LineOption
	LineAnswer
	LineExplanation
)

func (k LineKind) String() string {
	switch k {
	case LineQuestion:
		return "question"
	case LineOption:
		return "option"
	case LineAnswer:
		return "answer"
	case LineExplanation:
		return "explanation"
	default:
		return "text"
	}
}

var (
	questionRes    = mustCompileAll(models.QuestionRegexes)
	optionRes      = mustCompileAll(models.OptionRegexes)
	answerRes      = mustCompileAll(models.AnswerRegexes)
	explanationRe  = regexp.MustCompile(models.ExplanationRegex)
	answerLetterRe = regexp.MustCompile(`^[a-dA-D]$`)
)

func mustCompileAll(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

// questionDraft is the question currently being accumulated.
type questionDraft struct {
	question              models.ParsedQuestion
	collectingExplanation bool
}

type quizParserState struct {
	current *questionDraft
	result  []models.ParsedQuestion
}

// lineMatch is what a rule extracted from a line.
type lineMatch struct {
	re      *regexp.Regexp
	capture string
}

// lineRule pairs a predicate with the state transition it triggers.
type lineRule struct {
	kind  LineKind
	match func(state *quizParserState, line string) (lineMatch, bool)
	apply func(state *quizParserState, line string, m lineMatch)
}

// quizRules are evaluated top to bottom; the first match consumes the line.
var quizRules = []lineRule{
	{kind: LineQuestion, match: statelessMatch(matchQuestion), apply: startQuestion},
	{kind: LineOption, match: statelessMatch(matchOption), apply: addOption},
	{kind: LineAnswer, match: statelessMatch(matchAnswer), apply: setAnswer},
	{kind: LineExplanation, match: statelessMatch(matchExplanation), apply: startExplanation},
	{kind: LineText, match: matchExplanationContinuation, apply: appendExplanation},
	{kind: LineText, match: matchQuestionContinuation, apply: appendQuestionText},
}

func statelessMatch(fn func(line string) (lineMatch, bool)) func(*quizParserState, string) (lineMatch, bool) {
	return func(_ *quizParserState, line string) (lineMatch, bool) {
		return fn(line)
	}
}

func matchQuestion(line string) (lineMatch, bool) {
	for _, re := range questionRes {
		if re.MatchString(line) {
			return lineMatch{re: re}, true
		}
	}
	return lineMatch{}, false
}

func matchOption(line string) (lineMatch, bool) {
	for _, re := range optionRes {
		if m := re.FindStringSubmatch(line); m != nil {
			return lineMatch{re: re, capture: m[1]}, true
		}
	}
	return lineMatch{}, false
}

func matchAnswer(line string) (lineMatch, bool) {
	for _, re := range answerRes {
		if m := re.FindStringSubmatch(line); m != nil {
			return lineMatch{re: re, capture: m[1]}, true
		}
	}
	return lineMatch{}, false
}

func matchExplanation(line string) (lineMatch, bool) {
	if m := explanationRe.FindStringSubmatch(line); m != nil {
		return lineMatch{re: explanationRe, capture: m[1]}, true
	}
	return lineMatch{}, false
}

func matchExplanationContinuation(state *quizParserState, _ string) (lineMatch, bool) {
	return lineMatch{}, state.current != nil && state.current.collectingExplanation
}

func matchQuestionContinuation(state *quizParserState, _ string) (lineMatch, bool) {
	c := state.current
	return lineMatch{}, c != nil && len(c.question.Options) == 0 && c.question.AnswerIndex == nil
}

// ClassifyLine reports which marker a trimmed line carries, ignoring parser state.
// It is a diagnostic entry point; ParseQuizText does not go through it.
func ClassifyLine(line string) LineKind {
	line = strings.TrimSpace(line)
	for _, rule := range quizRules[:4] {
		if _, ok := rule.match(nil, line); ok {
			return rule.kind
		}
	}
	return LineText
}

// ParseQuizText turns quiz document text into complete questions in source order.
func ParseQuizText(text string) []models.ParsedQuestion {
	var state quizParserState
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		processQuizLine(line, &state)
	}
	state.flush()
	log.Debug().Int("questions", len(state.result)).Msg("Parsed quiz text")
	return state.result
}

func processQuizLine(line string, state *quizParserState) {
	for _, rule := range quizRules {
		if m, ok := rule.match(state, line); ok {
			rule.apply(state, line, m)
			return
		}
	}
}

// flush emits the current draft if it is complete and drops it either way.
func (s *quizParserState) flush() {
	if s.current == nil {
		return
	}
	q := s.current.question
	q.Explanation = strings.TrimSpace(q.Explanation)
	if q.Complete() {
		s.result = append(s.result, q)
	}
	s.current = nil
}

func (s *quizParserState) ensureCurrent() *questionDraft {
	if s.current == nil {
		s.current = &questionDraft{}
	}
	return s.current
}

func startQuestion(state *quizParserState, line string, m lineMatch) {
	state.flush()
	text := strings.TrimSpace(m.re.ReplaceAllString(line, ""))
	state.current = &questionDraft{question: models.ParsedQuestion{QuestionText: text}}
}

func addOption(state *quizParserState, _ string, m lineMatch) {
	c := state.ensureCurrent()
	c.question.Options = append(c.question.Options, strings.TrimSpace(m.capture))
}

func setAnswer(state *quizParserState, _ string, m lineMatch) {
	c := state.ensureCurrent()
	idx, ok := answerIndex(m.capture)
	if !ok {
		return
	}
	c.question.AnswerIndex = &idx
}

// answerIndex maps an answer letter (a-d) or digit (1-4) to a zero-based index.
func answerIndex(answer string) (int, bool) {
	if answerLetterRe.MatchString(answer) {
		return int(strings.ToLower(answer)[0] - 'a'), true
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

func startExplanation(state *quizParserState, _ string, m lineMatch) {
	c := state.ensureCurrent()
	c.collectingExplanation = true
	if initial := strings.TrimSpace(m.capture); initial != "" {
		c.appendExplanation(initial)
	}
}

func appendExplanation(state *quizParserState, line string, _ lineMatch) {
	state.current.appendExplanation(line)
}

func (d *questionDraft) appendExplanation(line string) {
	if d.question.Explanation != "" {
		d.question.Explanation += "\n"
	}
	d.question.Explanation += line
}

func appendQuestionText(state *quizParserState, line string, _ lineMatch) {
	q := &state.current.question
	if q.QuestionText != "" {
		q.QuestionText += " "
	}
	q.QuestionText += line
}
