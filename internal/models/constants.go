package models

// Quiz document line grammar. Each group is tried in the order listed and the
// first pattern that matches wins.
var (
	QuestionRegexes = []string{
		`(?i)^Q\.\d+\)\s*`,             // Q.1)
		`(?i)^Q[\s.]*\d+[).]?\s*`,      // Q1. Q 1) Q.1
		`^\d+[.)]\s*`,                  // 1. 1)
		`(?i)^Question\s*\d*[.):]?\s*`, // Question 1.
		`(?i)^Problem\s*\d*[.):]?\s*`,  // Problem 1.
	}

	OptionRegexes = []string{
		`^[a-dA-D]\)\s*(.+)$`,       // A)
		`^[a-dA-D][.)]\s*(.+)$`,     // A.
		`^[a-dA-D][\s\p{Zs}]+(.+)$`, // A, also after a no-break space
		`^[1-4][.)]\s*(.+)$`,        // 1.
		`^[1-4][\s\p{Zs}]+(.+)$`,    // 1
	}

	AnswerRegexes = []string{
		`(?i)^Answer\s*:\s*([a-d])\b`,
		`(?i)^Answer\s*:\s*([1-4])\b`,
		`(?i)^Correct\s*:\s*([a-d])\b`,
		`(?i)^Correct\s*:\s*([1-4])\b`,
	}
)

const (
	ExplanationRegex = `(?i)^Explanation\s*:?(.*)$`
)

// Fallback question templates. %s is the document name unless noted.
const (
	FallbackMinWordLen = 4
	FallbackTopWords   = 10

	FallbackMainTopicQuestion    = "Based on %s, what is the main topic discussed?"
	FallbackMainTopicExplanation = "This question is based on the uploaded document: %s. The main topic appears to be related to %s"
	FallbackConceptQuestion      = "From %s, which concept is most important?"
	FallbackConceptExplanation   = "This question tests understanding of concepts from %s"
)

var (
	FallbackMainTopicOptions = []string{"Main Topic", "Secondary Topic", "Related Topic", "None of the above"}
	FallbackConceptOptions   = []string{"Key Concept", "Secondary Concept", "Related Concept", "All concepts are equally important"}
)
