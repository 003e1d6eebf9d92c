package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestTopWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want []string
	}{
		{"frequency order", "cats cats dogs dogs dogs birds", 10, []string{"dogs", "cats", "birds"}},
		{"ties keep first occurrence", "zebra apple zebra apple mango", 10, []string{"zebra", "apple", "mango"}},
		{"short tokens dropped", "the cat sat on a mat with mats", 10, []string{"with", "mats"}},
		{"case folded", "Photosynthesis PHOTOSYNTHESIS chlorophyll", 10, []string{"photosynthesis", "chlorophyll"}},
		{"limit", "aaaa bbbb cccc dddd", 2, []string{"aaaa", "bbbb"}},
		{"empty", "", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopWords(tt.text, tt.n)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopWords() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSynthesizeFallback(t *testing.T) {
	text := "cats cats dogs dogs dogs birds"
	got := SynthesizeFallback(text, "animals.txt")
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}

	first := got[0]
	if first.QuestionText != "Based on animals.txt, what is the main topic discussed?" {
		t.Errorf("first question = %q", first.QuestionText)
	}
	if !reflect.DeepEqual(first.Options, []string{"dogs", "cats", "birds", "None of the above"}) {
		t.Errorf("first options = %v", first.Options)
	}
	if !strings.Contains(first.Explanation, "animals.txt") || !strings.Contains(first.Explanation, "dogs") {
		t.Errorf("first explanation = %q", first.Explanation)
	}

	second := got[1]
	if !reflect.DeepEqual(second.Options, []string{"cats", "birds", "Related Concept", "All concepts are equally important"}) {
		t.Errorf("second options = %v", second.Options)
	}
	for i, q := range got {
		if q.AnswerIndex == nil || *q.AnswerIndex != 0 {
			t.Errorf("question %d answer index should be 0", i)
		}
		if !q.Complete() {
			t.Errorf("question %d should be complete", i)
		}
	}
}

func TestSynthesizeFallbackDeterministic(t *testing.T) {
	text := "gamma beta alpha delta gamma beta epsilon zeta theta iota kappa lambda"
	first := SynthesizeFallback(text, "greek.pdf")
	for i := 0; i < 20; i++ {
		if again := SynthesizeFallback(text, "greek.pdf"); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestSynthesizeFallbackPlaceholders(t *testing.T) {
	got := SynthesizeFallback("a an the of", "short.txt")
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0].Options, []string{"Main Topic", "Secondary Topic", "Related Topic", "None of the above"}) {
		t.Errorf("first options = %v", got[0].Options)
	}
	if !strings.HasSuffix(got[0].Explanation, "related to the content") {
		t.Errorf("first explanation = %q", got[0].Explanation)
	}
}

func TestSynthesizeFallbackEmptyText(t *testing.T) {
	for _, text := range []string{"", "   \n\t "} {
		if got := SynthesizeFallback(text, "empty.txt"); got != nil {
			t.Errorf("SynthesizeFallback(%q) = %+v, want nil", text, got)
		}
	}
}
