package similarity

import (
	"math"
	"testing"
)

func TestScore_Identical(t *testing.T) {
	texts := []string{
		"a cat sitting on a mat",
		"one",
		"",
	}
	for _, s := range texts {
		if got := Score(s, s); got != 1.0 {
			t.Errorf("Score(%q, %q) = %v, want 1.0", s, s, got)
		}
	}
}

func TestScore_Disjoint(t *testing.T) {
	if got := Score("alpha beta gamma", "delta epsilon zeta"); got != 0.0 {
		t.Errorf("disjoint vocabularies: got %v, want 0.0", got)
	}
	if got := Score("something", ""); got != 0.0 {
		t.Errorf("empty vs non-empty: got %v, want 0.0", got)
	}
}

func TestScore_Symmetric(t *testing.T) {
	a := "a cat sitting on a mat"
	b := "a dog sitting on a rug"
	if Score(a, b) != Score(b, a) {
		t.Errorf("Score is not symmetric: %v vs %v", Score(a, b), Score(b, a))
	}
}

func TestScore_MinorEdit(t *testing.T) {
	// One added adjective keeps the score well above the default threshold.
	a := "A cat sitting on a mat"
	b := "A cat sitting on a red mat"
	got := Score(a, b)
	if got < DefaultThreshold {
		t.Errorf("minor edit scored %v, want >= %v", got, DefaultThreshold)
	}

	// 6 and 7 tokens with 6 in common: 2*6/13.
	want := 2.0 * 6.0 / 13.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestScore_Rewrite(t *testing.T) {
	a := "A cat sitting on a mat"
	b := "Completely different unrelated scene with a spaceship"
	got := Score(a, b)
	if got >= DefaultThreshold {
		t.Errorf("rewrite scored %v, want < %v", got, DefaultThreshold)
	}
}

func TestScore_CaseAndPunctuation(t *testing.T) {
	if got := Score("Cat, mat.", "cat mat"); got != 1.0 {
		t.Errorf("case/punctuation should not matter: got %v", got)
	}
}

func TestIsContinuation(t *testing.T) {
	prev := "portrait of a woman in soft light"

	if !IsContinuation(prev, "portrait of a young woman in soft light", DefaultThreshold) {
		t.Error("small insertion should classify as continuation")
	}
	if IsContinuation(prev, "isometric spaceship hangar concept art", DefaultThreshold) {
		t.Error("rewrite should not classify as continuation")
	}
}
