package automation

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  Recommendation
		ok    bool
	}{
		{score: 100, want: RecommendationBonus, ok: true},
		{score: 95, want: RecommendationBonus, ok: true},
		{score: 94.999, ok: false},
		{score: 70, ok: false},
		{score: 69.999, want: RecommendationWarning, ok: true},
		{score: 50, want: RecommendationWarning, ok: true},
		{score: 49.999, want: RecommendationFinalWarning, ok: true},
		{score: 0, want: RecommendationFinalWarning, ok: true},
	}
	for _, tc := range cases {
		got, ok := Classify(tc.score)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Classify(%v): expected (%v, %v), got (%v, %v)", tc.score, tc.want, tc.ok, got, ok)
		}
	}
}

func TestParseRecommendation(t *testing.T) {
	for token, want := range map[string]Recommendation{
		"BONUS":         RecommendationBonus,
		"WARNING":       RecommendationWarning,
		"FINAL_WARNING": RecommendationFinalWarning,
	} {
		got, err := ParseRecommendation(token)
		if err != nil || got != want {
			t.Fatalf("ParseRecommendation(%s): got %v, %v", token, got, err)
		}
	}
	if _, err := ParseRecommendation("NONE"); err == nil {
		t.Fatalf("expected error for NONE")
	}
}
