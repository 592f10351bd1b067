package performance

import (
	"math"
	"testing"
)

func TestCompletion(t *testing.T) {
	cases := []struct {
		name     string
		achieved float64
		target   float64
		want     float64
	}{
		{name: "half", achieved: 50, target: 100, want: 0.5},
		{name: "capped", achieved: 150, target: 100, want: 1},
		{name: "zero target", achieved: 10, target: 0, want: 0},
		{name: "negative target", achieved: 10, target: -5, want: 0},
		{name: "nan target", achieved: 10, target: math.NaN(), want: 0},
		{name: "nothing achieved", achieved: 0, target: 100, want: 0},
		{name: "negative achieved", achieved: -10, target: 100, want: 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Completion(tc.achieved, tc.target); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRoundScoreHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: 94.995, want: 95},
		{in: 94.994, want: 94.99},
		{in: 2.675, want: 2.68},
		{in: 69.995, want: 70},
		{in: 49.9949, want: 49.99},
		{in: 40, want: 40},
		{in: 0, want: 0},
		{in: 100, want: 100},
		{in: math.NaN(), want: 0},
	}
	for _, tc := range cases {
		if got := RoundScore(tc.in); got != tc.want {
			t.Fatalf("RoundScore(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestTotalScoreRoundsOnce(t *testing.T) {
	kpi := KPI{ID: "k", Weightage: 50}
	lines := []KPIScore{
		ScoreKPI(kpi, 3, 1, false),
		ScoreKPI(kpi, 3, 1, false),
	}
	// Two lines of 16.666... sum to 33.333..., not 16.67 + 16.67.
	if got := TotalScore(lines); got != 33.33 {
		t.Fatalf("expected 33.33, got %v", got)
	}
}

func TestEffectiveTarget(t *testing.T) {
	kpi := KPI{TargetValue: 100}
	if target, overridden := EffectiveTarget(kpi, nil); target != 100 || overridden {
		t.Fatalf("expected kpi target, got %v %v", target, overridden)
	}
	o := &Override{CustomTargetValue: 50}
	if target, overridden := EffectiveTarget(kpi, o); target != 50 || !overridden {
		t.Fatalf("expected override target, got %v %v", target, overridden)
	}
}

func TestScoreBounds(t *testing.T) {
	kpis := []KPI{{ID: "a", Weightage: 40}, {ID: "b", Weightage: 35}, {ID: "c", Weightage: 25}}
	for _, achieved := range []float64{0, 1, 10, 99, 1000, 1e9} {
		var lines []KPIScore
		for _, kpi := range kpis {
			lines = append(lines, ScoreKPI(kpi, 100, achieved, false))
		}
		total := TotalScore(lines)
		if total < 0 || total > 100 {
			t.Fatalf("score %v out of bounds for achieved %v", total, achieved)
		}
	}
}

func TestPeriod(t *testing.T) {
	if _, err := NewPeriod(13, 2026); err == nil {
		t.Fatalf("expected error for month 13")
	}
	if _, err := NewPeriod(0, 2026); err == nil {
		t.Fatalf("expected error for month 0")
	}
	if _, err := NewPeriod(5, 0); err == nil {
		t.Fatalf("expected error for year 0")
	}
	p, err := ParsePeriod("2026-02")
	if err != nil {
		t.Fatalf("parse period: %v", err)
	}
	if p.String() != "2026-02" {
		t.Fatalf("expected 2026-02, got %s", p)
	}
	start, end := p.Bounds()
	if start.Day() != 1 || start.Month() != 2 || end.Month() != 3 {
		t.Fatalf("unexpected bounds %v %v", start, end)
	}
	if _, err := ParsePeriod("02-2026"); err == nil {
		t.Fatalf("expected error for malformed period")
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusVerified, StatusRejected} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", s, err)
		}
		var back Status
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Fatalf("round trip %s failed: %v %v", text, back, err)
		}
	}
	if _, err := ParseStatus("APPROVED"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if _, err := Status(0).MarshalText(); err == nil {
		t.Fatalf("expected error for zero status")
	}
}
