package sentiment

import (
	"math"
	"testing"
)

func TestFromDistribution(t *testing.T) {
	tests := []struct {
		name      string
		neg       float64
		neu       float64
		pos       float64
		wantLabel Label
	}{
		{"clear positive", 0.05, 0.10, 0.85, LabelPositive},
		{"clear negative", 0.90, 0.07, 0.03, LabelNegative},
		{"neutral", 0.2, 0.6, 0.2, LabelNeutral},
		{"unnormalized weights", 5, 10, 85, LabelPositive},
		{"tie prefers earlier class", 0.5, 0.5, 0, LabelNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FromDistribution(tt.neg, tt.neu, tt.pos)
			if res.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", res.Label, tt.wantLabel)
			}
			if sum := res.Scores.Sum(); math.Abs(sum-100) > 0.1 {
				t.Errorf("scores sum = %v, want 100 ± 0.1", sum)
			}
			for _, s := range []float64{res.Scores.Negative, res.Scores.Neutral, res.Scores.Positive} {
				if s < 0 || s > 100 {
					t.Errorf("score %v outside [0,100]", s)
				}
				if s != math.Round(s*100)/100 {
					t.Errorf("score %v not rounded to two decimals", s)
				}
			}
		})
	}
}

func TestFromDistributionDegenerate(t *testing.T) {
	res := FromDistribution(0, 0, 0)
	if res.Label != LabelNeutral {
		t.Errorf("label = %q, want neutral for zero distribution", res.Label)
	}
	if res.Scores.Neutral != 100 {
		t.Errorf("neutral score = %v, want 100", res.Scores.Neutral)
	}

	res = FromDistribution(-3, -1, -2)
	if res.Label != LabelNeutral {
		t.Errorf("label = %q, want neutral when all weights clamp to zero", res.Label)
	}
}

func TestFromDistributionDeterministic(t *testing.T) {
	a := FromDistribution(0.123, 0.456, 0.421)
	b := FromDistribution(0.123, 0.456, 0.421)
	if a != b {
		t.Errorf("same distribution gave different results: %+v vs %+v", a, b)
	}
}

func TestSoftmax(t *testing.T) {
	probs := Softmax([3]float64{1.0, 2.0, 3.0})
	var sum float64
	for _, p := range probs {
		if p <= 0 || p >= 1 {
			t.Errorf("softmax prob %v outside (0,1)", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("softmax sum = %v, want 1", sum)
	}
	if !(probs[2] > probs[1] && probs[1] > probs[0]) {
		t.Errorf("softmax not monotone: %v", probs)
	}

	// Large logits must not overflow.
	probs = Softmax([3]float64{1000, 1001, 999})
	if math.IsNaN(probs[0]) || math.IsInf(probs[1], 0) {
		t.Errorf("softmax unstable for large logits: %v", probs)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short text untouched", "bon accueil", 100, "bon accueil"},
		{"whitespace trimmed", "  merci  ", 100, "merci"},
		{"long text truncated", "abcdefghij", 4, "abcd"},
		{"no limit", "abcdefghij", 0, "abcdefghij"},
		{"multibyte safe", "éèêëàâ", 3, "éèê"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
