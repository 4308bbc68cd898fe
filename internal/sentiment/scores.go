package sentiment

import "math"

// FromDistribution turns a raw 3-way output distribution (any non-negative
// weights, e.g. softmaxed logits or model-reported confidences) into a Result:
// weights are normalized, scaled to percentages and rounded to two decimals.
// The label is the argmax of the raw weights; ties resolve in the fixed order
// negative, neutral, positive so the mapping stays deterministic.
func FromDistribution(negative, neutral, positive float64) Result {
	if negative < 0 {
		negative = 0
	}
	if neutral < 0 {
		neutral = 0
	}
	if positive < 0 {
		positive = 0
	}

	total := negative + neutral + positive
	if total == 0 {
		// Degenerate distribution: call it neutral with full weight.
		return Result{Label: LabelNeutral, Scores: Scores{Neutral: 100}}
	}

	scores := Scores{
		Negative: round2(negative / total * 100),
		Neutral:  round2(neutral / total * 100),
		Positive: round2(positive / total * 100),
	}

	label := LabelNegative
	max := negative
	if neutral > max {
		label, max = LabelNeutral, neutral
	}
	if positive > max {
		label = LabelPositive
	}

	return Result{Label: label, Scores: scores}
}

// Softmax exponentiates and normalizes raw logits. The max logit is
// subtracted first for numerical stability.
func Softmax(logits [3]float64) [3]float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	var exps [3]float64
	for i, v := range logits {
		exps[i] = math.Exp(v - max)
		sum += exps[i]
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
