package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingClassifier struct {
	result Result
	calls  int
}

func (c *countingClassifier) Classify(ctx context.Context, text string) (Result, error) {
	c.calls++
	return c.result, nil
}

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedClassifierMemoizes(t *testing.T) {
	inner := &countingClassifier{result: Result{
		Label:  LabelPositive,
		Scores: Scores{Negative: 3.1, Neutral: 6.9, Positive: 90},
	}}
	c := NewCachedClassifier(inner, newTestRedis(t), time.Hour, nil)

	first, err := c.Classify(context.Background(), "Excellent service")
	if err != nil {
		t.Fatalf("first Classify: %v", err)
	}
	second, err := c.Classify(context.Background(), "Excellent service")
	if err != nil {
		t.Fatalf("second Classify: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if first != second {
		t.Errorf("cached result %+v differs from original %+v", second, first)
	}
}

func TestCachedClassifierDistinctTexts(t *testing.T) {
	inner := &countingClassifier{result: Result{Label: LabelNeutral, Scores: Scores{Neutral: 100}}}
	c := NewCachedClassifier(inner, newTestRedis(t), time.Hour, nil)

	ctx := context.Background()
	if _, err := c.Classify(ctx, "bon accueil"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Classify(ctx, "mauvais accueil"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2 for distinct texts", inner.calls)
	}
}

func TestCachedClassifierNilClientPassthrough(t *testing.T) {
	inner := &countingClassifier{result: Result{Label: LabelNeutral, Scores: Scores{Neutral: 100}}}
	c := NewCachedClassifier(inner, nil, time.Hour, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Classify(ctx, "même texte"); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("inner called %d times, want 3 without cache", inner.calls)
	}
}
