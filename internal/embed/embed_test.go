package embed

import (
	"math"
	"testing"
)

func TestFitDimension_ExactWidthPassesThrough(t *testing.T) {
	vec := make([]float32, 768)
	vec[0] = 1

	got, err := fitDimension(vec)
	if err != nil {
		t.Fatal(err)
	}
	if &got[0] != &vec[0] {
		t.Error("exact-width vector should not be copied")
	}
}

func TestFitDimension_TruncatesAndRenormalizes(t *testing.T) {
	vec := make([]float32, 3072)
	for i := range vec {
		vec[i] = 0.5
	}

	got, err := fitDimension(vec)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 768 {
		t.Fatalf("length = %d, want 768", len(got))
	}

	var norm float64
	for _, v := range got {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 0.01 {
		t.Errorf("truncated vector not renormalized, norm = %f", norm)
	}
}

func TestFitDimension_TooNarrow(t *testing.T) {
	if _, err := fitDimension(make([]float32, 100)); err == nil {
		t.Error("expected error for undersized vector")
	}
}

func TestFitDimension_ZeroVector(t *testing.T) {
	got, err := fitDimension(make([]float32, 3072))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("zero vector changed at %d: %f", i, v)
		}
	}
}
