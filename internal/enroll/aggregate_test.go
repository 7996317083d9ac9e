package enroll

import (
	"errors"
	"math"
	"testing"
)

func defaultOptions() AggregateOptions {
	return AggregateOptions{
		MinSamples:       5,
		MADMultiplier:    3,
		StdDevMultiplier: 2,
	}
}

// clusteredSample returns a vector near base with a small per-index wobble.
func clusteredSample(dim int, base, wobble float32) Sample {
	v := make([]float32, dim)
	for i := range v {
		v[i] = base + wobble*float32(i%3)
	}
	return Sample{Embedding: v}
}

func constantSample(dim int, value float32) Sample {
	v := make([]float32, dim)
	for i := range v {
		v[i] = value
	}
	return Sample{Embedding: v}
}

func euclidean64(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func TestAggregateRejectsOutlier(t *testing.T) {
	const dim = 512

	var samples []Sample
	for i := 0; i < 10; i++ {
		samples = append(samples, clusteredSample(dim, 0.5, 0.001*float32(i)))
	}
	outlier := constantSample(dim, -5.0)
	samples = append(samples, outlier)

	got, err := Aggregate(samples, defaultOptions())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	// Mean of the 10 clustered samples, excluding the outlier.
	cleanMean := coordinateMean(samples[:10], dim)

	if d := euclidean64(got, cleanMean); d > euclidean64(outlier.Embedding, cleanMean)/100 {
		t.Errorf("Aggregated vector too far from clean mean: %f", d)
	}
}

func TestAggregateScenarioFourTightOneRandom(t *testing.T) {
	const dim = 512

	samples := []Sample{
		clusteredSample(dim, 0.3, 0.0001),
		clusteredSample(dim, 0.3, 0.0002),
		clusteredSample(dim, 0.3, 0.0003),
		clusteredSample(dim, 0.3, 0.0004),
		constantSample(dim, 7.5),
	}

	opts := defaultOptions()
	opts.MinSamples = 4

	got, err := Aggregate(samples, opts)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	tightMean := coordinateMean(samples[:4], dim)
	if d := euclidean64(got, tightMean); d > 0.01 {
		t.Errorf("Expected aggregate near the tight cluster mean, distance %f", d)
	}
}

func TestAggregateInsufficientSamples(t *testing.T) {
	samples := []Sample{
		constantSample(8, 1),
		constantSample(8, 1),
	}

	_, err := Aggregate(samples, defaultOptions())
	if !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("Expected ErrInsufficientSamples, got %v", err)
	}
}

func TestAggregateIdenticalSamples(t *testing.T) {
	// All distances are zero, so MAD is zero and the stddev fallback
	// applies; nothing may be discarded and no NaN may leak.
	var samples []Sample
	for i := 0; i < 6; i++ {
		samples = append(samples, constantSample(16, 0.25))
	}

	got, err := Aggregate(samples, defaultOptions())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for i, v := range got {
		if math.IsNaN(float64(v)) {
			t.Fatalf("NaN at coordinate %d", i)
		}
		if v != 0.25 {
			t.Errorf("Expected 0.25 at coordinate %d, got %f", i, v)
		}
	}
}

func TestAggregateDimensionMismatch(t *testing.T) {
	samples := []Sample{
		constantSample(8, 1),
		constantSample(8, 1),
		constantSample(8, 1),
		constantSample(8, 1),
		constantSample(4, 1),
	}

	if _, err := Aggregate(samples, defaultOptions()); err == nil {
		t.Error("Expected error for mixed dimensions")
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.values); got != tt.want {
				t.Errorf("median(%v) = %f, want %f", tt.values, got, tt.want)
			}
		})
	}
}
