package enroll

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInsufficientSamples is returned when an enrollment session did not
// collect enough valid samples to produce a reference vector.
var ErrInsufficientSamples = errors.New("insufficient valid samples")

// madFloor is the numerical floor below which MAD is considered zero
// and the stddev fallback kicks in.
const madFloor = 1e-6

// Sample is one captured embedding plus the frame it came from.
type Sample struct {
	Embedding []float32
	Frame     []byte
}

// AggregateOptions controls outlier rejection.
type AggregateOptions struct {
	MinSamples       int
	MADMultiplier    float64
	StdDevMultiplier float64
}

// Aggregate reduces noisy per-frame embeddings into one robust reference
// vector. A coordinate-wise median anchors the outlier test: samples far
// from the median (beyond median distance + k·MAD, or the stddev fallback
// when MAD degenerates) are discarded, and the survivors are averaged.
func Aggregate(samples []Sample, opts AggregateOptions) ([]float32, error) {
	if opts.MinSamples <= 0 {
		opts.MinSamples = 1
	}
	if len(samples) < opts.MinSamples {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientSamples, len(samples), opts.MinSamples)
	}

	dim := len(samples[0].Embedding)
	for i, s := range samples {
		if len(s.Embedding) != dim {
			return nil, fmt.Errorf("sample %d has dimension %d, expected %d", i, len(s.Embedding), dim)
		}
	}

	med := coordinateMedian(samples, dim)

	distances := make([]float64, len(samples))
	for i, s := range samples {
		distances[i] = euclidean(s.Embedding, med)
	}

	threshold := outlierThreshold(distances, opts)

	var survivors []Sample
	for i, s := range samples {
		if distances[i] <= threshold {
			survivors = append(survivors, s)
		}
	}
	// Everything filtered out means the threshold collapsed; fall back
	// to the plain mean rather than failing the session.
	if len(survivors) == 0 {
		survivors = samples
	}

	return coordinateMean(survivors, dim), nil
}

// coordinateMedian computes the per-coordinate median vector.
func coordinateMedian(samples []Sample, dim int) []float32 {
	med := make([]float32, dim)
	column := make([]float64, len(samples))
	for d := 0; d < dim; d++ {
		for i, s := range samples {
			column[i] = float64(s.Embedding[d])
		}
		med[d] = float32(median(column))
	}
	return med
}

// coordinateMean computes the per-coordinate arithmetic mean vector.
func coordinateMean(samples []Sample, dim int) []float32 {
	mean := make([]float32, dim)
	for d := 0; d < dim; d++ {
		var sum float64
		for _, s := range samples {
			sum += float64(s.Embedding[d])
		}
		mean[d] = float32(sum / float64(len(samples)))
	}
	return mean
}

// outlierThreshold derives the discard threshold from the distance
// distribution: median + k·MAD when MAD is meaningful, otherwise
// mean + k·stddev.
func outlierThreshold(distances []float64, opts AggregateOptions) float64 {
	sorted := append([]float64(nil), distances...)
	medDist := median(sorted)

	deviations := make([]float64, len(distances))
	for i, d := range distances {
		deviations[i] = math.Abs(d - medDist)
	}
	mad := median(deviations)

	if mad > madFloor {
		return medDist + opts.MADMultiplier*mad
	}

	var sum float64
	for _, d := range distances {
		sum += d
	}
	mean := sum / float64(len(distances))

	var variance float64
	for _, d := range distances {
		variance += (d - mean) * (d - mean)
	}
	stddev := math.Sqrt(variance / float64(len(distances)))

	return mean + opts.StdDevMultiplier*stddev
}

// median returns the median of values. The input slice is sorted in place.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

func euclidean(a []float32, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
