// Package stats computes summary statistics over closed observation logs.
// Every function is pure: replaying the same log through the same rules
// reproduces the same summary.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Percentile returns the p-th percentile of data using linear interpolation
// between order statistics: the rank is (n-1)*p/100 and the value is
// interpolated between the floor and ceiling ranked elements. p=0 yields the
// minimum and p=100 the maximum. data need not be sorted.
func Percentile(data []float64, p float64) (float64, error) {
	if p < 0 || p > 100 {
		return 0, fmt.Errorf("percentile out of range: %v", p)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("percentile of empty data")
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	index := float64(len(sorted)-1) * p / 100
	floor := int(math.Floor(index))
	ceil := floor + 1
	if ceil > len(sorted)-1 {
		ceil = len(sorted) - 1
	}
	if floor == ceil {
		return sorted[floor], nil
	}
	return sorted[floor]*(float64(ceil)-index) + sorted[ceil]*(index-float64(floor)), nil
}

// Mean returns the arithmetic mean, or 0 for empty data.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// Median returns the 50th percentile, or 0 for empty data.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m, _ := Percentile(data, 50)
	return m
}

// Min returns the smallest value, or 0 for empty data.
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	min := data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest value, or 0 for empty data.
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	max := data[0]
	for _, v := range data[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// StdDev returns the sample standard deviation (n-1 divisor), or 0 when
// fewer than two values are present.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	mean := Mean(data)
	var sum float64
	for _, v := range data {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(data)-1))
}
