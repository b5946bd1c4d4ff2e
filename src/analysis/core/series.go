package core

import "math"

// SeriesSummary describes a window of values in arrival order.
type SeriesSummary struct {
	First float64
	Last  float64
	Min   float64
	Max   float64
	Sum   float64
	Mean  float64
	Count int
}

// -----------------------------------------------------------------------------

// ComputeSummary calculates first/last/min/max/sum/mean of values.
func ComputeSummary(values []float64) SeriesSummary {
	if len(values) == 0 {
		return SeriesSummary{}
	}

	s := SeriesSummary{
		First: values[0],
		Last:  values[len(values)-1],
		Min:   math.MaxFloat64,
		Max:   -math.MaxFloat64,
		Count: len(values),
	}
	for _, v := range values {
		if v > s.Max {
			s.Max = v
		}
		if v < s.Min {
			s.Min = v
		}
		s.Sum += v
	}
	s.Mean = s.Sum / float64(len(values))
	return s
}

// -----------------------------------------------------------------------------

// CalculateChangePercent calculates fractional change. A zero baseline gives 0.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous
}
