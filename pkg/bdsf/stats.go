package bdsf

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// clippedStats computes the kappa-sigma clipped mean and rms of data.
// Each iteration recomputes mean and stddev over the surviving values
// and drops everything further than kappa stddevs from the mean. NaN
// values are always excluded. Converges when an iteration drops
// nothing.
func clippedStats(data []float32, kappa float64, iters int) (mean, rms float64, err error) {
	vals := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(float64(v)) {
			vals = append(vals, float64(v))
		}
	}
	if len(vals) == 0 {
		return 0, 0, errors.New("no unblanked pixels")
	}

	for iter := 0; ; iter++ {
		mean = stat.Mean(vals, nil)
		rms = stat.StdDev(vals, nil)
		if iter >= iters || rms == 0 || math.IsNaN(rms) {
			break
		}

		kept := vals[:0]
		for _, v := range vals {
			if math.Abs(v-mean) <= kappa*rms {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(vals) || len(kept) < 2 {
			break
		}
		vals = kept
	}
	if math.IsNaN(rms) {
		rms = 0
	}

	return mean, rms, nil
}
