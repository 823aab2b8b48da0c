package model

import "image"

// Island is a connected group of pixels above the island threshold
// whose peak also clears the pixel threshold. It is the unit handed to
// the fitting and catalog stages.
type Island struct {
	ID        int
	Bounds    image.Rectangle
	PixelIdx  []int   // row-major indices into the source map
	Peak      float32 // brightest pixel value
	PeakX     int
	PeakY     int
	TotalFlux float64 // sum over member pixels
	MeanRMS   float64 // mean of the rms map over member pixels
}

// NPix returns the number of member pixels.
func (isl *Island) NPix() int {
	return len(isl.PixelIdx)
}
