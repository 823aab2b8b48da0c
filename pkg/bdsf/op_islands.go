package bdsf

import (
	"context"
	"image"
	"math"

	"github.com/askiada/go-bdsf/pkg/bdsf/model"
)

// islandsOp segments ch0 into islands: 4-connected groups of pixels
// above the island threshold whose peak also clears the pixel
// threshold and which contain at least minpix_isl pixels. The result
// is the Islands list, the NIslands count and the island_mask map
// (pixel value = island id + 1, 0 for background).
type islandsOp struct{}

func (op *islandsOp) Name() string       { return OpIslands }
func (op *islandsOp) Requires() []string { return []string{OpRMSImage} }

func (op *islandsOp) Run(ctx context.Context, img *Image) error {
	ch0, err := img.GetMap(MapCh0)
	if err != nil {
		return err
	}
	meanMap, err := img.GetMap(MapMean)
	if err != nil {
		return err
	}
	rmsMap, err := img.GetMap(MapRMS)
	if err != nil {
		return err
	}

	o := img.Opts()
	mask := model.NewFloatMap(ch0.Wx, ch0.Wy)
	islands := []model.Island{}

	visited := make([]bool, len(ch0.Data))
	for start := range ch0.Data {
		if visited[start] || !aboveThresh(img, ch0, meanMap, rmsMap, start, o.ThreshIsl) {
			continue
		}

		member := floodFill(img, ch0, meanMap, rmsMap, visited, start, o.ThreshIsl)
		isl := buildIsland(ch0, meanMap, rmsMap, member)

		peakSigma := float64(isl.Peak-meanMap.Data[isl.PeakY*ch0.Wx+isl.PeakX]) / nonZero(rmsMap.Data[isl.PeakY*ch0.Wx+isl.PeakX])
		if isl.NPix() < o.MinPixIsl || peakSigma < o.ThreshPix {
			continue
		}

		isl.ID = len(islands)
		for _, idx := range isl.PixelIdx {
			mask.Data[idx] = float32(isl.ID + 1)
		}
		islands = append(islands, isl)
	}

	img.Islands = islands
	img.NIslands = len(islands)

	return img.PutMap(MapIslandMask, mask)
}

func nonZero(v float32) float64 {
	if v == 0 {
		return 1
	}

	return float64(v)
}

func aboveThresh(img *Image, ch0, meanMap, rmsMap *model.FloatMap, idx int, kappa float64) bool {
	if img.masked(idx) {
		return false
	}
	v := float64(ch0.Data[idx])
	if math.IsNaN(v) {
		return false
	}

	return v > float64(meanMap.Data[idx])+kappa*float64(rmsMap.Data[idx])
}

// floodFill collects the 4-connected component of pixels above the
// island threshold, starting at start. Marks everything it touches as
// visited.
func floodFill(img *Image, ch0, meanMap, rmsMap *model.FloatMap, visited []bool, start int, kappa float64) []int {
	member := []int{}
	stack := []int{start}
	visited[start] = true

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		member = append(member, idx)

		x, y := idx%ch0.Wx, idx/ch0.Wx
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= ch0.Wx || ny < 0 || ny >= ch0.Wy {
				continue
			}
			nIdx := ny*ch0.Wx + nx
			if visited[nIdx] || !aboveThresh(img, ch0, meanMap, rmsMap, nIdx, kappa) {
				continue
			}
			visited[nIdx] = true
			stack = append(stack, nIdx)
		}
	}

	return member
}

func buildIsland(ch0, meanMap, rmsMap *model.FloatMap, member []int) model.Island {
	isl := model.Island{
		PixelIdx: member,
		Peak:     float32(math.Inf(-1)),
	}

	bounds := image.Rectangle{}
	for i, idx := range member {
		x, y := idx%ch0.Wx, idx/ch0.Wx
		pixel := image.Rect(x, y, x+1, y+1)
		if i == 0 {
			bounds = pixel
		} else {
			bounds = bounds.Union(pixel)
		}

		v := ch0.Data[idx]
		if v > isl.Peak {
			isl.Peak = v
			isl.PeakX, isl.PeakY = x, y
		}
		isl.TotalFlux += float64(v - meanMap.Data[idx])
		isl.MeanRMS += float64(rmsMap.Data[idx])
	}
	isl.Bounds = bounds
	isl.MeanRMS /= float64(len(member))

	return isl
}
