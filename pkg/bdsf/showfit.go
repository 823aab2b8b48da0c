package bdsf

import (
	"os"
	"text/template"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
)

const fitSVGTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="{{.Wx}}" height="{{.Wy}}" viewBox="0 0 {{.Wx}} {{.Wy}}">
<rect width="{{.Wx}}" height="{{.Wy}}" fill="{{.Background}}"/>
{{range .Boxes}}<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" fill="none" stroke="{{.Stroke}}" stroke-width="1"/>
<circle cx="{{.PeakX}}" cy="{{.PeakY}}" r="0.8" fill="{{.Stroke}}"/>
{{end}}</svg>
`

type fitSVG struct {
	Wx, Wy     int
	Background string
	Boxes      []fitBox
}

type fitBox struct {
	X, Y, W, H   int
	PeakX, PeakY int
	Stroke       string
}

// ShowFit renders the detected islands as an SVG overlay: one box per
// island bounding box with its peak marked. Before islands have been
// detected it returns a false success flag with ErrNotProcessed and
// writes nothing.
func (img *Image) ShowFit(path string) (bool, error) {
	if !img.HasCompleted(OpIslands) {
		return false, errors.Wrap(ErrNotProcessed, "no fit results to show")
	}

	ch0, err := img.GetMap(MapCh0)
	if err != nil {
		return false, err
	}

	background, err := colors.ParseHEX("#10141c")
	if err != nil {
		return false, errors.Wrap(err, "unable to parse background colour")
	}
	stroke, err := colors.ParseHEX("#ffb300")
	if err != nil {
		return false, errors.Wrap(err, "unable to parse overlay colour")
	}

	doc := fitSVG{
		Wx:         ch0.Wx,
		Wy:         ch0.Wy,
		Background: background.String(),
	}
	for _, isl := range img.Islands {
		doc.Boxes = append(doc.Boxes, fitBox{
			X:      isl.Bounds.Min.X,
			Y:      isl.Bounds.Min.Y,
			W:      isl.Bounds.Dx(),
			H:      isl.Bounds.Dy(),
			PeakX:  isl.PeakX,
			PeakY:  isl.PeakY,
			Stroke: stroke.String(),
		})
	}

	tpl, err := template.New("fitSVG").Parse(fitSVGTemplate)
	if err != nil {
		return false, errors.Wrap(err, "unable to parse svg template")
	}

	file, err := os.Create(path)
	if err != nil {
		return false, errors.Wrapf(err, "unable to create %s", path)
	}
	defer file.Close()

	if err := tpl.Execute(file, doc); err != nil {
		return false, errors.Wrap(err, "unable to render fit overlay")
	}

	return true, nil
}
