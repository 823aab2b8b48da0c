package model

import (
	"math"

	"github.com/pkg/errors"
)

var ErrShapeMismatch = errors.New("map shapes do not match")

// FloatMap is a named array-valued data product: a 2D float32 grid in
// row-major order. Data[y*Wx+x] is the pixel at (x, y).
type FloatMap struct {
	Wx, Wy int
	Data   []float32
}

// NewFloatMap allocates a zeroed wx by wy map.
func NewFloatMap(wx, wy int) *FloatMap {
	return &FloatMap{
		Wx:   wx,
		Wy:   wy,
		Data: make([]float32, wx*wy),
	}
}

// NewFloatMapFromData wraps an existing slice. The slice is not
// copied; len(data) must equal wx*wy.
func NewFloatMapFromData(wx, wy int, data []float32) (*FloatMap, error) {
	if len(data) != wx*wy {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d values for %dx%d map", len(data), wx, wy)
	}

	return &FloatMap{Wx: wx, Wy: wy, Data: data}, nil
}

func (m *FloatMap) At(x, y int) float32 {
	return m.Data[y*m.Wx+x]
}

func (m *FloatMap) Set(x, y int, v float32) {
	m.Data[y*m.Wx+x] = v
}

// Clone returns a deep copy of the map.
func (m *FloatMap) Clone() *FloatMap {
	out := &FloatMap{
		Wx:   m.Wx,
		Wy:   m.Wy,
		Data: make([]float32, len(m.Data)),
	}
	copy(out.Data, m.Data)

	return out
}

// Equal reports whether both maps have the same shape and identical
// pixel values. NaNs are considered equal to NaNs so that maps
// containing blanked pixels still compare equal to themselves.
func (m *FloatMap) Equal(other *FloatMap) bool {
	if other == nil || m.Wx != other.Wx || m.Wy != other.Wy {
		return false
	}
	for i, v := range m.Data {
		w := other.Data[i]
		if v != w && !(math.IsNaN(float64(v)) && math.IsNaN(float64(w))) {
			return false
		}
	}

	return true
}

// Fill sets every pixel to v.
func (m *FloatMap) Fill(v float32) {
	for i := range m.Data {
		m.Data[i] = v
	}
}
