package model

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
)

// Handoff is the state subset that crosses a process boundary when the
// pipeline is parallelised externally. Only these three scalars are
// transferred; maps and the full option set stay behind and must be
// re-established by the receiving process.
type Handoff struct {
	ThreshPix   float64
	MinPixIsl   int
	ClippedMean float64
}

// Encode writes the gob encoding of the handoff to w.
func (h Handoff) Encode(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(h); err != nil {
		return errors.Wrap(err, "unable to encode handoff state")
	}

	return nil
}

// DecodeHandoff reads a gob-encoded handoff from r.
func DecodeHandoff(r io.Reader) (Handoff, error) {
	var h Handoff
	if err := gob.NewDecoder(r).Decode(&h); err != nil {
		return Handoff{}, errors.Wrap(err, "unable to decode handoff state")
	}

	return h, nil
}

// Marshal returns the gob encoding of the handoff as a byte slice.
func (h Handoff) Marshal() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := h.Encode(buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalHandoff decodes a handoff previously produced by Marshal.
func UnmarshalHandoff(b []byte) (Handoff, error) {
	return DecodeHandoff(bytes.NewReader(b))
}
