// Package fits reads and writes the subset of the FITS standard the
// pipeline needs: a single primary HDU holding 2D or 3D numeric data.
// Values are normalised to float32 on read, with BZERO/BSCALE applied.
//
// FITS structure: a header of 80-character cards followed by
// big-endian data, both padded to 2880-byte blocks.
package fits

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-bdsf/pkg/bdsf/model"
)

const blockSize = 2880

var ErrNotFITS = errors.New("not a FITS file")

// Cube is a stack of image planes sharing one shape, plus the header
// they were read with. A 2D image is a cube with a single plane.
type Cube struct {
	Wx, Wy int
	Planes []*model.FloatMap
	Header *model.Header
}

// NPlanes returns the number of image planes.
func (c *Cube) NPlanes() int { return len(c.Planes) }

// ReadFile reads the primary HDU of the named file.
func ReadFile(path string) (*Cube, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer file.Close()

	cube, err := Read(file)

	return cube, errors.Wrapf(err, "reading %s", path)
}

// Read reads the primary HDU from r.
func Read(r io.Reader) (*Cube, error) {
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	bitpix, err := headerInt(header, "BITPIX")
	if err != nil {
		return nil, err
	}
	naxis, err := headerInt(header, "NAXIS")
	if err != nil {
		return nil, err
	}
	if naxis < 2 || naxis > 3 {
		return nil, errors.Errorf("unsupported NAXIS %d, want 2 or 3", naxis)
	}

	axes := make([]int, naxis)
	for i := range axes {
		axes[i], err = headerInt(header, fmt.Sprintf("NAXIS%d", i+1))
		if err != nil {
			return nil, err
		}
	}
	nplanes := 1
	if naxis == 3 {
		nplanes = axes[2]
	}

	bzero := headerFloat(header, "BZERO", 0)
	bscale := headerFloat(header, "BSCALE", 1)

	data, err := readData(r, bitpix, axes[0]*axes[1]*nplanes)
	if err != nil {
		return nil, err
	}

	cube := &Cube{Wx: axes[0], Wy: axes[1], Header: header}
	planeLen := axes[0] * axes[1]
	for p := 0; p < nplanes; p++ {
		plane := model.NewFloatMap(axes[0], axes[1])
		for i := 0; i < planeLen; i++ {
			plane.Data[i] = float32(bzero + bscale*float64(data[p*planeLen+i]))
		}
		cube.Planes = append(cube.Planes, plane)
	}

	return cube, nil
}

// WriteFile writes m as a single-plane float32 FITS image.
func WriteFile(path string, m *model.FloatMap, header *model.Header) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer file.Close()

	return errors.Wrapf(Write(file, m, header), "writing %s", path)
}

// Write writes m to w as BITPIX -32 with no scaling.
func Write(w io.Writer, m *model.FloatMap, header *model.Header) error {
	cards := []string{
		card("SIMPLE", "T", "conforms to FITS standard"),
		card("BITPIX", "-32", "IEEE single precision"),
		card("NAXIS", "2", ""),
		card("NAXIS1", strconv.Itoa(m.Wx), ""),
		card("NAXIS2", strconv.Itoa(m.Wy), ""),
	}
	if header != nil {
		for _, c := range header.Cards {
			if reservedKey(c.Name) {
				continue
			}
			cards = append(cards, card(c.Name, c.Value, c.Comment))
		}
	}
	cards = append(cards, fmt.Sprintf("%-80s", "END"))

	block := strings.Join(cards, "")
	if pad := len(block) % blockSize; pad != 0 {
		block += strings.Repeat(" ", blockSize-pad)
	}
	if _, err := io.WriteString(w, block); err != nil {
		return errors.Wrap(err, "unable to write header")
	}

	buf := make([]byte, 4*len(m.Data))
	for i, v := range m.Data {
		binary.BigEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	if pad := len(buf) % blockSize; pad != 0 {
		buf = append(buf, make([]byte, blockSize-pad)...)
	}
	if _, err := w.Write(buf); err != nil {
		return errors.Wrap(err, "unable to write data")
	}

	return nil
}

func reservedKey(name string) bool {
	switch name {
	case "SIMPLE", "BITPIX", "NAXIS", "NAXIS1", "NAXIS2", "NAXIS3", "END", "BZERO", "BSCALE":
		return true
	}

	return false
}

// card renders one 80-character header card. The comment is trimmed
// to whatever room the value leaves, or dropped entirely, so the value
// itself is never cut.
func card(name, value, comment string) string {
	s := fmt.Sprintf("%-8s= %20s", name, value)
	if room := 80 - len(s) - 3; comment != "" && room > 0 {
		if len(comment) > room {
			comment = comment[:room]
		}
		s += " / " + comment
	}
	if len(s) > 80 {
		// only reachable with a value beyond what FITS allows
		s = s[:80]
	}

	return fmt.Sprintf("%-80s", s)
}

func readHeader(r io.Reader) (*model.Header, error) {
	header := model.NewHeader()
	block := make([]byte, blockSize)
	first := true

	for {
		if _, err := io.ReadFull(r, block); err != nil {
			return nil, errors.Wrap(err, "unable to read header block")
		}
		for i := 0; i < blockSize; i += 80 {
			line := string(block[i : i+80])
			name := strings.TrimSpace(line[:8])
			if first {
				if name != "SIMPLE" {
					return nil, ErrNotFITS
				}
				first = false
			}
			if name == "END" {
				return header, nil
			}
			if name == "" || name == "COMMENT" || name == "HISTORY" || len(line) < 10 || line[8] != '=' {
				continue
			}
			value, comment := splitValue(line[10:])
			header.Set(name, value, comment)
		}
	}
}

// splitValue splits the value field from an inline comment, ignoring
// slashes inside quoted strings.
func splitValue(s string) (string, string) {
	inQuote := false
	for i, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == '/' && !inQuote:
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		}
	}

	return strings.TrimSpace(s), ""
}

func headerInt(h *model.Header, name string) (int, error) {
	v, ok := h.Get(name)
	if !ok {
		return 0, errors.Errorf("missing %s card", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "bad %s value %q", name, v)
	}

	return n, nil
}

func headerFloat(h *model.Header, name string, def float64) float64 {
	v, ok := h.Get(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}

	return f
}

func readData(r io.Reader, bitpix, n int) ([]float64, error) {
	size := bitpix / 8
	if size < 0 {
		size = -size
	}
	raw := make([]byte, n*size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, errors.Wrap(err, "unable to read data block")
	}

	out := make([]float64, n)
	switch bitpix {
	case 8:
		for i := range out {
			out[i] = float64(raw[i])
		}
	case 16:
		for i := range out {
			out[i] = float64(int16(binary.BigEndian.Uint16(raw[2*i:])))
		}
	case 32:
		for i := range out {
			out[i] = float64(int32(binary.BigEndian.Uint32(raw[4*i:])))
		}
	case -32:
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[4*i:])))
		}
	case -64:
		for i := range out {
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[8*i:]))
		}
	default:
		return nil, errors.Errorf("unsupported BITPIX %d", bitpix)
	}

	return out, nil
}
