// Package shell adapts the bdsf library to interactive use. The
// library always propagates errors; a Session decides, per the
// interactive flag, whether a failure is printed as a formatted
// message with a false success flag or passed through to the caller.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/askiada/go-bdsf/pkg/bdsf/opts"
)

// Session wraps an image with an error-presentation policy. A session
// is interactive when its own flag is set or when the image's
// interactive option is, so an option loaded from a save file takes
// effect without rebuilding the session.
type Session struct {
	Img         Image
	Interactive bool
	Out         io.Writer
}

// Image is the surface of bdsf.Image the session drives.
type Image interface {
	Opts() *opts.Opts
	Process(ctx context.Context, overrides map[string]interface{}) (bool, error)
	ListPars() []string
	SetPars(kwargs map[string]interface{}) error
	SavePars(path string) error
	LoadPars(path string) error
	ExportImage(kind, path string) error
	WriteCatalog(format, path string) error
	ShowFit(path string) (bool, error)
}

// New builds a session writing messages to out (stdout when nil).
func New(img Image, interactive bool, out io.Writer) *Session {
	if out == nil {
		out = os.Stdout
	}

	return &Session{Img: img, Interactive: interactive, Out: out}
}

// interactive reports whether failures are presented rather than
// propagated.
func (s *Session) interactive() bool {
	return s.Interactive || s.Img.Opts().Interactive
}

// report applies the presentation policy to err: interactive sessions
// print the formatted message and swallow the error, returning false;
// non-interactive sessions propagate it unchanged.
func (s *Session) report(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if s.interactive() {
		fmt.Fprintf(s.Out, "\n\x1b[31;1mERROR\x1b[0m: %v\n", err)

		return false, nil
	}

	return false, err
}

// Process runs the op chain.
func (s *Session) Process(ctx context.Context, overrides map[string]interface{}) (bool, error) {
	_, err := s.Img.Process(ctx, overrides)

	return s.report(err)
}

// ListPars prints the current option values.
func (s *Session) ListPars() {
	for _, line := range s.Img.ListPars() {
		fmt.Fprintln(s.Out, line)
	}
}

// SetPars applies option overrides.
func (s *Session) SetPars(kwargs map[string]interface{}) (bool, error) {
	return s.report(s.Img.SetPars(kwargs))
}

// SavePars saves the option set.
func (s *Session) SavePars(path string) (bool, error) {
	return s.report(s.Img.SavePars(path))
}

// LoadPars loads a parameter save file.
func (s *Session) LoadPars(path string) (bool, error) {
	return s.report(s.Img.LoadPars(path))
}

// ExportImage writes an internal image product.
func (s *Session) ExportImage(kind, path string) (bool, error) {
	return s.report(s.Img.ExportImage(kind, path))
}

// WriteCatalog writes the island catalog.
func (s *Session) WriteCatalog(format, path string) (bool, error) {
	return s.report(s.Img.WriteCatalog(format, path))
}

// ShowFit renders the fit overlay.
func (s *Session) ShowFit(path string) (bool, error) {
	_, err := s.Img.ShowFit(path)

	return s.report(err)
}
