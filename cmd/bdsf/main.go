package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/askiada/go-bdsf/pkg/bdsf"
	"github.com/askiada/go-bdsf/pkg/bdsf/opts"
	"github.com/askiada/go-bdsf/pkg/bdsf/shell"
)

var (
	fThreshPix   float64
	fThreshIsl   float64
	fMinPixIsl   int
	fRMSBox      int
	fPolarised   bool
	fDoCache     bool
	fCacheDir    string
	fInteractive bool
	fLoadPars    string
	fSavePars    bool
	fExport      string
	fCatalog     string
	fCatFormat   string
	fShowFit     string
	fChainSVG    string
	fListPars    bool
)

func init() {
	flag.Float64Var(&fThreshPix, "thresh_pix", 5, "source detection threshold, in sigma")
	flag.Float64Var(&fThreshIsl, "thresh_isl", 3, "island boundary threshold, in sigma")
	flag.IntVar(&fMinPixIsl, "minpix_isl", 6, "minimum island size in pixels")
	flag.IntVar(&fRMSBox, "rms_box", 32, "box size for the sliding rms/mean maps")
	flag.BoolVar(&fPolarised, "pol", false, "collapse Stokes Q/U/V as well")
	flag.BoolVar(&fDoCache, "cache", false, "spill intermediate maps to disk")
	flag.StringVar(&fCacheDir, "cachedir", "", "directory for spilled maps")
	flag.BoolVar(&fInteractive, "interactive", false, "print errors instead of exiting nonzero")
	flag.StringVar(&fLoadPars, "loadpars", "", "load a parameter save file before processing")
	flag.BoolVar(&fSavePars, "savepars", false, "save parameters next to the image after processing")
	flag.StringVar(&fExport, "export", "", "comma separated products to export as FITS (ch0,rms,mean,island_mask)")
	flag.StringVar(&fCatalog, "catalog", "", "write the source catalog to this file")
	flag.StringVar(&fCatFormat, "format", "ascii", "catalog format: ascii or ds9")
	flag.StringVar(&fShowFit, "showfit", "", "write the fit overlay SVG to this file")
	flag.StringVar(&fChainSVG, "chain", "", "write the op chain graph to this file")
	flag.BoolVar(&fListPars, "listpars", false, "list parameter values and exit")
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: bdsf [flags] image.fits")
	}

	o := opts.New()
	o.ThreshPix = fThreshPix
	o.ThreshIsl = fThreshIsl
	o.MinPixIsl = fMinPixIsl
	o.RMSBox = fRMSBox
	o.PolarisationDo = fPolarised
	o.DoCache = fDoCache
	o.CacheDir = fCacheDir
	o.Interactive = fInteractive
	o.ChainSVG = fChainSVG

	img, err := bdsf.LoadFile(o, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer img.Close()

	s := shell.New(img, fInteractive, nil)
	ctx := context.Background()

	if fLoadPars != "" {
		if ok, err := s.LoadPars(fLoadPars); err != nil {
			log.Fatal(err)
		} else if !ok {
			return
		}
	}
	if fListPars {
		s.ListPars()

		return
	}

	ok, err := s.Process(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		return
	}
	if img.LastRun != nil {
		for name, metric := range img.LastRun.AllMetrics() {
			log.Printf("op %-10s took %s", name, metric.Duration())
		}
		log.Printf("found %d islands in %s", img.NIslands, img.LastRun.TotalDuration())
	}

	if fSavePars {
		if _, err := s.SavePars(""); err != nil {
			log.Fatal(err)
		}
	}
	for _, kind := range splitList(fExport) {
		if _, err := s.ExportImage(kind, flag.Arg(0)+"."+kind+".fits"); err != nil {
			log.Fatal(err)
		}
	}
	if fCatalog != "" {
		if _, err := s.WriteCatalog(fCatFormat, fCatalog); err != nil {
			log.Fatal(err)
		}
	}
	if fShowFit != "" {
		if _, err := s.ShowFit(fShowFit); err != nil {
			log.Fatal(err)
		}
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}

	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
