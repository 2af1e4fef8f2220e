// Package imgenhance fetches a single image and writes four enhanced
// versions of it: inverted, contrast rescaled, log tone mapped and
// histogram equalized. The pixel transforms live in package imageutil;
// this package wires them to fetching, decoding, encoding and writing.
package imgenhance

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wbrown/imgenhance/imageutil"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrConfig is returned by Validate and Run for unusable settings.
	ErrConfig = errors.New("imgenhance: invalid configuration")
	// ErrWrite is returned when an output artifact cannot be written.
	ErrWrite = errors.New("imgenhance: write failed")
	// ErrSkipped marks artifacts that were not produced because the run
	// was aborted.
	ErrSkipped = errors.New("imgenhance: skipped")
)

// Artifact names, also used as output file base names.
const (
	NameInverted           = "inverted"
	NameContrast           = "contrast"
	NameLogTransformed     = "log_transformed"
	NameHistogramEqualized = "histogram_equalized"
	NameContactSheet       = "contact_sheet"
)

// DefaultTransforms returns the four enhancements in their conventional
// order, with the contrast rescale using factor.
func DefaultTransforms(factor float64) []imageutil.Transform {
	return []imageutil.Transform{
		{Name: NameInverted, Apply: imageutil.Invert},
		{Name: NameContrast, Apply: func(src *imageutil.RGBAImage) *imageutil.RGBAImage {
			return imageutil.Contrast(src, factor)
		}},
		{Name: NameLogTransformed, Apply: imageutil.LogTransform},
		{Name: NameHistogramEqualized, Apply: imageutil.EqualizeHistogram},
	}
}

// Enhancer holds the configuration of one enhancement run.
type Enhancer struct {
	Source         string
	OutputDir      string
	ContrastFactor float64
	Format         imageutil.Format
	Quality        int
	Timeout        time.Duration
	MaxBytes       int64

	// Parallel runs the transforms concurrently.
	Parallel bool
	// KeepGoing isolates artifact failures instead of aborting the run
	// on the first one.
	KeepGoing bool
	// ContactSheet adds a labelled overview of the source and every
	// artifact.
	ContactSheet bool
	ThumbWidth   int

	client     *http.Client
	transforms []imageutil.Transform
}

// Option is a functional option for configuring an Enhancer.
type Option func(*Enhancer)

// NewEnhancer creates an Enhancer with the given options.
// Default values: OutputDir="output", ContrastFactor=1.5, Format=jpeg,
// Quality=95, Timeout=30s, MaxBytes=64MiB, ThumbWidth=240.
func NewEnhancer(opts ...Option) *Enhancer {
	e := &Enhancer{
		OutputDir:      "output",
		ContrastFactor: 1.5,
		Format:         imageutil.FormatJPEG,
		Quality:        imageutil.DefaultQuality,
		Timeout:        30 * time.Second,
		MaxBytes:       DefaultMaxBytes,
		ThumbWidth:     DefaultThumbWidth,
		client:         http.DefaultClient,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithSource sets the input image URL or path.
func WithSource(source string) Option {
	return func(e *Enhancer) { e.Source = source }
}

// WithOutputDir sets the directory artifacts are written to.
func WithOutputDir(dir string) Option {
	return func(e *Enhancer) { e.OutputDir = dir }
}

// WithContrastFactor sets the contrast rescale factor.
func WithContrastFactor(factor float64) Option {
	return func(e *Enhancer) { e.ContrastFactor = factor }
}

// WithFormat sets the output encoding.
func WithFormat(format imageutil.Format) Option {
	return func(e *Enhancer) { e.Format = format }
}

// WithQuality sets the JPEG quality.
func WithQuality(quality int) Option {
	return func(e *Enhancer) { e.Quality = quality }
}

// WithHTTPClient sets the client used for remote sources.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Enhancer) { e.client = client }
}

// WithTimeout bounds the fetch of the source. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Enhancer) { e.Timeout = d }
}

// WithMaxBytes caps the source size.
func WithMaxBytes(n int64) Option {
	return func(e *Enhancer) { e.MaxBytes = n }
}

// WithParallel runs the transforms concurrently.
func WithParallel(parallel bool) Option {
	return func(e *Enhancer) { e.Parallel = parallel }
}

// WithKeepGoing reports every failed artifact instead of stopping at the
// first one.
func WithKeepGoing(keepGoing bool) Option {
	return func(e *Enhancer) { e.KeepGoing = keepGoing }
}

// WithContactSheet enables the contact sheet artifact.
func WithContactSheet(enabled bool) Option {
	return func(e *Enhancer) { e.ContactSheet = enabled }
}

// WithTransforms replaces the default transform set.
func WithTransforms(transforms ...imageutil.Transform) Option {
	return func(e *Enhancer) {
		e.transforms = append([]imageutil.Transform{}, transforms...)
	}
}

// Transforms returns the transforms Run applies.
func (e *Enhancer) Transforms() []imageutil.Transform {
	if e.transforms != nil {
		return e.transforms
	}
	return DefaultTransforms(e.ContrastFactor)
}

// Validate checks the configuration and normalises the output format.
func (e *Enhancer) Validate() error {
	switch {
	case e.Source == "":
		return fmt.Errorf("%w: no source", ErrConfig)
	case e.OutputDir == "":
		return fmt.Errorf("%w: no output directory", ErrConfig)
	case !(e.ContrastFactor > 0) || math.IsInf(e.ContrastFactor, 0):
		return fmt.Errorf("%w: contrast factor must be positive and finite, got %v",
			ErrConfig, e.ContrastFactor)
	case e.Quality < 0 || e.Quality > 100:
		return fmt.Errorf("%w: quality must be in [0, 100], 0 for default, got %d", ErrConfig, e.Quality)
	}
	format, err := imageutil.ParseFormat(string(e.Format))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	// Aliases such as "jpg" or "tif" are stored in their canonical form
	e.Format = format

	transforms := e.Transforms()
	if len(transforms) == 0 {
		return fmt.Errorf("%w: no transforms", ErrConfig)
	}
	seen := make(map[string]bool, len(transforms))
	for _, t := range transforms {
		if t.Name == "" || t.Apply == nil {
			return fmt.Errorf("%w: transform needs a name and a function", ErrConfig)
		}
		if strings.ContainsAny(t.Name, `/\`) || t.Name == "." || t.Name == ".." {
			return fmt.Errorf("%w: transform name %q is not a file name", ErrConfig, t.Name)
		}
		if seen[t.Name] || (e.ContactSheet && t.Name == NameContactSheet) {
			return fmt.Errorf("%w: duplicate artifact name %q", ErrConfig, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Result describes one artifact.
type Result struct {
	Name     string
	Path     string
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Report summarises a run.
type Report struct {
	Source       string
	SourceFormat string
	Width        int
	Height       int
	Results      []Result
	// Sheet is set when a contact sheet was requested and attempted.
	Sheet *Result
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	if r.Sheet != nil && r.Sheet.Err != nil {
		failed = append(failed, *r.Sheet)
	}
	return failed
}

// ArtifactPath returns the output path for the named artifact.
func (e *Enhancer) ArtifactPath(name string) string {
	return filepath.Join(e.OutputDir, name+e.Format.Ext())
}

// Run fetches and decodes the source once, applies every transform to the
// decoded image and writes each result. Fetch and decode failures always
// abort. Artifact failures abort the run unless KeepGoing is set, in which
// case all of them are returned joined. The report is non-nil whenever the
// source was decoded.
func (e *Enhancer) Run(ctx context.Context) (*Report, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	log := Logger().With("source", e.Source)

	start := time.Now()
	src, format, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("decoded source", "format", format,
		"width", src.Width(), "height", src.Height(), "elapsed", time.Since(start))

	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	transforms := e.Transforms()
	report := &Report{
		Source:       e.Source,
		SourceFormat: format,
		Width:        src.Width(),
		Height:       src.Height(),
		Results:      make([]Result, len(transforms)),
	}
	outputs := make([]*imageutil.RGBAImage, len(transforms))

	if e.Parallel {
		err = e.runParallel(ctx, src, transforms, report, outputs)
	} else {
		err = e.runSequential(ctx, src, transforms, report, outputs)
	}
	if err != nil && !e.KeepGoing {
		return report, err
	}

	if e.ContactSheet {
		sheet := e.writeSheet(src, transforms, outputs)
		report.Sheet = &sheet
		if sheet.Err != nil && !e.KeepGoing {
			return report, fmt.Errorf("%s: %w", sheet.Name, sheet.Err)
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		errs := make([]error, len(failed))
		for i, res := range failed {
			errs[i] = fmt.Errorf("%s: %w", res.Name, res.Err)
		}
		return report, errors.Join(errs...)
	}
	log.Debug("run complete", "artifacts", len(report.Results), "elapsed", time.Since(start))
	return report, nil
}

func (e *Enhancer) load(ctx context.Context) (*imageutil.RGBAImage, string, error) {
	fetchCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	data, err := Fetch(fetchCtx, e.client, e.Source, e.MaxBytes)
	if err != nil {
		return nil, "", err
	}
	return imageutil.Decode(bytes.NewReader(data))
}

func (e *Enhancer) runSequential(
	ctx context.Context,
	src *imageutil.RGBAImage,
	transforms []imageutil.Transform,
	report *Report,
	outputs []*imageutil.RGBAImage,
) error {
	var firstErr error
	for i, t := range transforms {
		if firstErr != nil {
			report.Results[i] = e.skipped(t.Name, firstErr)
			continue
		}
		report.Results[i], outputs[i] = e.produce(ctx, src, t)
		if err := report.Results[i].Err; err != nil && !e.KeepGoing {
			firstErr = fmt.Errorf("%s: %w", t.Name, err)
		}
	}
	return firstErr
}

func (e *Enhancer) runParallel(
	ctx context.Context,
	src *imageutil.RGBAImage,
	transforms []imageutil.Transform,
	report *Report,
	outputs []*imageutil.RGBAImage,
) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range transforms {
		i, t := i, t
		g.Go(func() error {
			report.Results[i], outputs[i] = e.produce(gctx, src, t)
			if err := report.Results[i].Err; err != nil && !e.KeepGoing {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Enhancer) skipped(name string, cause error) Result {
	return Result{
		Name: name,
		Path: e.ArtifactPath(name),
		Err:  fmt.Errorf("%w: %w", ErrSkipped, cause),
	}
}

// produce applies t to src and writes the artifact. src is shared between
// concurrent calls and is only read.
func (e *Enhancer) produce(ctx context.Context, src *imageutil.RGBAImage, t imageutil.Transform) (Result, *imageutil.RGBAImage) {
	if err := ctx.Err(); err != nil {
		return e.skipped(t.Name, err), nil
	}

	start := time.Now()
	res := Result{Name: t.Name, Path: e.ArtifactPath(t.Name)}
	out := t.Apply(src)
	res.Bytes, res.Err = writeArtifact(res.Path, out, e.Format, imageutil.EncodeOptions{Quality: e.Quality})
	res.Duration = time.Since(start)

	if res.Err != nil {
		Logger().Warn("artifact failed", "name", t.Name, "path", res.Path, "err", res.Err)
		return res, nil
	}
	Logger().Info("artifact written", "name", t.Name, "path", res.Path,
		"bytes", res.Bytes, "elapsed", res.Duration)
	return res, out
}

func (e *Enhancer) writeSheet(src *imageutil.RGBAImage, transforms []imageutil.Transform, outputs []*imageutil.RGBAImage) Result {
	start := time.Now()
	res := Result{
		Name: NameContactSheet,
		Path: filepath.Join(e.OutputDir, NameContactSheet+imageutil.FormatPNG.Ext()),
	}

	panels := []Panel{{Label: "original", Image: src}}
	for i, out := range outputs {
		if out != nil {
			panels = append(panels, Panel{Label: transforms[i].Name, Image: out})
		}
	}
	sheet, err := BuildContactSheet(panels, e.ThumbWidth)
	if err == nil {
		res.Bytes, err = writeArtifact(res.Path, sheet, imageutil.FormatPNG, imageutil.EncodeOptions{})
	}
	res.Err = err
	res.Duration = time.Since(start)
	return res
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// writeArtifact encodes img to a temporary file next to path and renames
// it into place, so a failed run never leaves a truncated artifact.
func writeArtifact(path string, img *imageutil.RGBAImage, format imageutil.Format, opts imageutil.EncodeOptions) (int64, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	cw := &countingWriter{w: bw}
	if err := imageutil.Encode(cw, img, format, opts); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return cw.n, nil
}
