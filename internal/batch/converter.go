// Package batch turns an exercise catalog into audio files, one exercise at
// a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shortnotes/audiogen/internal/exercise"
	"github.com/shortnotes/audiogen/internal/synth"
)

// Options controls a batch run.
type Options struct {
	// OutDir receives the audio files, defaults to the working directory
	OutDir string

	// Language code sent to the provider, defaults to "en"
	Language string

	// Slow requests slower speech
	Slow bool

	// KeepGoing continues with the remaining exercises after a failure
	// instead of aborting the run.
	KeepGoing bool

	// Atomic writes into a staging directory and only moves the files into
	// OutDir when every exercise succeeded. It implies aborting on the
	// first failure.
	Atomic bool
}

// FileInfo describes an audio file found after a run.
type FileInfo struct {
	Filename string
	Path     string
	Size     int64
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Total    int
	Written  []string // Filenames written by this run, in order
	Failed   []*Error // Per-exercise failures
	Files    []FileInfo
	Duration time.Duration
}

// Partial reports whether some but not all exercises were written.
func (r *Result) Partial() bool {
	return len(r.Written) > 0 && len(r.Written) < r.Total
}

// Converter synthesizes every exercise of a catalog and stores the audio.
type Converter struct {
	catalog  exercise.Catalog
	synth    synth.Synthesizer
	reporter Reporter
	opts     Options
	logger   *log.Logger
}

// New creates a converter. A nil reporter discards progress output.
func New(catalog exercise.Catalog, s synth.Synthesizer, reporter Reporter, opts Options) *Converter {
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if opts.Language == "" {
		opts.Language = synth.DefaultLanguage
	}
	if reporter == nil {
		reporter = Discard
	}
	return &Converter{
		catalog:  catalog,
		synth:    s,
		reporter: reporter,
		opts:     opts,
		logger:   log.Default(),
	}
}

// WithLogger replaces the logger used for diagnostics.
func (c *Converter) WithLogger(l *log.Logger) *Converter {
	c.logger = l
	return c
}

// Run converts the catalog. The returned error is a *Error (or a join of
// them with KeepGoing); the Result is always non-nil.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Total: c.catalog.Len()}
	logger := c.logger.With("run", res.RunID)

	fail := func(err error) (*Result, error) {
		res.Duration = time.Since(start)
		logger.Error("Batch failed", "err", err, "written", len(res.Written))
		c.reporter.Failed(err)
		return res, err
	}

	if err := c.catalog.Validate(); err != nil {
		return fail(&Error{Kind: KindInvalid, Cause: err})
	}
	if err := c.synth.Validate(); err != nil {
		return fail(&Error{Kind: KindUnavailable, Cause: err})
	}

	dir := c.opts.OutDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(&Error{Kind: KindWrite, Cause: fmt.Errorf("unable to create output directory: %w", err)})
	}

	var staging string
	if c.opts.Atomic {
		staging = filepath.Join(dir, ".audiogen-"+res.RunID)
		if err := os.Mkdir(staging, 0o755); err != nil {
			return fail(&Error{Kind: KindWrite, Cause: fmt.Errorf("unable to create staging directory: %w", err)})
		}
		defer os.RemoveAll(staging) //nolint:errcheck
		dir = staging
	}

	logger.Info("Starting batch",
		"provider", c.synth.Name(), "exercises", res.Total,
		"out", c.opts.OutDir, "lang", c.opts.Language, "slow", c.opts.Slow,
		"keep_going", c.opts.KeepGoing, "atomic", c.opts.Atomic)
	c.reporter.Start(c.catalog.Title(), res.Total)

	abort := !c.opts.KeepGoing || c.opts.Atomic
	for _, ex := range c.catalog.Exercises() {
		if err := ctx.Err(); err != nil {
			return fail(&Error{Kind: KindCanceled, Filename: ex.Filename, Cause: err})
		}

		c.reporter.Creating(ex)
		if err := c.convert(ctx, logger, dir, ex); err != nil {
			if abort {
				return fail(err)
			}
			res.Failed = append(res.Failed, err)
			c.reporter.ItemFailed(ex, err)
			continue
		}
		res.Written = append(res.Written, ex.Filename)
		c.reporter.Generated(ex)
	}

	if c.opts.Atomic {
		if err := commit(staging, c.opts.OutDir, res.Written); err != nil {
			return fail(err)
		}
	}

	res.Files = Scan(c.opts.OutDir, c.catalog.Filenames())
	res.Duration = time.Since(start)
	logger.Info("Batch finished", "written", len(res.Written), "failed", len(res.Failed), "duration", res.Duration)
	c.reporter.Finished(res)

	if len(res.Failed) > 0 {
		errs := make([]error, len(res.Failed))
		for i, e := range res.Failed {
			errs[i] = e
		}
		err := errors.Join(errs...)
		c.reporter.Failed(err)
		return res, err
	}
	return res, nil
}

func (c *Converter) convert(ctx context.Context, logger *log.Logger, dir string, ex exercise.Exercise) *Error {
	start := time.Now()
	audio, err := c.synth.Synthesize(ctx, synth.Request{
		Text:     ex.Text,
		Language: c.opts.Language,
		Slow:     c.opts.Slow,
	})
	if err != nil {
		kind := KindSynthesis
		if ctx.Err() != nil {
			kind = KindCanceled
		}
		return &Error{Kind: kind, Filename: ex.Filename, Cause: err}
	}

	path := filepath.Join(dir, ex.Filename)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return &Error{Kind: KindWrite, Filename: ex.Filename, Cause: err}
	}

	logger.Debug("Wrote exercise audio", "file", path, "bytes", len(audio), "took", time.Since(start))
	return nil
}

// commit moves staged files into dir.
func commit(staging, dir string, names []string) error {
	for _, name := range names {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(dir, name)); err != nil {
			return &Error{Kind: KindCommit, Filename: name, Cause: err}
		}
	}
	return nil
}

// Scan returns the regular files among names that exist in dir. Missing
// files are skipped.
func Scan(dir string, names []string) []FileInfo {
	var files []FileInfo
	for _, name := range names {
		path := filepath.Join(dir, name)
		st, err := os.Stat(path)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{Filename: name, Path: path, Size: st.Size()})
	}
	return files
}
