// Package pipeline runs one full link normalization pass: load the catalog,
// load the redirects, then stream the links through the resolver into the
// resolved and unmatched outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/catalog"
	"github.com/starford/linkgraph/internal/checksum"
	"github.com/starford/linkgraph/internal/codec"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/models"
	"github.com/starford/linkgraph/internal/redirect"
	"github.com/starford/linkgraph/internal/resolver"
	"github.com/starford/linkgraph/internal/tsv"
)

// Inputs names the three dump files and the unmatched-targets destination.
type Inputs struct {
	Pages     string `yaml:"pages"`
	Redirects string `yaml:"redirects"`
	Links     string `yaml:"links"`
	Unmatched string `yaml:"unmatched"`
}

// Compressed is the validation rule for every dump file path.
var Compressed = validation.By(func(value any) error {
	s, _ := value.(string)
	if s != "" && !codec.HasSuffix(s) {
		return fmt.Errorf("must be zstandard compressed (%s)", codec.Suffix)
	}
	return nil
})

// Validate checks that every path is set and that the inputs are compressed.
// The unmatched destination is always written compressed, whatever its name.
func (in *Inputs) Validate() error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.Pages, validation.Required, Compressed),
		validation.Field(&in.Redirects, validation.Required, Compressed),
		validation.Field(&in.Links, validation.Required, Compressed),
		validation.Field(&in.Unmatched, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}
	return nil
}

// Files returns the three input paths.
func (in *Inputs) Files() []string {
	return []string{in.Pages, in.Redirects, in.Links}
}

// Options controls where a run writes.
type Options struct {
	// Output receives resolved edges. Required.
	Output io.Writer
	// Export, if set, receives the whole run inside one transaction.
	Export *index.DB
	Logger *slog.Logger
}

// Summary describes a finished run.
type Summary struct {
	Pages           int            `json:"pages"`
	Titles          int            `json:"titles"`
	Redirects       int            `json:"redirects"`
	Links           resolver.Stats `json:"links"`
	ResolvedDigest  string         `json:"resolved_digest"`
	UnmatchedDigest string         `json:"unmatched_digest"`
	Duration        time.Duration  `json:"duration"`
}

// Run executes one pass. Both indexes are fully built before the first link
// is read. The unmatched file is published only if the whole run succeeds.
func Run(ctx context.Context, in Inputs, opts Options) (Summary, error) {
	var sum Summary
	if err := in.Validate(); err != nil {
		return sum, err
	}
	if opts.Output == nil {
		return sum, errors.New("pipeline: output is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	var exp *index.Export
	if opts.Export != nil {
		var err error
		if exp, err = opts.Export.BeginExport(); err != nil {
			return sum, err
		}
		defer exp.Rollback()
	}

	cat, err := loadCatalog(in.Pages, exp)
	if err != nil {
		return sum, err
	}
	sum.Pages, sum.Titles = cat.Len(), cat.TitleCount()
	logger.Info("catalog loaded",
		slog.String("path", in.Pages),
		slog.Int("pages", sum.Pages),
		slog.Int("titles", sum.Titles))

	red, err := loadRedirects(in.Redirects, exp)
	if err != nil {
		return sum, err
	}
	sum.Redirects = red.Len()
	logger.Info("redirects loaded",
		slog.String("path", in.Redirects),
		slog.Int("redirects", sum.Redirects))

	unmatchedOut, err := openFile(in.Unmatched, true)
	if err != nil {
		return sum, fmt.Errorf("pipeline: open unmatched output: %w", err)
	}
	defer unmatchedOut.Abort()

	unmatchedSum := checksum.NewWriter(unmatchedOut)
	unmatchedW := tsv.NewWriter(unmatchedSum)
	if err := unmatchedW.WriteLine(tsv.UnmatchedHeader); err != nil {
		return sum, err
	}

	resolvedSum := checksum.NewWriter(opts.Output)
	resolvedW := tsv.NewWriter(resolvedSum)

	var sink resolver.Sink = writerSink{resolved: resolvedW, unmatched: unmatchedW}
	if exp != nil {
		sink = resolver.MultiSink{sink, exp}
	}

	lr, err := codec.Open(in.Links)
	if err != nil {
		return sum, err
	}
	defer lr.Close()

	sum.Links, err = resolver.New(cat, red).Stream(ctx, tsv.Links(lr, in.Links), sink)
	// Whatever was resolved before a failure still reaches the primary output.
	if flushErr := resolvedW.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		return sum, err
	}

	if err := unmatchedW.Flush(); err != nil {
		return sum, err
	}
	if err := unmatchedOut.Commit(); err != nil {
		return sum, fmt.Errorf("pipeline: publish unmatched output: %w", err)
	}
	if exp != nil {
		if err := exp.Commit(); err != nil {
			return sum, err
		}
	}

	sum.ResolvedDigest = resolvedSum.Sum()
	sum.UnmatchedDigest = unmatchedSum.Sum()
	sum.Duration = time.Since(start)

	logger.Info("links resolved",
		slog.String("path", in.Links),
		slog.Int("links", sum.Links.Links),
		slog.Int("resolved", sum.Links.Resolved),
		slog.Int("unmatched", sum.Links.Unmatched),
		slog.Int("self_links", sum.Links.SelfLinks),
		slog.Int("dropped", sum.Links.Dropped),
		slog.String("resolved_sha256", sum.ResolvedDigest),
		slog.String("unmatched_sha256", sum.UnmatchedDigest),
		slog.String("duration", sum.Duration.String()))

	return sum, nil
}

func loadCatalog(path string, exp *index.Export) (*catalog.Catalog, error) {
	r, err := codec.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	pages := tsv.Pages(r, path)
	if exp != nil {
		pages = tee(pages, exp.AddPage)
	}
	return catalog.Load(pages)
}

func loadRedirects(path string, exp *index.Export) (*redirect.Index, error) {
	r, err := codec.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	redirects := tsv.Redirects(r, path)
	if exp != nil {
		redirects = tee(redirects, exp.AddRedirect)
	}
	return redirect.Load(redirects)
}

// tee passes every value through fn before yielding it. An fn error is
// yielded in place of the value and ends the sequence.
func tee[T any](seq iter.Seq2[T, error], fn func(T) error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v, err := range seq {
			if err == nil {
				err = fn(v)
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// writerSink formats emissions as TSV lines.
type writerSink struct {
	resolved  *tsv.Writer
	unmatched *tsv.Writer
}

func (s writerSink) Resolved(l models.ResolvedLink) error {
	return s.resolved.Write(l.SourceID, l.TargetID)
}

func (s writerSink) Unmatched(u models.UnmatchedTarget) error {
	return s.unmatched.Write(u.SourceID, u.TargetTitle)
}
