package twx

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/internal/extract"
)

type AnalyzeOptions struct {
	// Scan is copied for every file. Predicate and Sink are ignored.
	Scan     extract.Options
	Scoring  analysis.Scoring
	Prefixes map[string]string
	// Workers bounds the number of files scanned at once. Zero means one per CPU.
	Workers int
}

type FileResult struct {
	Path     string           `json:"path"`
	Category string           `json:"category"`
	Report   *analysis.Report `json:"report,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type Summary struct {
	Root          string         `json:"root"`
	Files         int            `json:"files"`
	Failed        int            `json:"failed"`
	TotalElements int            `json:"totalElements"`
	MaxDepth      int            `json:"maxDepth"`
	TaskCount     int            `json:"taskCount"`
	Bindings      int            `json:"distinctBindings"`
	Categories    map[string]int `json:"categories"`
	Tiers         map[string]int `json:"tiers"`
	MostComplex   string         `json:"mostComplex,omitempty"`
	HighestScore  float64        `json:"highestScore"`
	Results       []FileResult   `json:"results"`
}

type source struct {
	name string
	open func() (io.ReadCloser, error)
}

// AnalyzeDir scans every .xml file below root. Each file gets its own scan
// with no shared state; files that fail are recorded in their result.
func AnalyzeDir(ctx context.Context, root string, opts AnalyzeOptions) (*Summary, error) {
	var sources []source
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".xml") {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		sources = append(sources, source{
			name: filepath.ToSlash(rel),
			open: func() (io.ReadCloser, error) { return os.Open(p) },
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analyze(ctx, root, sources, opts)
}

// AnalyzeArchive scans the XML entries of a TWX archive without unpacking it.
func AnalyzeArchive(ctx context.Context, archive string, opts AnalyzeOptions) (*Summary, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var sources []source
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".xml") {
			continue
		}
		sources = append(sources, source{name: f.Name, open: f.Open})
	}
	return analyze(ctx, archive, sources, opts)
}

func analyze(ctx context.Context, root string, sources []source, opts AnalyzeOptions) (*Summary, error) {
	if opts.Prefixes == nil {
		opts.Prefixes = DefaultPrefixes()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	slices.SortFunc(sources, func(a, b source) int { return strings.Compare(a.name, b.name) })

	results := make([]FileResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			results[i] = scanOne(gctx, src, opts)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summarize(root, results), nil
}

func scanOne(ctx context.Context, src source, opts AnalyzeOptions) FileResult {
	category, _ := Categorize(src.name, opts.Prefixes)
	res := FileResult{Path: src.name, Category: category}

	rc, err := src.open()
	if err != nil {
		res.Error = fmt.Errorf("%w: %w", extract.ErrSourceUnavailable, err).Error()
		return res
	}
	defer rc.Close()

	scan := opts.Scan
	scan.Predicate = nil
	scan.Sink = nil
	scan.SourcePath = src.name

	out, err := extract.Scan(ctx, rc, scan)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Report = analysis.Build(out, opts.Scoring)
	return res
}

func summarize(root string, results []FileResult) *Summary {
	s := &Summary{
		Root:       root,
		Files:      len(results),
		Categories: make(map[string]int),
		Tiers:      make(map[string]int),
		Results:    results,
	}
	bindings := make(map[string]struct{})
	for _, r := range results {
		s.Categories[r.Category]++
		if r.Report == nil {
			s.Failed++
			continue
		}
		rep := r.Report
		s.TotalElements += rep.TotalElements
		s.TaskCount += rep.TaskCount
		s.MaxDepth = max(s.MaxDepth, rep.MaxDepth)
		s.Tiers[rep.Tier.String()]++
		for _, b := range rep.Bindings {
			bindings[b] = struct{}{}
		}
		if s.MostComplex == "" || rep.Score > s.HighestScore {
			s.MostComplex = r.Path
			s.HighestScore = rep.Score
		}
	}
	s.Bindings = len(bindings)
	return s
}
