// Package batch drives the canonicalization pipeline over a directory of
// mined patterns. Patterns are independent, so the runner fans them out
// to a bounded worker pool; one pattern failing is logged and counted,
// never fatal to the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/changemine/patcanon/internal/observability"
	"github.com/changemine/patcanon/internal/pattern"
	"github.com/changemine/patcanon/internal/sample"
	"github.com/changemine/patcanon/pkg/graph"
	"github.com/changemine/patcanon/pkg/graph/dot"
)

// tracerName is the OTel tracer scope for pipeline spans.
const tracerName = "patcanon"

// fragmentPattern selects the mined fragment graphs in a pattern directory.
const fragmentPattern = "fragment-*.dot"

// ErrNoPatterns indicates the source directory holds no pattern
// subdirectories.
var ErrNoPatterns = errors.New("no pattern directories found")

// Options configures a batch run.
type Options struct {
	// Workers bounds pattern-level concurrency. Zero means one worker
	// per CPU.
	Workers int

	// IsoBudget caps each isomorphism search. Zero means the oracle
	// default.
	IsoBudget int

	// Describe enables the per-pattern description artifact.
	Describe bool

	// Decider resolves variable matching modes. Nil means the automatic
	// heuristic.
	Decider pattern.Decider

	// Metrics receives per-stage and per-pattern instruments when set.
	Metrics *observability.RunMetrics

	// Logger receives per-pattern outcome lines. Nil means slog.Default.
	Logger *slog.Logger

	// Tracer emits one span per pipeline stage. Nil falls back to the
	// global tracer provider.
	Tracer trace.Tracer
}

// Result is the outcome of one pattern.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration

	// Fragments, Samples, Vertices, and Actions summarize the finished
	// pattern; zero when the pattern failed before the relevant stage.
	Fragments int
	Samples   int
	Vertices  int
	Actions   int
}

// Summary aggregates a finished batch.
type Summary struct {
	Results   []Result
	Processed int
	Failed    int
	Elapsed   time.Duration
}

// Runner processes pattern directories through the canonicalization
// pipeline.
type Runner struct {
	opts Options
}

// NewRunner returns a runner with the given options.
func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts}
}

// Run processes every pattern subdirectory of sourceDir and writes one
// output subdirectory per pattern under destDir. Per-pattern failures
// are recorded in the summary, not returned; Run errs only when the
// source directory itself is unusable.
func (r *Runner) Run(ctx context.Context, sourceDir, destDir string) (*Summary, error) {
	names, err := patternDirs(sourceDir)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if workers > len(names) {
		workers = len(names)
	}

	jobs := make(chan string)
	results := make(chan Result)

	for range workers {
		go func() {
			for name := range jobs {
				results <- r.process(ctx, name, filepath.Join(sourceDir, name), destDir)
			}
		}()
	}

	go func() {
		for _, name := range names {
			jobs <- name
		}

		close(jobs)
	}()

	summary := &Summary{Results: make([]Result, 0, len(names))}

	for range names {
		res := <-results
		summary.Results = append(summary.Results, res)

		if res.Err != nil {
			summary.Failed++
			r.logger().Error("pattern failed", "pattern", res.Name, "error", res.Err)
		} else {
			summary.Processed++
			r.logger().Info("pattern canonicalized",
				"pattern", res.Name,
				"actions", res.Actions,
				"vertices", res.Vertices,
				"duration", res.Duration.Round(time.Millisecond).String())
		}
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Name < summary.Results[j].Name
	})

	summary.Elapsed = time.Since(start)

	return summary, nil
}

// process runs the full pipeline for one pattern directory.
func (r *Runner) process(ctx context.Context, name, srcDir, destDir string) Result {
	start := time.Now()

	if r.opts.Metrics != nil {
		done := r.opts.Metrics.TrackInflight(ctx)
		defer done()
	}

	c, err := r.pipeline(ctx, name, srcDir, destDir)

	res := Result{Name: name, Err: err, Duration: time.Since(start)}

	if err == nil {
		res.Fragments = c.FragmentCount
		res.Samples = c.SampleCount
		res.Vertices = c.Canonical.Len()
		res.Actions = len(c.Actions)
	}

	if r.opts.Metrics != nil {
		status := observability.StatusOK
		if err != nil {
			status = observability.StatusError
		}

		r.opts.Metrics.RecordPattern(ctx, status)
	}

	return res
}

func (r *Runner) pipeline(ctx context.Context, name, srcDir, destDir string) (*pattern.Context, error) {
	fragments, err := loadFragments(srcDir)
	if err != nil {
		return nil, err
	}

	samples, err := sample.LoadDir(srcDir)
	if err != nil {
		return nil, err
	}

	c := pattern.NewContext(name)
	c.IsoBudget = r.opts.IsoBudget

	decider := r.opts.Decider
	if decider == nil {
		decider = pattern.AutoDecider{}
	}

	stages := []struct {
		name string
		run  func() error
	}{
		{"canonicalize", func() error { return c.Canonicalize(fragments) }},
		{"classify", func() error { return c.Classify(decider) }},
		{"align", func() error { return c.Align(ctx, samples) }},
		{"correspond", func() error { return c.BuildCorrespondence() }},
		{"extend", func() error { return c.Extend() }},
		{"sequence", func() error { c.Sequence(); return nil }},
		{"serialize", func() error {
			if r.opts.Describe {
				c.Describe(samples[0])
			}

			return c.Serialize(destDir)
		}},
	}

	for _, st := range stages {
		if stageErr := r.stage(ctx, name, st.name, st.run); stageErr != nil {
			return nil, fmt.Errorf("%s: %w", st.name, stageErr)
		}
	}

	return c, nil
}

// stage runs one pipeline stage under a span, recording its duration.
func (r *Runner) stage(ctx context.Context, patternName, stageName string, run func() error) error {
	ctx, span := r.tracer().Start(ctx, "patcanon."+stageName,
		trace.WithAttributes(attribute.String("pattern", patternName)))
	defer span.End()

	start := time.Now()
	err := run()

	if r.opts.Metrics != nil {
		r.opts.Metrics.RecordStage(ctx, stageName, time.Since(start), err != nil)
	}

	if err != nil {
		span.RecordError(err)
	}

	return err
}

func (r *Runner) tracer() trace.Tracer {
	if r.opts.Tracer != nil {
		return r.opts.Tracer
	}

	return otel.Tracer(tracerName)
}

func (r *Runner) logger() *slog.Logger {
	if r.opts.Logger != nil {
		return r.opts.Logger
	}

	return slog.Default()
}

// patternDirs lists the pattern subdirectories of sourceDir, sorted.
func patternDirs(sourceDir string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", sourceDir, ErrNoPatterns)
	}

	sort.Strings(names)

	return names, nil
}

// loadFragments decodes the fragment graphs of one pattern directory in
// file-name order.
func loadFragments(dir string) ([]*graph.PatternGraph, error) {
	paths, err := filepath.Glob(filepath.Join(dir, fragmentPattern))
	if err != nil {
		return nil, fmt.Errorf("glob fragments: %w", err)
	}

	sort.Strings(paths)

	fragments := make([]*graph.PatternGraph, 0, len(paths))

	for _, path := range paths {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read fragment: %w", readErr)
		}

		g, decodeErr := dot.Decode(data)
		if decodeErr != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), decodeErr)
		}

		fragments = append(fragments, g)
	}

	if len(fragments) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, pattern.ErrNoFragments)
	}

	return fragments, nil
}
