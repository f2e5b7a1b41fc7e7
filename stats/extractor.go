package stats

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/prefetchsweep/sweep"
)

// Builder can be used to build an Extractor.
type Builder struct {
	layout      sweep.Layout
	cycles      CycleModel
	parallelism int
	logger      *slog.Logger
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		cycles:      FixedRatio{TicksPerCycle: DefaultTicksPerCycle},
		parallelism: 1,
		logger:      slog.Default(),
	}
}

// WithLayout sets where the reports are found.
func (b Builder) WithLayout(l sweep.Layout) Builder {
	b.layout = l
	return b
}

// WithCycleModel sets how ticks are converted into cycles.
func (b Builder) WithCycleModel(m CycleModel) Builder {
	b.cycles = m
	return b
}

// WithParallelism sets how many reports are read at the same time.
func (b Builder) WithParallelism(n int) Builder {
	b.parallelism = n
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.layout.OutputRoot == "" {
		panic("output root is not set")
	}

	if b.cycles == nil {
		panic("cycle model is not set")
	}
}

// Build builds the Extractor.
func (b Builder) Build() *Extractor {
	b.parametersMustBeValid()

	parallelism := b.parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		layout:      b.layout,
		cycles:      b.cycles,
		parallelism: parallelism,
		logger:      logger,
	}
}

// An Extractor reads the reports of a sweep into rows.
type Extractor struct {
	layout      sweep.Layout
	cycles      CycleModel
	parallelism int
	logger      *slog.Logger
}

// ExtractRow reads the report of one configuration.
func (e *Extractor) ExtractRow(k sweep.Key) Row {
	path := e.layout.ReportPath(k)

	src, err := Open(path)
	if err != nil {
		e.logger.Debug("report not readable", "key", k.String(), "path", path, "err", err)
	}

	return newRow(k, src, e.cycles)
}

// Extract reads the reports of all keys. Rows come back in key order no
// matter how many reports are read at once.
func (e *Extractor) Extract(ctx context.Context, keys []sweep.Key) ([]Row, error) {
	rows := make([]Row, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, k := range keys {
		if gctx.Err() != nil {
			break
		}

		i, k := i, k

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rows[i] = e.ExtractRow(k)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := Summarize(rows)
	e.logger.Info("statistics extracted",
		"rows", s.Rows,
		"complete", s.Complete,
		"unreadable", s.Unreadable,
		"incomplete", s.Incomplete,
		"undefined_cpi", s.UndefinedCPI)

	return rows, nil
}
