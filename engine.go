package batchline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// StageFactory constructs a fresh stage instance for one pipeline slot.
type StageFactory func() Transformer

// Stage pairs a resolved config with its kind. The config is decoded once
// at pipeline load and reused for every batch.
type Stage struct {
	Kind   Kind
	Config StageConfig
}

// Job is one runnable pipeline: a source, an ordered stage list and a sink.
type Job struct {
	Name     string
	Source   Extractor
	Stages   []Stage
	Sink     Loader
	Interval time.Duration
	// MaxTicks bounds the number of batches the job processes; 0 means
	// until the source drains or the context is cancelled.
	MaxTicks int
}

// Engine drives jobs. Each job runs in its own goroutine; within a job the
// stage lifecycle is strictly sequential: Init once, Transform per tick,
// Close exactly once.
type Engine struct {
	factories map[Kind]StageFactory
	log       *slog.Logger
	interval  time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLog sets the engine logger.
var WithLog = func(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTickInterval sets the default pause between batches for jobs that do
// not set their own.
var WithTickInterval = func(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// NewEngine creates an engine over the given stage factory table. The table
// is not copied and must not be mutated after this call.
func NewEngine(factories map[Kind]StageFactory, opts ...Option) *Engine {
	e := &Engine{
		factories: factories,
		log:       NullLogger(),
		interval:  time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes all jobs concurrently and blocks until every job finished or
// one failed. Cancelling the context stops the tick loops; Close still runs
// for every initialized stage.
func (e *Engine) Run(ctx context.Context, jobs ...*Job) error {
	grp, ctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		grp.Go(func() error {
			return e.runJob(ctx, job)
		})
	}
	return grp.Wait()
}

func (e *Engine) runJob(ctx context.Context, job *Job) (err error) {
	log := e.log.With("job", job.Name)

	// The source and sink are closed on every exit path, including a factory
	// table miss below; only initialized stages get a Close call.
	instances := make([]Transformer, len(job.Stages))
	initialized := 0
	defer func() {
		for i := initialized - 1; i >= 0; i-- {
			stageLog := log.With("stage", string(job.Stages[i].Kind))
			if closeErr := instances[i].Close(ctx, job.Stages[i].Config, stageLog); closeErr != nil {
				stageLog.Error("stage close failed", "error", closeErr)
				err = multierr.Append(err, closeErr)
			}
		}
		err = multierr.Append(err, job.Source.Close(ctx))
		err = multierr.Append(err, job.Sink.Close(ctx))
	}()

	for i, stage := range job.Stages {
		factory, ok := e.factories[stage.Kind]
		if !ok {
			return fmt.Errorf("job %q: no stage registered for kind %q", job.Name, stage.Kind)
		}
		instances[i] = factory()
	}

	for i, stage := range job.Stages {
		stageLog := log.With("stage", string(stage.Kind))
		if initErr := instances[i].Init(ctx, stage.Config, stageLog); initErr != nil {
			return fmt.Errorf("job %q: init stage %q: %w", job.Name, stage.Kind, initErr)
		}
		initialized++
	}

	interval := job.Interval
	if interval <= 0 {
		interval = e.interval
	}

	ticks := 0
	for {
		if job.MaxTicks > 0 && ticks >= job.MaxTicks {
			log.Info("job finished", "ticks", ticks)
			return nil
		}

		batch, extractErr := job.Source.Extract(ctx)
		if extractErr != nil {
			if errors.Is(extractErr, ErrSourceDrained) {
				log.Info("source drained", "ticks", ticks)
				return nil
			}
			return fmt.Errorf("job %q: extract: %w", job.Name, extractErr)
		}

		for i, stage := range job.Stages {
			stageLog := log.With("stage", string(stage.Kind))
			batch, err = instances[i].Transform(ctx, batch, stage.Config, stageLog)
			if err != nil {
				// A failed transform discards the whole batch attempt;
				// there is no partial-batch recovery.
				return fmt.Errorf("job %q: stage %q: %w", job.Name, stage.Kind, err)
			}
		}

		if loadErr := job.Sink.Load(ctx, batch); loadErr != nil {
			return fmt.Errorf("job %q: load: %w", job.Name, loadErr)
		}
		ticks++

		select {
		case <-ctx.Done():
			log.Info("job stopped", "ticks", ticks)
			return nil
		case <-time.After(interval):
		}
	}
}

// NullWriter is a writer that discards all data.
type NullWriter struct{}

func (NullWriter) Write(p []byte) (int, error) { return len(p), nil }

// NullLogger creates a logger that discards all output.
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(NullWriter{}, nil))
}
