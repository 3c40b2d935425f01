package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/batchline/batchline"
	"github.com/batchline/batchline/extractors"
	"github.com/batchline/batchline/loaders"
	"github.com/batchline/batchline/pkg/log"
	"github.com/batchline/batchline/stages"
)

var logger = log.New()

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "batchline",
		Short:         "Run batch ETL pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(runCmd(), validateCmd(), kindsCmd())

	if err := root.Execute(); err != nil {
		logger.Fatal().Err(err).Msg("command failed")
	}
}

func engineLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Run a pipeline until its source drains or the process is stopped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := loadPipeline(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slogger := engineLogger()
			job, err := buildJob(ctx, pipeline, slogger)
			if err != nil {
				return err
			}

			logger.Info().Str("pipeline", pipeline.Name).Msg("starting")
			engine := batchline.NewEngine(stages.Factories(), batchline.WithLog(slogger))
			return engine.Run(ctx, job)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipeline.yaml>",
		Short: "Parse a pipeline definition and resolve every stage config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := loadPipeline(args[0])
			if err != nil {
				return err
			}
			logger.Info().
				Str("pipeline", pipeline.Name).
				Int("stages", len(pipeline.Stages)).
				Msg("pipeline is valid")
			return nil
		},
	}
}

func kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the registered stage kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, kind := range batchline.Kinds() {
				fmt.Println(kind)
			}
			return nil
		},
	}
}

func loadPipeline(path string) (*batchline.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return batchline.LoadPipeline(data)
}

func buildJob(ctx context.Context, p *batchline.Pipeline, slogger *slog.Logger) (*batchline.Job, error) {
	source, err := buildSource(ctx, p, slogger)
	if err != nil {
		return nil, err
	}
	sink, err := buildSink(ctx, p, slogger)
	if err != nil {
		return nil, err
	}
	return &batchline.Job{
		Name:     p.Name,
		Source:   source,
		Stages:   p.Stages,
		Sink:     sink,
		Interval: p.Interval,
		MaxTicks: p.MaxTicks,
	}, nil
}

func buildSource(ctx context.Context, p *batchline.Pipeline, slogger *slog.Logger) (batchline.Extractor, error) {
	opts := p.Source.Options
	switch p.Source.Type {
	case "fixed":
		ticks := 1
		if v, ok := opts["ticks"]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("source fixed: bad ticks %q", v)
			}
			ticks = n
		}
		field := opts["field"]
		if field == "" {
			field = "line"
		}
		return batchline.NewFixed(field, strings.Split(opts["content"], "\n"), ticks), nil
	case "kafka":
		return extractors.NewKafka(
			strings.Split(opts["brokers"], ","),
			opts["group"],
			opts["topic"],
			slogger.With("source", "kafka"),
		)
	case "s3":
		return extractors.NewS3(ctx, opts["bucket"], opts["key"], slogger.With("source", "s3"))
	default:
		return nil, fmt.Errorf("unknown source type %q", p.Source.Type)
	}
}

func buildSink(ctx context.Context, p *batchline.Pipeline, slogger *slog.Logger) (batchline.Loader, error) {
	opts := p.Sink.Options
	switch p.Sink.Type {
	case "", "discard":
		return batchline.Discard{}, nil
	case "stdout":
		return loaders.NewStdout(), nil
	case "kafka":
		return loaders.NewKafka(
			strings.Split(opts["brokers"], ","),
			opts["topic"],
			slogger.With("sink", "kafka"),
		)
	case "postgres":
		return loaders.NewPostgres(ctx, opts["dsn"], opts["table"], slogger.With("sink", "postgres"))
	default:
		return nil, fmt.Errorf("unknown sink type %q", p.Sink.Type)
	}
}
