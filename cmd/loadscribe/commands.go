package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"
	"github.com/loadscribe/loadscribe/internal/api"
	"github.com/loadscribe/loadscribe/internal/artifact"
	"github.com/loadscribe/loadscribe/internal/capture"
	"github.com/loadscribe/loadscribe/internal/config"
	"github.com/loadscribe/loadscribe/internal/generator"
	"github.com/loadscribe/loadscribe/internal/grouping"
	"github.com/loadscribe/loadscribe/internal/insight"
	"github.com/loadscribe/loadscribe/internal/jmx"
	"github.com/loadscribe/loadscribe/internal/models"
	"github.com/loadscribe/loadscribe/internal/report"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func runGenerate(c *cli.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg := config.Load()

	inputPath := c.String("input")
	title := c.String("title")
	strategyName := c.String("strategy")

	// Missing required inputs fall back to interactive prompts.
	if inputPath == "" {
		if err := survey.AskOne(&survey.Input{Message: "Path to HAR or OpenAPI file:"}, &inputPath, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}
	if title == "" {
		if err := survey.AskOne(&survey.Input{Message: "Test plan title:", Default: "Generated Load Test"}, &title); err != nil {
			return err
		}
	}
	if strategyName == "" {
		if err := survey.AskOne(&survey.Select{
			Message: "Grouping strategy:",
			Options: grouping.Strategies(),
			Default: string(grouping.ByFirstPathSegment),
		}, &strategyName); err != nil {
			return err
		}
	}
	strategy, err := grouping.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	gen := generator.New(insight.NewManager(cfg, logger), logger)
	doc, err := gen.Generate(c.Context, generator.Request{
		Content:  content,
		Title:    title,
		Strategy: strategy,
		BaseURL:  c.String("base-url"),
		Profile: models.LoadProfile{
			ThreadCount:     c.Int("threads"),
			RampUpSeconds:   c.Int("rampup"),
			DurationSeconds: c.Int("duration"),
			LoopCount:       c.Int("loops"),
			ContinueForever: c.Bool("forever"),
		},
		Flags: jmx.Flags{
			IncludeAssertions:            c.Bool("assertions"),
			IncludeCorrelationExtractors: c.Bool("extractors"),
			IncludeExternalDataSource:    c.Bool("datasource"),
		},
		UseAI:        c.Bool("ai"),
		ParseOptions: capture.Options{IncludeHeadOptions: cfg.IncludeHeadOptions},
	})
	if err != nil {
		return err
	}

	if err := writeOutput(c.String("output"), doc.XML); err != nil {
		return err
	}
	logger.Info("test plan generated",
		zap.Int("operations", doc.Summary.OperationCount),
		zap.Strings("methods", doc.Summary.Methods),
		zap.String("insightSource", doc.Insight.Source))

	if project := c.String("upload-project"); project != "" {
		store, err := artifact.NewStore(c.Context, cfg.ArtifactBucket, cfg.AWSRegion)
		if err != nil {
			return err
		}
		key, err := store.Put(c.Context, project, uuid.NewString(), doc.XML)
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded plan to %s\n", key)
	}
	return nil
}

func runInsight(c *cli.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg := config.Load()

	content, err := os.ReadFile(c.String("input"))
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	parsed, err := capture.Parse(content, capture.Options{IncludeHeadOptions: cfg.IncludeHeadOptions})
	if err != nil {
		return err
	}

	ai := insight.NewManager(cfg, logger).Analyze(c.Context, parsed.Operations)
	out, err := json.MarshalIndent(ai, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runRepair(c *cli.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg := config.Load()

	doc, err := os.ReadFile(c.String("plan"))
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}
	var input []byte
	if path := c.String("input"); path != "" {
		if input, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}

	gen := generator.New(nil, logger)
	repaired := gen.Repair(string(doc), input,
		jmx.Flags{IncludeExternalDataSource: c.Bool("datasource")},
		capture.Options{IncludeHeadOptions: cfg.IncludeHeadOptions})
	return writeOutput(c.String("output"), repaired)
}

func runServe(c *cli.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	cfg := config.Load()

	insights := insight.NewManager(cfg, logger)
	gen := generator.New(insights, logger)

	var reports *report.Service
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
		defer cancel()
		store, err := report.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.CreateTables(ctx); err != nil {
			return err
		}
		reports = report.NewService(store, insight.FirstAvailableProvider(cfg), logger)
	} else {
		logger.Warn("no database configured, report endpoints disabled")
	}

	server := api.NewServer(cfg, logger, gen, reports)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}

func writeOutput(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
