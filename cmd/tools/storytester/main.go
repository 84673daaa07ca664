package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/mood-story/backend/internal/config"
	"github.com/zhouzirui/mood-story/backend/internal/logging"
	"github.com/zhouzirui/mood-story/backend/internal/service/history"
	"github.com/zhouzirui/mood-story/backend/internal/service/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Warn("failed to load .env file, continuing with system environment variables only")
	}

	text := flag.String("prompt", "", "prompt to turn into a story")
	runs := flag.Int("n", 1, "number of generations to run with the same prompt")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall timeout")
	newest := flag.Bool("newest", false, "print history most recent first")
	flag.Parse()

	if *runs < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		logrus.WithError(err).Fatal("failed to configure logging")
	}
	// Records go to stdout; keep logs off it.
	logrus.SetOutput(os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, *text, *runs, *newest); err != nil {
		logrus.WithError(err).Error(pipeline.Describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, text string, runs int, newest bool) error {
	orch, classifier, err := pipeline.FromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	logging.For("storytester").WithField("classifier", classifier.Provider()).Info("pipeline ready")

	h := history.New()
	for i := 0; i < runs; i++ {
		start := time.Now()
		if _, err := orch.Generate(ctx, h, text, func(s pipeline.State) {
			logging.For("storytester").WithField("run", i+1).Debugf("state %s", s)
		}); err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		logging.For("storytester").WithFields(logrus.Fields{
			"run":      i + 1,
			"duration": time.Since(start).String(),
		}).Info("generation finished")
	}

	records := h.All()
	if newest {
		records = h.Newest()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}
