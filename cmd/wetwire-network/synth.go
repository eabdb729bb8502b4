package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lex00/wetwire-network-go/internal/config"
	"github.com/lex00/wetwire-network-go/internal/synth"
)

// newLogger logs to stderr so templates on stdout stay clean.
func newLogger(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// synthesize loads the config and runs one synthesis pass.
func synthesize(ctx context.Context, opts *globalOptions) (*synth.Result, error) {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded",
		zap.String("file", opts.configPath),
		zap.String("network", cfg.Network.Name),
		zap.String("cidr", cfg.Network.CIDR))

	return synth.New(logger).Run(ctx, cfg)
}
