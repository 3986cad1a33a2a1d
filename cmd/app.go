package cmd

import (
	"fmt"

	"github.com/naka-gawa/pr-size-audit/internal/config"
	"github.com/naka-gawa/pr-size-audit/internal/domain"
	"github.com/naka-gawa/pr-size-audit/internal/gateway"
	"github.com/naka-gawa/pr-size-audit/internal/logging"
	"github.com/naka-gawa/pr-size-audit/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app bundles what a command needs after configuration has been loaded.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	scheme  domain.Scheme
	auditor *usecase.Auditor
}

// newApp loads configuration and injects dependencies into the audit use case.
func newApp(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, verbose)
	if err != nil {
		return nil, err
	}

	scheme, err := domain.SchemeByName(cfg.Audit.Buckets)
	if err != nil {
		return nil, err
	}
	policy, err := usecase.NewVerdictPolicy(cfg.Audit.Verdict)
	if err != nil {
		return nil, err
	}

	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:              cfg.GitHub.Token,
		BaseURL:            cfg.GitHub.BaseURL,
		GraphQLURL:         cfg.GitHub.GraphQLURL,
		DetailAPI:          cfg.GitHub.DetailAPI,
		Timeout:            cfg.GitHub.Timeout,
		SecondaryLimitWait: cfg.GitHub.SecondaryLimitWait,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	resolver, err := usecase.NewSizeResolver(cfg.Audit.Strategy, githubGateway, cfg.Audit.Workers, logger)
	if err != nil {
		return nil, err
	}

	auditor := usecase.NewAuditor(githubGateway, resolver, usecase.AuditorOptions{
		Org:     cfg.Audit.Org,
		PerPage: cfg.Audit.PageSize,
		Scheme:  scheme,
		Policy:  policy,
	}, logger)

	logger.Debug("configuration loaded",
		zap.String("strategy", cfg.Audit.Strategy),
		zap.String("verdict", cfg.Audit.Verdict),
		zap.String("buckets", cfg.Audit.Buckets),
		zap.String("org", cfg.Audit.Org),
		zap.Bool("authenticated", cfg.GitHub.Token != ""))

	return &app{cfg: cfg, logger: logger, scheme: scheme, auditor: auditor}, nil
}
