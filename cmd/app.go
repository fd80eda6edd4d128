package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/textcal/internal/config"
	"github.com/teemow/textcal/internal/google"
	"github.com/teemow/textcal/internal/instrumentation"
	"github.com/teemow/textcal/internal/logging"
	"github.com/teemow/textcal/internal/mirror"
	"github.com/teemow/textcal/internal/planner"
	"github.com/teemow/textcal/internal/translator"
)

// loadConfig reads .env, the config file and the environment, then applies
// the persistent flags of cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr so stdout stays free for command output and the
// stdio transport.
func newLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(os.Stderr, cfg.Logging.Level, logging.Format(cfg.Logging.Format))
	slog.SetDefault(logger)
	return logger
}

func tokenProvider(cfg *config.Config) *google.FileTokenProvider {
	var oauthConfig = google.OAuthConfig(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, "")
	if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
		// Without a client, stored tokens are used until they expire.
		oauthConfig = nil
	}
	return google.NewFileTokenProvider(cfg.OAuth.TokenDir, oauthConfig)
}

// openMirror opens the mirror database, or returns nils when the mirror is
// disabled.
func openMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mirror.DB, *mirror.Store, error) {
	if !cfg.Mirror.Enabled {
		return nil, nil, nil
	}
	db, err := mirror.OpenDB(ctx, cfg.Mirror.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, mirror.NewStore(db), nil
}

// app bundles the dependencies of the planning commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	instr   *instrumentation.Provider
	audit   *instrumentation.AuditLogger
	db      *mirror.DB
	store   *mirror.Store
	tokens  *google.FileTokenProvider
	planner *planner.Service
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, tokens: tokenProvider(cfg)}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err = instrConfig.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err = instrConfig.Validate(); err != nil {
		return nil, err
	}
	a.instr, err = instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := a.instr.Metrics()
	a.audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)

	a.db, a.store, err = openMirror(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	model, err := translator.NewModel(ctx, translator.ModelConfig{
		Provider: translator.Provider(cfg.LLM.Provider),
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	pcfg := planner.Config{
		Translator: translator.New(model, translator.Options{
			ModelName:   cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
			Metrics:     metrics,
			Logger:      logger,
		}),
		CalendarID: cfg.CalendarID,
		Workers:    cfg.Workers,
		Metrics:    metrics,
		Audit:      a.audit,
		Logger:     logger,
	}
	if a.store != nil {
		pcfg.Mirror = mirror.NewSynchronizer(a.store)
	}
	a.planner = planner.New(pcfg)

	return a, nil
}

// Close releases the mirror database and flushes instrumentation.
func (a *app) Close(ctx context.Context) {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.instr != nil {
		errs = append(errs, a.instr.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error during shutdown", logging.Err(err))
	}
}
