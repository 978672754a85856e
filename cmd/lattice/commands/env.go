package commands

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyluth/lattice/internal/config"
	"github.com/dyluth/lattice/internal/generate"
	"github.com/dyluth/lattice/internal/host"
	"github.com/dyluth/lattice/internal/logging"
	"github.com/dyluth/lattice/internal/printer"
	"github.com/dyluth/lattice/pkg/blackboard"
	"github.com/dyluth/lattice/pkg/catalog"
	"github.com/dyluth/lattice/pkg/ident"
	"github.com/dyluth/lattice/pkg/pathway"
)

// env is everything a command needs once configuration is resolved.
type env struct {
	cfg      *config.LatticeConfig
	logger   *zap.Logger
	cat      *catalog.Catalog
	bb       *blackboard.Client
	gen      pathway.Generator
	shards   *host.Shards
	pathways *host.Pathways
}

// loadConfig reads lattice.yml (or the defaults) and applies flag
// overrides.
func loadConfig(opts *rootOptions) (*config.LatticeConfig, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			fmt.Sprintf("Could not load %s: %v", opts.configPath, err),
			[]string{"Fix the file or point --config at a valid lattice.yml"},
		)
	}

	if opts.instance != "" {
		if err := config.ValidateInstanceName(opts.instance); err != nil {
			return nil, printer.Error("invalid --instance", err.Error(), nil)
		}
		cfg.Instance = opts.instance
	}
	if opts.redisURL != "" {
		if _, err := redis.ParseURL(opts.redisURL); err != nil {
			return nil, printer.Error("invalid --redis", err.Error(), []string{"Use a URL like redis://localhost:6379/0"})
		}
		cfg.Redis.URL = opts.redisURL
	}
	return cfg, nil
}

// loadCatalog returns the configured catalog, or the embedded one.
func loadCatalog(cfg *config.LatticeConfig) (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, printer.Error(
			"invalid catalog",
			fmt.Sprintf("Could not load catalog %s: %v", cfg.Catalog, err),
			[]string{"Remove the catalog setting to use the built-in catalog"},
		)
	}
	return cat, nil
}

// newGenerator returns a Gemini generator when an API key is configured and
// the offline generator otherwise, bounded by the configured timeout.
func newGenerator(ctx context.Context, cfg *config.LatticeConfig, logger *zap.Logger) (pathway.Generator, error) {
	g := cfg.Generation
	key := g.APIKey()
	if key == "" {
		logger.Debug("generation offline", zap.String("api_key_env", g.APIKeyEnv))
		return generate.Offline{}, nil
	}

	client, err := generate.NewGenAI(ctx, generate.Options{
		APIKey:      key,
		Model:       g.Model,
		Temperature: *g.Temperature,
		TopK:        float32(*g.TopK),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("generation enabled", zap.String("model", client.Name()))
	return generate.WithTimeout(client, g.TimeoutDuration()), nil
}

// openEnv resolves configuration and connects to the blackboard. Callers
// must call close.
func openEnv(ctx context.Context, opts *rootOptions) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	// Operation logs are opt-in on the CLI; warnings always show.
	level := "warn"
	if opts.verbose || opts.debug {
		level = cfg.LogLevel
	}
	logger, err := logging.New(level, opts.debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}
	bb, err := blackboard.NewClient(redisOpts, cfg.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create blackboard client: %w", err)
	}
	if err := bb.Ping(ctx); err != nil {
		bb.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Redis.URL),
			map[string]string{"Instance": cfg.Instance, "Error": err.Error()},
			[]string{
				"Start Redis locally:\n  docker run -d -p 6379:6379 redis:7",
				"Point at another server:\n  lattice --redis redis://host:6379/0 ...",
			},
			"Instance", "Error",
		)
	}

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		bb.Close()
		return nil, err
	}

	src := ident.System{}
	return &env{
		cfg:      cfg,
		logger:   logger,
		cat:      cat,
		bb:       bb,
		gen:      gen,
		shards:   host.NewShards(bb, src, gen, logger),
		pathways: host.NewPathways(bb, cat, gen, src, logger),
	}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
	e.bb.Close()
}

// withEnv opens the environment for the duration of fn.
func withEnv(cmd *cobra.Command, root *rootOptions, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, root)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(ctx, e)
}
