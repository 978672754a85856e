package host

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyluth/lattice/internal/generate"
	"github.com/dyluth/lattice/internal/logging"
	"github.com/dyluth/lattice/pkg/blackboard"
	"github.com/dyluth/lattice/pkg/ident"
	"github.com/dyluth/lattice/pkg/pathway"
	"github.com/dyluth/lattice/pkg/shard"
)

const (
	// AuthorTransform authors versions produced by an AI-assisted edit.
	AuthorTransform = "ai_transform"

	// ErrorLogField is the object key an AI failure is recorded under.
	ErrorLogField = "ai_error_log"

	// wrappedValueField holds non-object data when an error log is attached.
	wrappedValueField = "value"

	transformExcerpt = 50
)

// Shards is the host service for the shard forest.
type Shards struct {
	store  ShardStore
	src    ident.Source
	gen    pathway.Generator
	logger *zap.Logger
}

// NewShards creates the shard service. gen may be nil, in which case
// Transform reports the generator as offline.
func NewShards(store ShardStore, src ident.Source, gen pathway.Generator, logger *zap.Logger) *Shards {
	return &Shards{store: store, src: src, gen: gen, logger: logging.OrNop(logger)}
}

// Forest returns every root shard tree in creation order.
func (s *Shards) Forest(ctx context.Context) ([]*shard.Shard, error) {
	return s.store.ListRoots(ctx)
}

// Get returns the shard at path.
func (s *Shards) Get(ctx context.Context, path string) (*shard.Shard, error) {
	forest, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}
	target, ok := shard.Locate(forest, path)
	if !ok {
		return nil, &NotFoundError{Kind: "shard", ID: path}
	}
	return target, nil
}

// CreateRoot creates and stores a new root shard.
func (s *Shards) CreateRoot(ctx context.Context, cfg shard.CreationConfig) (*shard.Shard, error) {
	if cfg.ShardName == "" {
		return nil, fmt.Errorf("shard name cannot be empty")
	}
	root := shard.New(cfg, s.src)
	if err := s.store.SaveRoot(ctx, root); err != nil {
		return nil, fmt.Errorf("failed to save root shard: %w", err)
	}

	s.logger.Info("root shard created",
		zap.String("shard_path", root.ShardID),
		zap.String("shard_type", root.ShardType),
		zap.String("version", shard.InitialVersionID))
	return root, nil
}

// AddNested creates a shard as the last child of the shard at parentPath and
// returns it with its full path.
func (s *Shards) AddNested(ctx context.Context, parentPath string, cfg shard.CreationConfig) (*shard.Shard, string, error) {
	if cfg.ShardName == "" {
		return nil, "", fmt.Errorf("shard name cannot be empty")
	}
	forest, err := s.load(ctx, parentPath)
	if err != nil {
		return nil, "", err
	}
	if _, ok := shard.Locate(forest, parentPath); !ok {
		return nil, "", &NotFoundError{Kind: "shard", ID: parentPath}
	}

	child := shard.New(cfg, s.src)
	forest = shard.InsertChild(forest, parentPath, child, s.src.Now())
	if err := s.save(ctx, forest); err != nil {
		return nil, "", err
	}

	path := shard.JoinPath(parentPath, child.ShardID)
	s.logger.Info("nested shard added",
		zap.String("shard_path", path),
		zap.String("shard_type", child.ShardType))
	return child, path, nil
}

// UpdateData records data as a new version of the shard at path.
func (s *Shards) UpdateData(ctx context.Context, path string, data shard.Data, author, summary string) (*shard.Shard, error) {
	return s.apply(ctx, path, "shard data updated", func(sh *shard.Shard) *shard.Shard {
		return shard.UpdateData(sh, data, author, summary, s.src)
	})
}

// UpdateVerification replaces the verification of the current version of
// the shard at path. Fields left empty in v are stamped from actor and the
// service's clock.
func (s *Shards) UpdateVerification(ctx context.Context, path string, v shard.VerificationDetails, actor string) (*shard.Shard, error) {
	if actor == "" {
		actor = "user"
	}
	v = shard.StampVerification(v, actor, s.src)
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid verification: %w", err)
	}
	return s.apply(ctx, path, "shard verification updated", func(sh *shard.Shard) *shard.Shard {
		return shard.UpdateVerification(sh, v, actor, s.src)
	})
}

// Delete removes the shard at path and its whole subtree. Deleting a root
// removes the stored tree.
func (s *Shards) Delete(ctx context.Context, path string) error {
	ids := shard.SplitPath(path)
	if len(ids) == 0 {
		return fmt.Errorf("shard path cannot be empty")
	}

	if len(ids) == 1 {
		if err := s.store.DeleteRoot(ctx, ids[0]); err != nil {
			if blackboard.IsNotFound(err) {
				return &NotFoundError{Kind: "shard", ID: path}
			}
			return fmt.Errorf("failed to delete root shard: %w", err)
		}
		s.logger.Info("root shard deleted", zap.String("shard_path", path))
		return nil
	}

	forest, err := s.load(ctx, path)
	if err != nil {
		return err
	}
	target, ok := shard.Locate(forest, path)
	if !ok {
		return &NotFoundError{Kind: "shard", ID: path}
	}
	removed := shard.Count([]*shard.Shard{target})

	forest = shard.DeleteAt(forest, path, s.src.Now())
	if err := s.save(ctx, forest); err != nil {
		return err
	}
	s.logger.Info("shard deleted",
		zap.String("shard_path", path),
		zap.Int("removed", removed))
	return nil
}

// Transform asks the generator to rewrite the data of the shard at path
// according to request and records the answer as a new version.
//
// If the generator is offline nothing changes and the error wraps
// pathway.ErrOffline. Any other generator failure is recorded on the shard
// as a new version carrying an ai_error_log field; the updated shard is then
// returned together with the error.
func (s *Shards) Transform(ctx context.Context, path, request string) (*shard.Shard, error) {
	target, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if s.gen == nil {
		return nil, fmt.Errorf("cannot transform shard %s: %w", path, pathway.ErrOffline)
	}

	prompt := generate.ShardPrompt(target.ShardName, target.ShardType, target.Data, request)
	s.logger.Debug("sending shard to generator",
		zap.String("shard_path", path),
		zap.String("request", excerpt(request, transformExcerpt)))

	text, genErr := s.gen.Generate(ctx, prompt)
	if errors.Is(genErr, pathway.ErrOffline) {
		return nil, fmt.Errorf("cannot transform shard %s: %w", path, genErr)
	}

	if genErr != nil {
		s.logger.Warn("shard transform failed",
			zap.String("shard_path", path),
			zap.Error(genErr))
		logged := WithErrorLog(target.Data,
			fmt.Sprintf("Error processing prompt %q: %s", excerpt(request, transformExcerpt)+"...", genErr))
		updated, err := s.UpdateData(ctx, path, logged, AuthorTransform, "AI Processing Error Logged")
		if err != nil {
			return nil, err
		}
		return updated, fmt.Errorf("generation failed for shard %s: %w", path, genErr)
	}

	summary := fmt.Sprintf("AI Modified: %s...", excerpt(request, transformExcerpt))
	return s.UpdateData(ctx, path, generate.ParseData(text), AuthorTransform, summary)
}

// WithErrorLog attaches an ai_error_log entry to data. Object data gains the
// field; any other data is wrapped in an object under "value".
func WithErrorLog(data shard.Data, message string) shard.Data {
	if data.Kind() == shard.KindObject {
		return data.With(ErrorLogField, shard.String(message))
	}
	return shard.Object(map[string]shard.Data{
		wrappedValueField: data.Clone(),
		ErrorLogField:     shard.String(message),
	})
}

func (s *Shards) apply(ctx context.Context, path, event string, transform func(*shard.Shard) *shard.Shard) (*shard.Shard, error) {
	forest, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, ok := shard.Locate(forest, path); !ok {
		return nil, &NotFoundError{Kind: "shard", ID: path}
	}

	forest = shard.ApplyAt(forest, path, transform, s.src.Now())
	if err := s.save(ctx, forest); err != nil {
		return nil, err
	}

	updated, _ := shard.Locate(forest, path)
	fields := []zap.Field{zap.String("shard_path", path)}
	if v := updated.CurrentVersion(); v != nil {
		fields = append(fields,
			zap.String("version", v.VersionID),
			zap.String("verification", string(v.VerificationDetails.Status)))
	}
	s.logger.Info(event, fields...)
	return updated, nil
}

// load returns the single-root forest containing path.
func (s *Shards) load(ctx context.Context, path string) ([]*shard.Shard, error) {
	ids := shard.SplitPath(path)
	if len(ids) == 0 {
		return nil, fmt.Errorf("shard path cannot be empty")
	}
	root, err := s.store.GetRoot(ctx, ids[0])
	if err != nil {
		if blackboard.IsNotFound(err) {
			return nil, &NotFoundError{Kind: "shard", ID: path}
		}
		return nil, fmt.Errorf("failed to load root shard %s: %w", ids[0], err)
	}
	return []*shard.Shard{root}, nil
}

func (s *Shards) save(ctx context.Context, forest []*shard.Shard) error {
	if err := s.store.SaveRoot(ctx, forest[0]); err != nil {
		return fmt.Errorf("failed to save root shard: %w", err)
	}
	return nil
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
