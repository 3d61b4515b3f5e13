package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credit-risk-agent/domain"
	"credit-risk-agent/metrics"
	"credit-risk-agent/repository"

	"go.uber.org/zap"
)

// ModelStore fits the credit-risk model once and keeps it in the cache so
// restarts reuse the same coefficients.
type ModelStore struct {
	cache   repository.CacheRepository
	log     *zap.Logger
	samples int
	seed    int64
	opts    TrainOptions
	ttl     time.Duration
}

// ModelStoreConfig selects the training data, the fit settings and the cache lifetime.
type ModelStoreConfig struct {
	Samples           int
	Seed              int64
	Iterations        int
	GradientTolerance float64
	L2Penalty         float64
	CacheTTL          time.Duration
}

func NewModelStore(cache repository.CacheRepository, cfg ModelStoreConfig, log *zap.Logger) *ModelStore {
	if log == nil {
		log = zap.NewNop()
	}
	opts := TrainOptions{
		Iterations:        cfg.Iterations,
		GradientTolerance: cfg.GradientTolerance,
		L2Penalty:         cfg.L2Penalty,
	}
	opts.Version = ModelVersion(cfg.Seed, cfg.Samples, opts)

	return &ModelStore{
		cache:   cache,
		log:     log,
		samples: cfg.Samples,
		seed:    cfg.Seed,
		opts:    opts,
		ttl:     cfg.CacheTTL,
	}
}

// CacheKey is where the fitted model is stored.
func (s *ModelStore) CacheKey() string {
	return ModelCacheKeyPrefix + s.opts.Version
}

// Load returns the cached model or fits and caches a new one.
func (s *ModelStore) Load(ctx context.Context) (*LogisticClassifier, error) {
	key := s.CacheKey()

	if raw, ok := s.cache.Get(ctx, key); ok {
		var model domain.Model
		if err := json.Unmarshal([]byte(raw), &model); err == nil && s.usable(model) {
			metrics.ModelCacheLookups.WithLabelValues("hit").Inc()
			s.log.Info("loaded model from cache", zap.String("version", model.Version))
			return NewLogisticClassifier(model), nil
		}
		s.log.Warn("discarding cached model", zap.String("key", key), zap.String("cached_version", model.Version))
	}
	metrics.ModelCacheLookups.WithLabelValues("miss").Inc()

	started := time.Now()
	model, err := Train(GenerateApplicants(s.samples, s.seed), s.opts)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	s.log.Info("trained model",
		zap.String("version", model.Version),
		zap.Int("samples", model.Samples),
		zap.Float64("accuracy", model.Metrics.Accuracy),
		zap.Float64("roc_auc", model.Metrics.ROCAUC),
		zap.Duration("elapsed", time.Since(started)),
	)

	// Caching is best effort
	payload, err := json.Marshal(model)
	if err == nil {
		err = s.cache.Set(ctx, key, string(payload), s.ttl)
	}
	if err != nil {
		s.log.Warn("failed to cache model", zap.String("key", key), zap.Error(err))
	}

	return NewLogisticClassifier(model), nil
}

// usable reports whether a cached model was fitted with this store's settings.
func (s *ModelStore) usable(model domain.Model) bool {
	return model.Version == s.opts.Version && len(model.Coefficients) == len(domain.Features)
}
