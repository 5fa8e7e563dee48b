package templates

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
)

// NewConfiguredLoader builds the loader the binaries use: remote fetching is
// always available, and the redis document cache is attached when a URL is
// configured and reachable. The returned close func releases the redis client.
func NewConfiguredLoader(ctx context.Context, logger *logrus.Logger, cfg domain.LibraryConfig) (*Loader, func() error) {
	closeFn := func() error { return nil }

	var shared RawCache
	if cfg.RedisURL != "" {
		redisCache, err := NewRedisCache(ctx, cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			logger.WithError(err).Warn("Redis library cache unavailable, continuing without it")
		} else {
			logger.Info("Using redis for remote template library documents")
			shared = redisCache
			closeFn = redisCache.Close
		}
	}

	remote := NewRemoteSource(logger, cfg, shared)
	return NewLoader(logger, cfg, remote), closeFn
}
