package templates

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/health-advisor-server/internal/domain"
)

// Fetcher retrieves a raw library document from a remote location
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Loader implements domain.LibraryLoader for local files and http(s) URLs.
// Parsed libraries are kept in an expirable LRU keyed by source.
type Loader struct {
	logger *logrus.Logger
	cache  *expirable.LRU[string, *domain.TemplateLibrary]
	remote Fetcher
}

// NewLoader creates a loader. A non-positive cache size disables caching and a
// nil fetcher rejects remote sources.
func NewLoader(logger *logrus.Logger, cfg domain.LibraryConfig, remote Fetcher) *Loader {
	l := &Loader{
		logger: logger,
		remote: remote,
	}
	if cfg.CacheSize > 0 {
		l.cache = expirable.NewLRU[string, *domain.TemplateLibrary](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return l
}

// Load returns the parsed library for source, from cache when possible
func (l *Loader) Load(ctx context.Context, source string) (*domain.TemplateLibrary, error) {
	if strings.TrimSpace(source) == "" {
		return nil, domain.NewLoadError(source, "no library source configured", nil)
	}

	if l.cache != nil {
		if lib, ok := l.cache.Get(source); ok {
			l.logger.WithField("source", source).Debug("Template library cache hit")
			return lib, nil
		}
	}

	data, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	lib, err := Parse(source, data, DetectFormat(source))
	if err != nil {
		l.logger.WithError(err).WithField("source", source).Warn("Rejected template library")
		return nil, err
	}

	if l.cache != nil {
		l.cache.Add(source, lib)
	}

	l.logger.WithFields(logrus.Fields{
		"source":   source,
		"subjects": lib.SubjectCount(),
	}).Info("Loaded template library")

	return lib, nil
}

// Invalidate drops a cached library so the next Load re-reads it
func (l *Loader) Invalidate(source string) {
	if l.cache != nil {
		l.cache.Remove(source)
	}
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if IsRemote(source) {
		if l.remote == nil {
			return nil, domain.NewLoadError(source, "remote libraries are not enabled", nil)
		}
		data, err := l.remote.Fetch(ctx, source)
		if err != nil {
			return nil, domain.NewLoadError(source, "fetching document", err)
		}
		return data, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.NewLoadError(source, "reading file", err)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, domain.NewLoadError(source, "reading file", err)
	}
	return data, nil
}

// IsRemote reports whether source is an http(s) URL
func IsRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
