package metadata

import (
	"context"
	"sync"
	"time"

	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/constants"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Resolver maps a rank, tier or grade code to its display image.
// Unknown or empty codes resolve to ("", false).
type Resolver interface {
	ResolveDisplayImage(code string) (string, bool)
}

// Source fetches one image table from upstream.
type Source interface {
	GetMetadata(ctx context.Context, kind api.MetaKind) ([]api.MetaEntry, error)
}

// Catalog holds one image table per metadata kind. Codes are only unique within a table.
type Catalog struct {
	mu     sync.RWMutex
	images map[api.MetaKind]map[string]string
	logger zerolog.Logger
}

func NewCatalog(logger zerolog.Logger) *Catalog {
	return &Catalog{images: make(map[api.MetaKind]map[string]string), logger: logger}
}

// Resolver returns the lookup for a single table.
func (c *Catalog) Resolver(kind api.MetaKind) Resolver {
	return tableResolver{catalog: c, kind: kind}
}

func (c *Catalog) resolve(kind api.MetaKind, code string) (string, bool) {
	if code == "" {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	image, ok := c.images[kind][code]
	if !ok || image == "" {
		return "", false
	}
	return image, true
}

// Put registers images for one table, overwriting earlier entries for the same code.
func (c *Catalog) Put(kind api.MetaKind, entries ...api.MetaEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	table, ok := c.images[kind]
	if !ok {
		table = make(map[string]string, len(entries))
		c.images[kind] = table
	}
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		table[e.Code] = e.Image
	}
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, table := range c.images {
		n += len(table)
	}
	return n
}

// Load pulls the named image tables, or every table when none are named.
// A failing table is logged and skipped; the kinds that failed are returned.
func (c *Catalog) Load(ctx context.Context, source Source, kinds ...api.MetaKind) []api.MetaKind {
	if len(kinds) == 0 {
		kinds = api.MetaKinds
	}

	var failed []api.MetaKind
	loaded := 0
	for _, kind := range kinds {
		entries, err := source.GetMetadata(ctx, kind)
		if err != nil {
			c.logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to load metadata table")
			failed = append(failed, kind)
			continue
		}
		c.Put(kind, entries...)
		loaded += len(entries)
	}

	c.logger.Info().Int("entries", loaded).Int("failed_tables", len(failed)).Msg("metadata catalog loaded")
	return failed
}

// keepLoaded loads every table, then retries the failed ones every interval until
// all have loaded or ctx ends.
func (c *Catalog) keepLoaded(ctx context.Context, source Source, interval time.Duration) {
	pending := api.MetaKinds
	for {
		loadCtx, cancel := context.WithTimeout(ctx, constants.MetadataTimeout)
		pending = c.Load(loadCtx, source, pending...)
		cancel()
		if len(pending) == 0 {
			return
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

type tableResolver struct {
	catalog *Catalog
	kind    api.MetaKind
}

func (r tableResolver) ResolveDisplayImage(code string) (string, bool) {
	return r.catalog.resolve(r.kind, code)
}

func registerLoad(lc fx.Lifecycle, catalog *Catalog, source Source) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				catalog.keepLoaded(ctx, source, constants.MetadataRetryInterval)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewCatalog),
	fx.Invoke(registerLoad),
)
