package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/constants"
	"sa-match-gateway/internal/domain"
	apierrors "sa-match-gateway/internal/errors"
	"sa-match-gateway/internal/metadata"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DetailStore is the persistent tier behind the in-memory detail cache.
type DetailStore interface {
	Get(ctx context.Context, matchID domain.MatchID) (*domain.MatchDetail, error)
	Save(ctx context.Context, detail *domain.MatchDetail) error
}

type CacheStats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Entries int64   `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

type MatchDetailService struct {
	gateway  *Gateway
	store    DetailStore
	resolver metadata.Resolver
	logger   zerolog.Logger

	memory  sync.Map
	entries atomic.Int64
	hits    atomic.Int64
	misses  atomic.Int64
	flight  singleflight.Group
}

// ImageCatalog hands out the display-image lookup for one metadata table.
type ImageCatalog interface {
	Resolver(kind api.MetaKind) metadata.Resolver
}

func NewMatchDetailService(gateway *Gateway, store DetailStore, images ImageCatalog, logger zerolog.Logger) *MatchDetailService {
	return &MatchDetailService{
		gateway:  gateway,
		store:    store,
		resolver: images.Resolver(api.MetaSeasonGrade),
		logger:   logger,
	}
}

// FetchDetail returns a match detail, consulting the cache before upstream.
func (s *MatchDetailService) FetchDetail(ctx context.Context, matchID string, useKST bool) (*domain.MatchDetailSummary, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, apierrors.Validation("matchId", "matchId is required")
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	detail, err := s.detail(ctx, domain.MatchID(matchID))
	if err != nil {
		return nil, err
	}
	summary := domain.NewMatchDetailSummary(*detail, useKST)
	return &summary, nil
}

func (s *MatchDetailService) detail(ctx context.Context, id domain.MatchID) (*domain.MatchDetail, error) {
	if detail, ok := s.cached(ctx, id); ok {
		s.hits.Add(1)
		return detail, nil
	}
	s.misses.Add(1)

	// The shared fetch outlives any single caller; each caller stops waiting on its own context.
	ch := s.flight.DoChan(string(id), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RequestTimeout)
		defer cancel()
		return s.fetchAndStore(fetchCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, apierrors.Canceled(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug().Str("match_id", string(id)).Msg("joined in-flight detail fetch")
		}
		return res.Val.(*domain.MatchDetail), nil
	}
}

func (s *MatchDetailService) cached(ctx context.Context, id domain.MatchID) (*domain.MatchDetail, bool) {
	if v, ok := s.memory.Load(id); ok {
		return v.(*domain.MatchDetail), true
	}
	if s.store == nil {
		return nil, false
	}

	detail, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("match_id", string(id)).Msg("detail store lookup failed")
		return nil, false
	}
	if detail == nil {
		return nil, false
	}
	return s.remember(detail), true
}

// remember inserts detail into memory unless another caller got there first.
func (s *MatchDetailService) remember(detail *domain.MatchDetail) *domain.MatchDetail {
	actual, loaded := s.memory.LoadOrStore(detail.Record.ID, detail)
	if !loaded {
		s.entries.Add(1)
	}
	return actual.(*domain.MatchDetail)
}

func (s *MatchDetailService) fetchAndStore(ctx context.Context, id domain.MatchID) (*domain.MatchDetail, error) {
	s.logger.Debug().Str("match_id", string(id)).Msg("match detail not cached, fetching from API")

	resp, err := invoke(ctx, s.gateway, "match "+string(id), func(ctx context.Context, upstream api.Upstream) (*api.MatchDetailResponse, error) {
		return upstream.GetMatchDetail(ctx, string(id))
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.MatchID == "" {
		return nil, apierrors.NotFound("match " + string(id) + " not found")
	}

	detail, ok := toMatchDetail(resp, s.resolver)
	if !ok {
		s.logger.Warn().Str("match_id", string(id)).Str("date_match", resp.DateMatch).Msg("unparseable match timestamp")
	}
	if detail.Record.ID != id {
		s.logger.Warn().Str("match_id", string(id)).Str("upstream_match_id", string(detail.Record.ID)).Msg("upstream returned a different match id")
		detail.Record.ID = id
	}

	if s.store != nil {
		if err := s.store.Save(ctx, detail); err != nil {
			s.logger.Warn().Err(err).Str("match_id", string(id)).Msg("failed to persist match detail")
		}
	}
	return s.remember(detail), nil
}

func (s *MatchDetailService) Stats() CacheStats {
	stats := CacheStats{
		Name:    DetailCacheName,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Entries: s.entries.Load(),
	}
	if lookups := stats.Hits + stats.Misses; lookups > 0 {
		stats.HitRate = round2(float64(stats.Hits) / float64(lookups) * 100)
	}
	return stats
}
