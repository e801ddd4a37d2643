package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/config"
	"sa-match-gateway/internal/domain"
	"sa-match-gateway/internal/metadata"
	"sa-match-gateway/internal/metrics"
	"sa-match-gateway/internal/retry"

	"github.com/rs/zerolog"
)

// MockUpstream is a mock implementation of api.Upstream
type MockUpstream struct {
	mu    sync.Mutex
	calls map[string]int

	ListMatchesFunc    func(ctx context.Context, ouid, mode, matchType string) ([]api.MatchEntry, error)
	GetMatchDetailFunc func(ctx context.Context, matchID string) (*api.MatchDetailResponse, error)
	GetUserBasicFunc   func(ctx context.Context, ouid string) (*api.UserBasicResponse, error)
	GetUserTierFunc    func(ctx context.Context, ouid string) (*api.UserTierResponse, error)
	GetUserRankFunc    func(ctx context.Context, ouid string) (*api.UserRankResponse, error)
	GetMetadataFunc    func(ctx context.Context, kind api.MetaKind) ([]api.MetaEntry, error)
}

func (m *MockUpstream) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *MockUpstream) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockUpstream) ListMatches(ctx context.Context, ouid, mode, matchType string) ([]api.MatchEntry, error) {
	m.record("ListMatches")
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc(ctx, ouid, mode, matchType)
	}
	return nil, nil
}

func (m *MockUpstream) GetMatchDetail(ctx context.Context, matchID string) (*api.MatchDetailResponse, error) {
	m.record("GetMatchDetail")
	if m.GetMatchDetailFunc != nil {
		return m.GetMatchDetailFunc(ctx, matchID)
	}
	return nil, &api.StatusError{Status: 404}
}

func (m *MockUpstream) GetUserBasic(ctx context.Context, ouid string) (*api.UserBasicResponse, error) {
	m.record("GetUserBasic")
	if m.GetUserBasicFunc != nil {
		return m.GetUserBasicFunc(ctx, ouid)
	}
	return &api.UserBasicResponse{UserName: "player"}, nil
}

func (m *MockUpstream) GetUserTier(ctx context.Context, ouid string) (*api.UserTierResponse, error) {
	m.record("GetUserTier")
	if m.GetUserTierFunc != nil {
		return m.GetUserTierFunc(ctx, ouid)
	}
	return &api.UserTierResponse{}, nil
}

func (m *MockUpstream) GetUserRank(ctx context.Context, ouid string) (*api.UserRankResponse, error) {
	m.record("GetUserRank")
	if m.GetUserRankFunc != nil {
		return m.GetUserRankFunc(ctx, ouid)
	}
	return &api.UserRankResponse{}, nil
}

func (m *MockUpstream) GetMetadata(ctx context.Context, kind api.MetaKind) ([]api.MetaEntry, error) {
	m.record("GetMetadata")
	if m.GetMetadataFunc != nil {
		return m.GetMetadataFunc(ctx, kind)
	}
	return nil, nil
}

// memoryStore is an in-memory DetailStore
type memoryStore struct {
	mu      sync.Mutex
	details map[domain.MatchID]*domain.MatchDetail
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{details: make(map[domain.MatchID]*domain.MatchDetail)}
}

func (s *memoryStore) Get(ctx context.Context, matchID domain.MatchID) (*domain.MatchDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details[matchID], nil
}

func (s *memoryStore) Save(ctx context.Context, detail *domain.MatchDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.details[detail.Record.ID] = detail
	return nil
}

type testServices struct {
	upstream  *MockUpstream
	collector *metrics.Collector
	catalog   *metadata.Catalog
	store     *memoryStore
	matches   *MatchService
	details   *MatchDetailService
	players   *PlayerService
	caches    *CacheService
}

func newTestServices(t *testing.T, upstream *MockUpstream) *testServices {
	t.Helper()
	logger := zerolog.Nop()
	collector := metrics.NewCollector(time.Hour)
	catalog := metadata.NewCatalog(logger)
	store := newMemoryStore()

	gateway := NewGateway(upstream, retry.NewExecutor(2, time.Millisecond, logger), collector, logger)
	details := NewMatchDetailService(gateway, store, catalog, logger)
	cfg := &config.Config{
		HistoryMatchCap:  200,
		StatsSeasonStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	return &testServices{
		upstream:  upstream,
		collector: collector,
		catalog:   catalog,
		store:     store,
		matches:   NewMatchService(gateway, logger),
		details:   details,
		players:   NewPlayerService(gateway, details, catalog, cfg, logger),
		caches:    NewCacheService(details, catalog),
	}
}

func entry(id, mode, matchType, date, result string, kills, deaths int) api.MatchEntry {
	return api.MatchEntry{
		MatchID:     api.RawID(id),
		MatchMode:   mode,
		MatchType:   matchType,
		DateMatch:   date,
		MatchResult: result,
		Kill:        kills,
		Death:       deaths,
	}
}

func entries(n int) []api.MatchEntry {
	out := make([]api.MatchEntry, 0, n)
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		date := base.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339)
		out = append(out, entry(fmt.Sprintf("m-%d", i), domain.ModeBombing, domain.TypeNormal, date, "1", 5, 3))
	}
	return out
}

func detailResponse(id, mode, matchType, date string, participants ...api.MatchParticipant) *api.MatchDetailResponse {
	return &api.MatchDetailResponse{
		MatchID:     api.RawID(id),
		MatchMode:   mode,
		MatchType:   matchType,
		DateMatch:   date,
		MatchMap:    "제3보급창고",
		MatchDetail: participants,
	}
}
