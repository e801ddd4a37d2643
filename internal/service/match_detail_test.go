package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/domain"
	apierrors "sa-match-gateway/internal/errors"

	"github.com/bmizerany/assert"
)

func TestFetchDetail_CacheHitSkipsUpstreamAndMetrics(t *testing.T) {
	upstream := &MockUpstream{
		GetMatchDetailFunc: func(ctx context.Context, matchID string) (*api.MatchDetailResponse, error) {
			return detailResponse(matchID, domain.ModeBombing, domain.TypeSoloRanked, "2024-01-01T00:00:00Z",
				api.MatchParticipant{UserName: "player", SeasonGrade: "GOLD I", MatchResult: "1", Kill: 10}), nil
		},
	}
	svc := newTestServices(t, upstream)
	ctx := context.Background()

	first, err := svc.details.FetchDetail(ctx, "m-1", false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	before := svc.collector.Snapshot()

	second, err := svc.details.FetchDetail(ctx, "m-1", true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	after := svc.collector.Snapshot()

	assert.Equal(t, 1, upstream.Calls("GetMatchDetail"))
	assert.Equal(t, before.TotalRequests, after.TotalRequests)
	assert.Equal(t, first.MatchID, second.MatchID)
	assert.Equal(t, "2024-01-01T00:00:00Z", first.DateMatch)
	assert.Equal(t, "2024-01-01T09:00:00+09:00", second.DateMatch)
	assert.Equal(t, 1, svc.store.saves)

	stats := svc.details.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Entries)
	assert.Equal(t, 50.0, stats.HitRate)
}

func TestFetchDetail_EnrichesRankImage(t *testing.T) {
	upstream := &MockUpstream{
		GetMatchDetailFunc: func(ctx context.Context, matchID string) (*api.MatchDetailResponse, error) {
			return detailResponse(matchID, domain.ModeBombing, domain.TypeNormal, "2024-01-01T00:00:00Z",
				api.MatchParticipant{UserName: "a", SeasonGrade: "대령"},
				api.MatchParticipant{UserName: "b", SeasonGrade: "unknown grade"},
			), nil
		},
	}
	svc := newTestServices(t, upstream)
	svc.catalog.Put(api.MetaSeasonGrade, api.MetaEntry{Code: "대령", Image: "https://img/colonel.png"})

	detail, err := svc.details.FetchDetail(context.Background(), "m-1", false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	assert.Equal(t, 2, len(detail.Participants))
	assert.Equal(t, "https://img/colonel.png", detail.Participants[0].GradeImage)
	assert.Equal(t, "", detail.Participants[1].GradeImage)
	assert.Equal(t, "제3보급창고", detail.MatchMap)
}

func TestFetchDetail_UsesPersistentStore(t *testing.T) {
	upstream := &MockUpstream{}
	svc := newTestServices(t, upstream)
	svc.store.Save(context.Background(), &domain.MatchDetail{
		Record: domain.MatchRecord{ID: "m-9", Mode: domain.ModeBombing, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	})

	detail, err := svc.details.FetchDetail(context.Background(), "m-9", false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	assert.Equal(t, domain.MatchID("m-9"), detail.MatchID)
	assert.Equal(t, 0, upstream.Calls("GetMatchDetail"))
	assert.Equal(t, 0, len(detail.Participants))
}

func TestFetchDetail_NotFound(t *testing.T) {
	upstream := &MockUpstream{
		GetMatchDetailFunc: func(ctx context.Context, matchID string) (*api.MatchDetailResponse, error) {
			return nil, &api.StatusError{Status: http.StatusNotFound}
		},
	}
	svc := newTestServices(t, upstream)

	detail, err := svc.details.FetchDetail(context.Background(), "missing", false)

	if detail != nil {
		t.Error("Expected nil detail")
	}
	assert.Equal(t, apierrors.KindNotFound, apierrors.KindOf(err))
	assert.Equal(t, int64(0), svc.details.Stats().Entries)
}

func TestFetchDetail_EmptyPayloadIsNotFound(t *testing.T) {
	upstream := &MockUpstream{
		GetMatchDetailFunc: func(ctx context.Context, matchID string) (*api.MatchDetailResponse, error) {
			return &api.MatchDetailResponse{}, nil
		},
	}
	svc := newTestServices(t, upstream)

	_, err := svc.details.FetchDetail(context.Background(), "m-1", false)

	assert.Equal(t, apierrors.KindNotFound, apierrors.KindOf(err))
}

func TestFetchDetail_EmptyID(t *testing.T) {
	svc := newTestServices(t, &MockUpstream{})

	_, err := svc.details.FetchDetail(context.Background(), " ", false)

	assert.Equal(t, apierrors.KindValidation, apierrors.KindOf(err))
}

func TestFetchDetail_ConcurrentFirstFetch(t *testing.T) {
	release := make(chan struct{})
	upstream := &MockUpstream{
		GetMatchDetailFunc: func(ctx context.Context, matchID string) (*api.MatchDetailResponse, error) {
			<-release
			return detailResponse(matchID, domain.ModeBombing, domain.TypeNormal, "2024-01-01T00:00:00Z"), nil
		},
	}
	svc := newTestServices(t, upstream)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.details.FetchDetail(context.Background(), "m-1", false)
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if calls := upstream.Calls("GetMatchDetail"); calls < 1 || calls > 2 {
		t.Errorf("Expected concurrent first fetches to collapse, got %d upstream calls", calls)
	}
	assert.Equal(t, int64(1), svc.details.Stats().Entries)
}

func TestFetchDetail_WaiterOutlivesCanceledLeader(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	upstream := &MockUpstream{
		GetMatchDetailFunc: func(ctx context.Context, matchID string) (*api.MatchDetailResponse, error) {
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return detailResponse(matchID, domain.ModeBombing, domain.TypeNormal, "2024-01-01T00:00:00Z"), nil
		},
	}
	svc := newTestServices(t, upstream)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.details.FetchDetail(leaderCtx, "m-1", false)
		leaderErr <- err
	}()
	<-started

	type result struct {
		detail *domain.MatchDetailSummary
		err    error
	}
	waiter := make(chan result, 1)
	go func() {
		detail, err := svc.details.FetchDetail(context.Background(), "m-1", false)
		waiter <- result{detail, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	assert.Equal(t, apierrors.KindCanceled, apierrors.KindOf(<-leaderErr))

	close(release)
	res := <-waiter
	if res.err != nil {
		t.Fatalf("Expected waiter to receive the shared fetch, got %v", res.err)
	}
	assert.Equal(t, domain.MatchID("m-1"), res.detail.MatchID)
	assert.Equal(t, 1, upstream.Calls("GetMatchDetail"))
	assert.Equal(t, int64(1), svc.details.Stats().Entries)
}

func TestCacheService_ByName(t *testing.T) {
	svc := newTestServices(t, &MockUpstream{})
	svc.catalog.Put(api.MetaTier, api.MetaEntry{Code: "GOLD I", Image: "https://img/gold1.png"})

	stats, ok := svc.caches.ByName(MetadataCacheName)
	assert.Equal(t, true, ok)
	assert.Equal(t, int64(1), stats.Entries)

	_, ok = svc.caches.ByName("sessions")
	assert.Equal(t, false, ok)

	assert.Equal(t, 2, len(svc.caches.All()))
}
