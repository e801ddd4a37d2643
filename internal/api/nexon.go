package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"sa-match-gateway/internal/config"
	"sa-match-gateway/internal/constants"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Upstream is the read-only surface of the statistics API the aggregator consumes.
type Upstream interface {
	ListMatches(ctx context.Context, ouid, mode, matchType string) ([]MatchEntry, error)
	GetMatchDetail(ctx context.Context, matchID string) (*MatchDetailResponse, error)
	GetUserBasic(ctx context.Context, ouid string) (*UserBasicResponse, error)
	GetUserTier(ctx context.Context, ouid string) (*UserTierResponse, error)
	GetUserRank(ctx context.Context, ouid string) (*UserRankResponse, error)
	GetMetadata(ctx context.Context, kind MetaKind) ([]MetaEntry, error)
}

type NexonClient struct {
	apiKey      string
	baseURL     string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

// RateLimitInfo is the quota reported by the most recent upstream response.
type RateLimitInfo struct {
	Limit     int
	Remaining int

	// seconds until reset
	Reset int

	// zero until a response carried rate limit headers
	UpdatedAt time.Time
}

func NewNexonClient(cfg *config.Config) *NexonClient {
	return &NexonClient{
		apiKey:  cfg.NexonAPIKey,
		baseURL: strings.TrimRight(cfg.NexonBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *NexonClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *NexonClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	seen := false
	for _, h := range []struct {
		name   string
		target *int
	}{
		{"X-RateLimit-Limit", &c.rateLimit.Limit},
		{"X-RateLimit-Remaining", &c.rateLimit.Remaining},
		{"X-RateLimit-Reset", &c.rateLimit.Reset},
	} {
		raw := string(resp.Header.Peek(h.name))
		if raw == "" {
			continue
		}
		if val, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			*h.target = val
			seen = true
		}
	}
	if seen {
		c.rateLimit.UpdatedAt = time.Now()
	}
}

func (c *NexonClient) ListMatches(ctx context.Context, ouid, mode, matchType string) ([]MatchEntry, error) {
	query := url.Values{}
	query.Set("ouid", ouid)
	query.Set("match_mode", mode)
	if matchType != "" {
		query.Set("match_type", matchType)
	}
	resp, err := doRequest[MatchListResponse](ctx, c, "/suddenattack/v1/match", query)
	if err != nil {
		return nil, err
	}
	return resp.Match, nil
}

func (c *NexonClient) GetMatchDetail(ctx context.Context, matchID string) (*MatchDetailResponse, error) {
	query := url.Values{}
	query.Set("match_id", matchID)
	return doRequest[MatchDetailResponse](ctx, c, "/suddenattack/v1/match-detail", query)
}

func (c *NexonClient) GetUserBasic(ctx context.Context, ouid string) (*UserBasicResponse, error) {
	query := url.Values{}
	query.Set("ouid", ouid)
	return doRequest[UserBasicResponse](ctx, c, "/suddenattack/v1/user/basic", query)
}

func (c *NexonClient) GetUserTier(ctx context.Context, ouid string) (*UserTierResponse, error) {
	query := url.Values{}
	query.Set("ouid", ouid)
	return doRequest[UserTierResponse](ctx, c, "/suddenattack/v1/user/tier", query)
}

func (c *NexonClient) GetUserRank(ctx context.Context, ouid string) (*UserRankResponse, error) {
	query := url.Values{}
	query.Set("ouid", ouid)
	return doRequest[UserRankResponse](ctx, c, "/suddenattack/v1/user/rank", query)
}

func (c *NexonClient) GetMetadata(ctx context.Context, kind MetaKind) ([]MetaEntry, error) {
	path := "/static/suddenattack/meta/" + string(kind)

	switch kind {
	case MetaGrade:
		rows, err := doRequest[[]gradeMeta](ctx, c, path, nil)
		if err != nil {
			return nil, err
		}
		entries := make([]MetaEntry, 0, len(*rows))
		for _, r := range *rows {
			entries = append(entries, MetaEntry{Code: r.Grade, Image: r.GradeImage})
		}
		return entries, nil
	case MetaSeasonGrade:
		rows, err := doRequest[[]seasonGradeMeta](ctx, c, path, nil)
		if err != nil {
			return nil, err
		}
		entries := make([]MetaEntry, 0, len(*rows))
		for _, r := range *rows {
			entries = append(entries, MetaEntry{Code: r.SeasonGrade, Image: r.SeasonGradeImage})
		}
		return entries, nil
	case MetaTier:
		rows, err := doRequest[[]tierMeta](ctx, c, path, nil)
		if err != nil {
			return nil, err
		}
		entries := make([]MetaEntry, 0, len(*rows))
		for _, r := range *rows {
			entries = append(entries, MetaEntry{Code: r.Tier, Image: r.TierImage})
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("unknown metadata kind %q", kind)
	}
}

func doRequest[T any](ctx context.Context, client *NexonClient, path string, query url.Values) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := client.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("x-nxopen-api-key", client.apiKey)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ExternalAPITimeout)
	}
	if err := client.client.DoDeadline(req, resp, deadline); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransportError{Err: err}
	}
	client.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{
			Status: resp.StatusCode(),
			Hint:   parseRetryAfter(string(resp.Header.Peek("Retry-After")), time.Now()),
			Body:   truncate(string(resp.Body()), 256),
		}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
