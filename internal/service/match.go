package service

import (
	"context"
	"strings"

	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/constants"
	"sa-match-gateway/internal/domain"
	apierrors "sa-match-gateway/internal/errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type PageRequest struct {
	OUID   string
	Mode   string
	Type   string
	Cursor string
	Limit  int
	UseKST bool
}

type MatchService struct {
	gateway *Gateway
	logger  zerolog.Logger
}

func NewMatchService(gateway *Gateway, logger zerolog.Logger) *MatchService {
	return &MatchService{gateway: gateway, logger: logger}
}

func validateOUID(ouid string) (string, error) {
	ouid = strings.TrimSpace(ouid)
	if ouid == "" {
		return "", apierrors.Validation("ouid", "ouid is required")
	}
	return ouid, nil
}

func (req *PageRequest) validate() error {
	ouid, err := validateOUID(req.OUID)
	if err != nil {
		return err
	}
	req.OUID = ouid

	if !domain.IsValidMode(req.Mode) {
		return apierrors.Validation("mode", "invalid mode %q", req.Mode)
	}
	if req.Type != "" && !domain.IsValidType(req.Type) {
		return apierrors.Validation("type", "invalid type %q", req.Type)
	}

	switch {
	case req.Limit <= 0:
		req.Limit = constants.DefaultPageLimit
	case req.Limit > constants.MaxPageLimit:
		req.Limit = constants.MaxPageLimit
	}
	return nil
}

// FetchPage returns one page of a player's matches in upstream order.
// HasMore is set when more than Limit records remained after the cursor.
func (s *MatchService) FetchPage(ctx context.Context, req PageRequest) (*domain.Page, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	query := queryKey(req.OUID, req.Mode, req.Type)
	cursor, err := decodeCursor(req.Cursor)
	if err != nil {
		return nil, apierrors.Validation("cursor", "%s", err.Error())
	}
	if cursor != nil && cursor.Query != query {
		return nil, apierrors.Validation("cursor", "cursor was issued for a different query")
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	entries, err := invoke(ctx, s.gateway, "match list", func(ctx context.Context, upstream api.Upstream) ([]api.MatchEntry, error) {
		return upstream.ListMatches(ctx, req.OUID, req.Mode, req.Type)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("ouid", req.OUID).Str("mode", req.Mode).Msg("failed to fetch match list")
		return nil, err
	}

	records := s.toRecords(entries)
	start := cursor.startIndex(records)
	remaining := records[start:]

	pageSize := len(remaining)
	if pageSize > req.Limit {
		pageSize = req.Limit
	}

	page := &domain.Page{
		Matches: make([]domain.MatchSummary, 0, pageSize),
		HasMore: len(remaining) > req.Limit,
	}
	for _, r := range remaining[:pageSize] {
		page.Matches = append(page.Matches, domain.NewMatchSummary(r, req.UseKST))
	}
	if page.HasMore {
		page.Cursor = encodeCursor(pageCursor{
			Query:  query,
			LastID: remaining[pageSize-1].ID,
			Offset: start + pageSize,
		})
	}

	s.logger.Debug().
		Str("ouid", req.OUID).
		Int("upstream_count", len(records)).
		Int("returned", pageSize).
		Bool("has_more", page.HasMore).
		Msg("match page fetched")

	return page, nil
}

func (s *MatchService) toRecords(entries []api.MatchEntry) []domain.MatchRecord {
	records := make([]domain.MatchRecord, 0, len(entries))
	for _, entry := range entries {
		record, ok := toMatchRecord(entry)
		if !ok {
			s.logger.Warn().Str("match_id", string(entry.MatchID)).Str("date_match", entry.DateMatch).Msg("unparseable match timestamp")
		}
		records = append(records, record)
	}
	return records
}
