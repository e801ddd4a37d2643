package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sa-match-gateway/internal/constants"
	"sa-match-gateway/internal/domain"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MatchDetailRepository is the persistent tier of the detail cache.
// Details are immutable upstream, so a stored row never expires.
type MatchDetailRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchDetailRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchDetailRepository {
	return &MatchDetailRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Get returns nil without error when the match is not stored.
func (r *MatchDetailRepository) Get(ctx context.Context, matchID domain.MatchID) (*domain.MatchDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM match_details WHERE match_id = ?`,
		string(matchID),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match detail %s: %w", matchID, err)
	}

	var detail domain.MatchDetail
	if err := json.UnmarshalFromString(payload, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode match detail %s: %w", matchID, err)
	}
	return &detail, nil
}

// Save stores detail, replacing any earlier copy.
func (r *MatchDetailRepository) Save(ctx context.Context, detail *domain.MatchDetail) error {
	payload, err := json.MarshalToString(detail)
	if err != nil {
		return fmt.Errorf("failed to encode match detail %s: %w", detail.Record.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO match_details (match_id, match_mode, match_type, date_match, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET
			match_mode = excluded.match_mode,
			match_type = excluded.match_type,
			date_match = excluded.date_match,
			payload    = excluded.payload,
			fetched_at = excluded.fetched_at`,
		string(detail.Record.ID),
		detail.Record.Mode,
		detail.Record.Type,
		detail.Record.Timestamp.UTC(),
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save match detail %s: %w", detail.Record.ID, err)
	}
	return nil
}
