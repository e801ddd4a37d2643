package service

import (
	"context"
	"sort"
	"time"

	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/config"
	"sa-match-gateway/internal/constants"
	"sa-match-gateway/internal/domain"
	apierrors "sa-match-gateway/internal/errors"
	"sa-match-gateway/internal/metadata"

	"github.com/rs/zerolog"
)

type PlayerService struct {
	gateway      *Gateway
	details      *MatchDetailService
	tierImages   metadata.Resolver
	gradeImages  metadata.Resolver
	seasonImages metadata.Resolver
	matchCap     int
	seasonStart  time.Time
	logger       zerolog.Logger
}

func NewPlayerService(gateway *Gateway, details *MatchDetailService, images ImageCatalog, cfg *config.Config, logger zerolog.Logger) *PlayerService {
	matchCap := cfg.HistoryMatchCap
	if matchCap <= 0 {
		matchCap = constants.HistoryMatchCap
	}
	return &PlayerService{
		gateway:      gateway,
		details:      details,
		tierImages:   images.Resolver(api.MetaTier),
		gradeImages:  images.Resolver(api.MetaGrade),
		seasonImages: images.Resolver(api.MetaSeasonGrade),
		matchCap:     matchCap,
		seasonStart:  cfg.StatsSeasonStart,
		logger:       logger,
	}
}

// FetchProfile looks up the player's name and ranked tiers. Only the basic
// lookup is required; tier and grade failures leave those fields empty.
func (s *PlayerService) FetchProfile(ctx context.Context, ouid string) (*domain.Profile, error) {
	basic, err := invoke(ctx, s.gateway, "player "+ouid, func(ctx context.Context, upstream api.Upstream) (*api.UserBasicResponse, error) {
		return upstream.GetUserBasic(ctx, ouid)
	})
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{OUID: ouid, UserName: basic.UserName}

	tier, err := invoke(ctx, s.gateway, "player tier", func(ctx context.Context, upstream api.Upstream) (*api.UserTierResponse, error) {
		return upstream.GetUserTier(ctx, ouid)
	})
	if err != nil {
		if apierrors.KindOf(err) == apierrors.KindCanceled {
			return nil, err
		}
		s.logger.Warn().Err(err).Str("ouid", ouid).Msg("failed to fetch player tier")
	} else {
		profile.SoloTier = tier.SoloRankMatchTier
		profile.SoloTierScore = tier.SoloRankMatchScore
		profile.PartyTier = tier.PartyRankMatchTier
		profile.PartyTierScore = tier.PartyRankMatchScore
	}

	rank, err := invoke(ctx, s.gateway, "player rank", func(ctx context.Context, upstream api.Upstream) (*api.UserRankResponse, error) {
		return upstream.GetUserRank(ctx, ouid)
	})
	if err != nil {
		if apierrors.KindOf(err) == apierrors.KindCanceled {
			return nil, err
		}
		s.logger.Warn().Err(err).Str("ouid", ouid).Msg("failed to fetch player rank")
	} else {
		profile.Grade = rank.Grade
		profile.GradeRank = rank.GradeRanking
		profile.SeasonGrade = rank.SeasonGrade
		profile.SeasonGradeRank = rank.SeasonGradeRanking
	}

	return profile, nil
}

// FetchPlayerHistory collects the player's most recent matches over every mode,
// buckets them by category and summarizes ranked play for the current season.
// Detail fetches run one at a time.
func (s *PlayerService) FetchPlayerHistory(ctx context.Context, ouid string, useKST bool) (*domain.History, error) {
	ouid, err := validateOUID(ouid)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.HistoryTimeout)
	defer cancel()

	profile, err := s.FetchProfile(ctx, ouid)
	if err != nil {
		s.logger.Error().Err(err).Str("ouid", ouid).Msg("player not found")
		return nil, err
	}

	s.logger.Info().Str("ouid", ouid).Str("user_name", profile.UserName).Msg("building match history")

	records, err := s.recentMatches(ctx, ouid)
	if err != nil {
		return nil, err
	}

	history := &domain.History{
		OUID:         ouid,
		TotalMatches: len(records),
		Matches:      make([]domain.MatchSummary, 0, len(records)),
		MatchDetails: domain.CategorizedDetails{
			RankedSolo:  []domain.MatchDetailSummary{},
			RankedParty: []domain.MatchDetailSummary{},
			ClanRanked:  []domain.MatchDetailSummary{},
			ClanMatch:   []domain.MatchDetailSummary{},
		},
	}

	var solo, party rankedTally
	failed := 0
	for i := range records {
		record := &records[i]

		detail, err := s.details.detail(ctx, record.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apierrors.Canceled(ctx.Err())
			}
			failed++
			s.logger.Warn().Err(err).Str("ouid", ouid).Str("match_id", string(record.ID)).Msg("failed to fetch match detail, excluding from categories")
			continue
		}

		if own, ok := findParticipant(detail, profile.UserName); ok {
			record.Damage = own.Damage
			record.Headshots = own.Headshots
			if record.Outcome == domain.OutcomeUnknown {
				record.Outcome = own.Outcome
			}
		}

		category, ok := domain.CategoryOf(record.Mode, record.Type)
		if !ok {
			continue
		}
		summary := domain.NewMatchDetailSummary(*detail, useKST)
		summary.MatchResult = record.Outcome
		history.MatchDetails.Append(category, summary)

		if !category.Ranked() || record.Timestamp.Before(s.seasonStart) {
			continue
		}
		switch category {
		case domain.CategoryRankedSolo:
			solo.add(*record)
		case domain.CategoryRankedParty:
			party.add(*record)
		}
	}

	for _, r := range records {
		history.Matches = append(history.Matches, domain.NewMatchSummary(r, useKST))
	}

	history.FinalSeasonStats = domain.SeasonStats{
		RankedSolo:  solo.summary(profile.SoloTier, profile.SoloTierScore, image(s.tierImages, profile.SoloTier)),
		RankedParty: party.summary(profile.PartyTier, profile.PartyTierScore, image(s.tierImages, profile.PartyTier)),
		Grade: domain.GradeSummary{
			Grade:              profile.Grade,
			GradeRanking:       profile.GradeRank,
			GradeImage:         image(s.gradeImages, profile.Grade),
			SeasonGrade:        profile.SeasonGrade,
			SeasonGradeRanking: profile.SeasonGradeRank,
			SeasonGradeImage:   image(s.seasonImages, profile.SeasonGrade),
		},
	}

	s.logger.Info().
		Str("ouid", ouid).
		Int("total_matches", history.TotalMatches).
		Int("failed_details", failed).
		Msg("match history built")

	return history, nil
}

// recentMatches lists every mode in turn, keeps the first occurrence of each
// match id and returns at most matchCap records, newest first. A mode whose
// listing fails is skipped unless every mode fails.
func (s *PlayerService) recentMatches(ctx context.Context, ouid string) ([]domain.MatchRecord, error) {
	seen := make(map[domain.MatchID]struct{})
	var records []domain.MatchRecord
	var lastErr error
	succeeded := 0

	for _, mode := range domain.ValidModes {
		entries, err := invoke(ctx, s.gateway, "match list", func(ctx context.Context, upstream api.Upstream) ([]api.MatchEntry, error) {
			return upstream.ListMatches(ctx, ouid, mode, "")
		})
		if err != nil {
			if apierrors.KindOf(err) == apierrors.KindCanceled {
				return nil, err
			}
			lastErr = err
			s.logger.Warn().Err(err).Str("ouid", ouid).Str("mode", mode).Msg("failed to list matches for mode")
			continue
		}
		succeeded++

		for _, entry := range entries {
			record, ok := toMatchRecord(entry)
			if !ok {
				s.logger.Warn().Str("match_id", string(entry.MatchID)).Msg("unparseable match timestamp")
			}
			if _, dup := seen[record.ID]; dup {
				continue
			}
			seen[record.ID] = struct{}{}
			records = append(records, record)
		}
	}

	if succeeded == 0 && lastErr != nil {
		return nil, lastErr
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if len(records) > s.matchCap {
		records = records[:s.matchCap]
	}
	return records, nil
}

func image(resolver metadata.Resolver, code string) string {
	url, _ := resolver.ResolveDisplayImage(code)
	return url
}
