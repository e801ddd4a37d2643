package service

import (
	"strings"
	"time"

	"sa-match-gateway/internal/api"
	"sa-match-gateway/internal/domain"
	"sa-match-gateway/internal/metadata"
)

// parseMatchTime reads upstream timestamps. Values without an offset are UTC.
func parseMatchTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func toMatchRecord(entry api.MatchEntry) (domain.MatchRecord, bool) {
	ts, ok := parseMatchTime(entry.DateMatch)
	return domain.MatchRecord{
		ID:        domain.MatchID(entry.MatchID),
		Mode:      entry.MatchMode,
		Type:      entry.MatchType,
		Timestamp: ts,
		Outcome:   domain.ClassifyResult(entry.MatchResult),
		Kills:     entry.Kill,
		Deaths:    entry.Death,
		Assists:   entry.Assist,
	}, ok
}

func toMatchDetail(resp *api.MatchDetailResponse, resolver metadata.Resolver) (*domain.MatchDetail, bool) {
	ts, ok := parseMatchTime(resp.DateMatch)

	participants := make([]domain.Participant, 0, len(resp.MatchDetail))
	for _, p := range resp.MatchDetail {
		image, _ := resolver.ResolveDisplayImage(p.SeasonGrade)
		participants = append(participants, domain.Participant{
			TeamID:    p.TeamID,
			UserName:  p.UserName,
			ClanName:  p.ClanName,
			RankCode:  p.SeasonGrade,
			RankImage: image,
			Outcome:   domain.ClassifyResult(p.MatchResult),
			Kills:     p.Kill,
			Deaths:    p.Death,
			Assists:   p.Assist,
			Damage:    p.Damage,
			Headshots: p.Headshot,
		})
	}

	return &domain.MatchDetail{
		Record: domain.MatchRecord{
			ID:        domain.MatchID(resp.MatchID),
			Mode:      resp.MatchMode,
			Type:      resp.MatchType,
			Timestamp: ts,
			Outcome:   domain.OutcomeUnknown,
		},
		Map:          resp.MatchMap,
		Participants: participants,
	}, ok
}

// findParticipant locates the player's own row in a detail by user name.
func findParticipant(detail *domain.MatchDetail, userName string) (domain.Participant, bool) {
	if userName == "" {
		return domain.Participant{}, false
	}
	for _, p := range detail.Participants {
		if p.UserName == userName {
			return p, true
		}
	}
	return domain.Participant{}, false
}
