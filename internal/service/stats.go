package service

import (
	"math"

	"sa-match-gateway/internal/domain"
)

// rankedTally accumulates one ranked category over the current season.
type rankedTally struct {
	games     int
	wins      int
	losses    int
	kills     int
	deaths    int
	headshots int
	damage    int
}

func (t *rankedTally) add(r domain.MatchRecord) {
	t.games++
	switch r.Outcome {
	case domain.OutcomeWin:
		t.wins++
	case domain.OutcomeLose:
		t.losses++
	}
	t.kills += r.Kills
	t.deaths += r.Deaths
	t.headshots += r.Headshots
	t.damage += r.Damage
}

func (t rankedTally) summary(rankName string, rankPoints int, rankImage string) domain.RankedStatsSummary {
	s := domain.RankedStatsSummary{
		TotalGames: t.games,
		Wins:       t.wins,
		Losses:     t.losses,
		RankName:   rankName,
		RankPoints: rankPoints,
		RankImage:  rankImage,
	}
	if t.games > 0 {
		s.WinRate = round2(float64(t.wins) / float64(t.games) * 100)
		s.AverageDamage = round2(float64(t.damage) / float64(t.games))
	}
	s.KillDeath = round2(float64(t.kills) / float64(max(t.deaths, 1)) * 100)
	if t.kills > 0 {
		s.HeadshotRate = round2(float64(t.headshots) / float64(t.kills) * 100)
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
