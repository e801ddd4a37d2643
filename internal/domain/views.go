package domain

import (
	"time"

	"sa-match-gateway/internal/constants"
)

var kst = time.FixedZone("KST", constants.KSTOffset)

// ToKST returns t in the fixed UTC+9 display zone.
func ToKST(t time.Time) time.Time {
	return t.In(kst)
}

// DisplayTimes renders an instant in both zones. display is whichever one useKST selects.
func DisplayTimes(t time.Time, useKST bool) (display, utc, local string) {
	utc = t.UTC().Format(time.RFC3339)
	local = ToKST(t).Format(time.RFC3339)
	if useKST {
		return local, utc, local
	}
	return utc, utc, local
}

type MatchSummary struct {
	MatchID      MatchID `json:"match_id"`
	MatchMode    string  `json:"match_mode"`
	MatchType    string  `json:"match_type"`
	DateMatch    string  `json:"date_match"`
	DateMatchUTC string  `json:"date_match_utc"`
	DateMatchKST string  `json:"date_match_kst"`
	MatchResult  Outcome `json:"match_result"`
	Kill         int     `json:"kill"`
	Death        int     `json:"death"`
	Assist       int     `json:"assist"`
	Damage       int     `json:"damage"`
	Headshot     int     `json:"headshot"`
}

func NewMatchSummary(r MatchRecord, useKST bool) MatchSummary {
	display, utc, local := DisplayTimes(r.Timestamp, useKST)
	return MatchSummary{
		MatchID:      r.ID,
		MatchMode:    r.Mode,
		MatchType:    r.Type,
		DateMatch:    display,
		DateMatchUTC: utc,
		DateMatchKST: local,
		MatchResult:  r.Outcome,
		Kill:         r.Kills,
		Death:        r.Deaths,
		Assist:       r.Assists,
		Damage:       r.Damage,
		Headshot:     r.Headshots,
	}
}

type ParticipantSummary struct {
	TeamID      string  `json:"team_id"`
	UserName    string  `json:"user_name"`
	ClanName    string  `json:"clan_name"`
	SeasonGrade string  `json:"season_grade"`
	GradeImage  string  `json:"season_grade_image,omitempty"`
	MatchResult Outcome `json:"match_result"`
	Kill        int     `json:"kill"`
	Death       int     `json:"death"`
	Assist      int     `json:"assist"`
	Damage      int     `json:"damage"`
	Headshot    int     `json:"headshot"`
}

type MatchDetailSummary struct {
	MatchID      MatchID              `json:"match_id"`
	MatchMode    string               `json:"match_mode"`
	MatchType    string               `json:"match_type"`
	MatchMap     string               `json:"match_map"`
	DateMatch    string               `json:"date_match"`
	DateMatchUTC string               `json:"date_match_utc"`
	DateMatchKST string               `json:"date_match_kst"`
	MatchResult  Outcome              `json:"match_result"`
	Participants []ParticipantSummary `json:"match_detail"`
}

func NewMatchDetailSummary(d MatchDetail, useKST bool) MatchDetailSummary {
	display, utc, local := DisplayTimes(d.Record.Timestamp, useKST)
	participants := make([]ParticipantSummary, 0, len(d.Participants))
	for _, p := range d.Participants {
		participants = append(participants, ParticipantSummary{
			TeamID:      p.TeamID,
			UserName:    p.UserName,
			ClanName:    p.ClanName,
			SeasonGrade: p.RankCode,
			GradeImage:  p.RankImage,
			MatchResult: p.Outcome,
			Kill:        p.Kills,
			Death:       p.Deaths,
			Assist:      p.Assists,
			Damage:      p.Damage,
			Headshot:    p.Headshots,
		})
	}
	return MatchDetailSummary{
		MatchID:      d.Record.ID,
		MatchMode:    d.Record.Mode,
		MatchType:    d.Record.Type,
		MatchMap:     d.Map,
		DateMatch:    display,
		DateMatchUTC: utc,
		DateMatchKST: local,
		MatchResult:  d.Record.Outcome,
		Participants: participants,
	}
}

// RankedStatsSummary is the per-category season aggregate for ranked play.
type RankedStatsSummary struct {
	TotalGames    int     `json:"total_games"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	KillDeath     float64 `json:"kd"`
	HeadshotRate  float64 `json:"headshot_rate"`
	AverageDamage float64 `json:"average_damage"`
	RankName      string  `json:"rank_name"`
	RankPoints    int     `json:"rank_points"`
	RankImage     string  `json:"rank_image,omitempty"`
}

type CategorizedDetails struct {
	RankedSolo  []MatchDetailSummary `json:"ranked_solo"`
	RankedParty []MatchDetailSummary `json:"ranked_party"`
	ClanRanked  []MatchDetailSummary `json:"clan_ranked"`
	ClanMatch   []MatchDetailSummary `json:"clan_match"`
}

// Append routes a detail into its bucket.
func (c *CategorizedDetails) Append(category Category, d MatchDetailSummary) {
	switch category {
	case CategoryRankedSolo:
		c.RankedSolo = append(c.RankedSolo, d)
	case CategoryRankedParty:
		c.RankedParty = append(c.RankedParty, d)
	case CategoryClanRanked:
		c.ClanRanked = append(c.ClanRanked, d)
	case CategoryClanMatch:
		c.ClanMatch = append(c.ClanMatch, d)
	}
}

// GradeSummary is the player's overall and current-season grade.
type GradeSummary struct {
	Grade              string `json:"grade"`
	GradeRanking       int    `json:"grade_ranking"`
	GradeImage         string `json:"grade_image,omitempty"`
	SeasonGrade        string `json:"season_grade"`
	SeasonGradeRanking int    `json:"season_grade_ranking"`
	SeasonGradeImage   string `json:"season_grade_image,omitempty"`
}

type SeasonStats struct {
	RankedSolo  RankedStatsSummary `json:"ranked_solo"`
	RankedParty RankedStatsSummary `json:"ranked_party"`
	Grade       GradeSummary       `json:"grade"`
}

type History struct {
	OUID             string             `json:"ouid"`
	TotalMatches     int                `json:"total_matches"`
	Matches          []MatchSummary     `json:"matches"`
	MatchDetails     CategorizedDetails `json:"match_details"`
	FinalSeasonStats SeasonStats        `json:"final_season_stats"`
}

type Page struct {
	Matches []MatchSummary `json:"matches"`
	Cursor  string         `json:"cursor"`
	HasMore bool           `json:"hasMore"`
}
