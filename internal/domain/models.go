package domain

import (
	"time"
)

// MatchID is the upstream match identifier. It is opaque and never parsed as a number.
type MatchID string

type Outcome string

const (
	OutcomeWin     Outcome = "WIN"
	OutcomeLose    Outcome = "LOSE"
	OutcomeUnknown Outcome = "UNKNOWN"
)

// ClassifyResult maps the upstream match_result code.
func ClassifyResult(code string) Outcome {
	switch code {
	case "1":
		return OutcomeWin
	case "2":
		return OutcomeLose
	default:
		return OutcomeUnknown
	}
}

type MatchRecord struct {
	ID        MatchID
	Mode      string
	Type      string
	Timestamp time.Time // always UTC
	Outcome   Outcome
	Kills     int
	Deaths    int
	Assists   int
	Damage    int
	Headshots int
}

type Participant struct {
	TeamID    string
	UserName  string
	ClanName  string
	RankCode  string
	RankImage string
	Outcome   Outcome
	Kills     int
	Deaths    int
	Assists   int
	Damage    int
	Headshots int
}

// MatchDetail may carry no participants when upstream returned a partial payload.
type MatchDetail struct {
	Record       MatchRecord
	Map          string
	Participants []Participant
}

// Profile is the subset of upstream account data the aggregator needs.
type Profile struct {
	OUID            string
	UserName        string
	SoloTier        string
	SoloTierScore   int
	PartyTier       string
	PartyTierScore  int
	Grade           string
	GradeRank       int
	SeasonGrade     string
	SeasonGradeRank int
}
