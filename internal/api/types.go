package api

import (
	"bytes"
	"strconv"
)

// RawID keeps an identifier exactly as upstream sent it, whether quoted or a bare number.
type RawID string

func (id *RawID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*id = RawID(s)
		return nil
	}
	*id = RawID(data)
	return nil
}

type MatchListResponse struct {
	Match []MatchEntry `json:"match"`
}

type MatchEntry struct {
	MatchID     RawID  `json:"match_id"`
	MatchType   string `json:"match_type"`
	MatchMode   string `json:"match_mode"`
	DateMatch   string `json:"date_match"`
	MatchResult string `json:"match_result"`
	Kill        int    `json:"kill"`
	Death       int    `json:"death"`
	Assist      int    `json:"assist"`
}

type MatchDetailResponse struct {
	MatchID     RawID              `json:"match_id"`
	MatchType   string             `json:"match_type"`
	MatchMode   string             `json:"match_mode"`
	DateMatch   string             `json:"date_match"`
	MatchMap    string             `json:"match_map"`
	MatchDetail []MatchParticipant `json:"match_detail"`
}

type MatchParticipant struct {
	TeamID      string `json:"team_id"`
	MatchResult string `json:"match_result"`
	UserName    string `json:"user_name"`
	SeasonGrade string `json:"season_grade"`
	ClanName    string `json:"clan_name"`
	Kill        int    `json:"kill"`
	Death       int    `json:"death"`
	Headshot    int    `json:"headshot"`
	Damage      int    `json:"damage"`
	Assist      int    `json:"assist"`
}

type UserBasicResponse struct {
	UserName       string `json:"user_name"`
	UserDateCreate string `json:"user_date_create"`
	TitleName      string `json:"title_name"`
	ClanName       string `json:"clan_name"`
	MannerGrade    string `json:"manner_grade"`
}

type UserTierResponse struct {
	UserName            string `json:"user_name"`
	SoloRankMatchTier   string `json:"solo_rank_match_tier"`
	SoloRankMatchScore  int    `json:"solo_rank_match_score"`
	PartyRankMatchTier  string `json:"party_rank_match_tier"`
	PartyRankMatchScore int    `json:"party_rank_match_score"`
}

type UserRankResponse struct {
	UserName           string `json:"user_name"`
	Grade              string `json:"grade"`
	GradeExp           int    `json:"grade_exp"`
	GradeRanking       int    `json:"grade_ranking"`
	SeasonGrade        string `json:"season_grade"`
	SeasonGradeExp     int    `json:"season_grade_exp"`
	SeasonGradeRanking int    `json:"season_grade_ranking"`
}

// MetaKind names one of the static image tables.
type MetaKind string

const (
	MetaGrade       MetaKind = "grade"
	MetaSeasonGrade MetaKind = "season_grade"
	MetaTier        MetaKind = "tier"
)

// MetaKinds is every image table, in load order.
var MetaKinds = []MetaKind{MetaGrade, MetaSeasonGrade, MetaTier}

type MetaEntry struct {
	Code  string
	Image string
}

type gradeMeta struct {
	Grade      string `json:"grade"`
	GradeImage string `json:"grade_image"`
}

type seasonGradeMeta struct {
	SeasonGrade      string `json:"season_grade"`
	SeasonGradeImage string `json:"season_grade_image"`
}

type tierMeta struct {
	Tier      string `json:"tier"`
	TierImage string `json:"tier_image"`
}
