package domain

// Upstream match modes.
const (
	ModeFreeForAll = "개인전"
	ModeDeathmatch = "데스매치"
	ModeBombing    = "폭파미션"
	ModeCollect    = "진짜를 모아라"
)

// Upstream match types.
const (
	TypeQuickClan   = "퀵매치 클랜전"
	TypeClanRanked  = "클랜 랭크전"
	TypeSoloRanked  = "솔로 랭크전"
	TypePartyRanked = "파티 랭크전"
	TypeClan        = "클랜전"
	TypeTournament  = "토너먼트"
	TypeNormal      = "일반전"
)

// ValidModes is ordered; history fetches walk it in this order.
var ValidModes = []string{ModeFreeForAll, ModeDeathmatch, ModeBombing, ModeCollect}

var ValidTypes = []string{TypeQuickClan, TypeClanRanked, TypeSoloRanked, TypePartyRanked, TypeClan, TypeTournament, TypeNormal}

func IsValidMode(mode string) bool {
	for _, m := range ValidModes {
		if m == mode {
			return true
		}
	}
	return false
}

func IsValidType(matchType string) bool {
	for _, t := range ValidTypes {
		if t == matchType {
			return true
		}
	}
	return false
}

type Category string

const (
	CategoryRankedSolo  Category = "ranked_solo"
	CategoryRankedParty Category = "ranked_party"
	CategoryClanRanked  Category = "clan_ranked"
	CategoryClanMatch   Category = "clan_match"
)

var Categories = []Category{CategoryRankedSolo, CategoryRankedParty, CategoryClanRanked, CategoryClanMatch}

// CategoryOf partitions a mode/type pair. Pairs outside the four buckets return false
// and are dropped from categorized output.
// TODO: confirm with the API owner whether quick-match clan games belong in clan_match.
func CategoryOf(mode, matchType string) (Category, bool) {
	if mode != ModeBombing {
		return "", false
	}
	switch matchType {
	case TypeSoloRanked:
		return CategoryRankedSolo, true
	case TypePartyRanked:
		return CategoryRankedParty, true
	case TypeClanRanked:
		return CategoryClanRanked, true
	case TypeClan:
		return CategoryClanMatch, true
	default:
		return "", false
	}
}

// Ranked reports whether the category feeds season stats.
func (c Category) Ranked() bool {
	return c == CategoryRankedSolo || c == CategoryRankedParty
}
