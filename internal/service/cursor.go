package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	"sa-match-gateway/internal/domain"
)

// pageCursor anchors the next page at the last match returned. Offset is used
// only when the anchor is no longer present upstream. Query ties the cursor to
// the listing it was issued for.
type pageCursor struct {
	Query  string         `json:"q"`
	LastID domain.MatchID `json:"id"`
	Offset int            `json:"off"`
}

// queryKey identifies one upstream listing.
func queryKey(ouid, mode, matchType string) string {
	return strings.Join([]string{ouid, mode, matchType}, "\x1f")
}

func encodeCursor(c pageCursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (*pageCursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}
	var c pageCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}
	if c.Offset < 0 {
		return nil, fmt.Errorf("malformed cursor: negative offset")
	}
	return &c, nil
}

// startIndex returns where the page after c begins within records.
func (c *pageCursor) startIndex(records []domain.MatchRecord) int {
	if c == nil {
		return 0
	}
	if c.LastID != "" {
		for i, r := range records {
			if r.ID == c.LastID {
				return i + 1
			}
		}
	}
	if c.Offset > len(records) {
		return len(records)
	}
	return c.Offset
}
