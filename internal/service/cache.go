package service

import (
	"sa-match-gateway/internal/metadata"
)

const (
	DetailCacheName   = "match_details"
	MetadataCacheName = "metadata"
)

type CacheService struct {
	details *MatchDetailService
	catalog *metadata.Catalog
}

func NewCacheService(details *MatchDetailService, catalog *metadata.Catalog) *CacheService {
	return &CacheService{details: details, catalog: catalog}
}

func (s *CacheService) All() []CacheStats {
	return []CacheStats{s.details.Stats(), s.metadataStats()}
}

func (s *CacheService) ByName(name string) (CacheStats, bool) {
	switch name {
	case DetailCacheName:
		return s.details.Stats(), true
	case MetadataCacheName:
		return s.metadataStats(), true
	default:
		return CacheStats{}, false
	}
}

// Metadata is preloaded, so only the entry count is meaningful.
func (s *CacheService) metadataStats() CacheStats {
	return CacheStats{Name: MetadataCacheName, Entries: int64(s.catalog.Len())}
}
