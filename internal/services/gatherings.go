package services

import (
	"context"
	"log"
	"strconv"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/models"
)

// GatheringService reads gatherings for display, through the cache.
type GatheringService struct {
	cache *CacheService
}

func NewGatheringService(cache *CacheService) *GatheringService {
	return &GatheringService{cache: cache}
}

// Get returns the gathering or nil when the backend has none with id.
// Missing gatherings are not cached so a newly created one shows up at once.
func (s *GatheringService) Get(ctx context.Context, h backend.Handle, id uint64) (*models.Gathering, error) {
	key := CacheKey("gathering", strconv.FormatUint(id, 10))

	var cached models.Gathering
	if s.cache != nil {
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("gathering cache read failed: %v", err)
		}
		if found {
			return &cached, nil
		}
	}

	list, err := h.GetGathering(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	g := list[0]
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, g); err != nil {
			log.Printf("gathering cache write failed: %v", err)
		}
	}
	return &g, nil
}

// Forget drops a cached gathering.
func (s *GatheringService) Forget(ctx context.Context, id uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKey("gathering", strconv.FormatUint(id, 10))); err != nil {
		log.Printf("gathering cache delete failed: %v", err)
	}
}
