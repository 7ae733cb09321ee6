package services

import (
	"context"
	"sync"
	"time"

	"cellardoor/internal/clubapi"
	"cellardoor/internal/domain"
)

// listCacheTTL keeps the club listing warm between page views without
// letting it go stale for long.
const listCacheTTL = time.Minute

// ClubService fronts the catalog client. The listing is cached briefly;
// club details are always fetched fresh per wizard start, since a
// wizard session must see current restrictions and prices.
type ClubService struct {
	client *clubapi.Client

	mu        sync.RWMutex
	cached    []domain.Club
	fetchedAt time.Time
}

func NewClubService(client *clubapi.Client) *ClubService {
	return &ClubService{client: client}
}

func (s *ClubService) ListClubs(ctx context.Context) []domain.Club {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.fetchedAt) < listCacheTTL {
		clubs := s.cached
		s.mu.RUnlock()
		return clubs
	}
	s.mu.RUnlock()

	clubs := s.client.ListClubs(ctx)
	if len(clubs) == 0 {
		// Don't cache failures; the next view should retry.
		return clubs
	}
	s.mu.Lock()
	s.cached = clubs
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return clubs
}

func (s *ClubService) GetClubDetails(ctx context.Context, clubID string) *domain.ClubDetails {
	return s.client.GetClubDetails(ctx, clubID)
}
