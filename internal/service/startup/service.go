package startup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	model "github.com/earlysignal/backend/internal/model/startup"
	"github.com/earlysignal/backend/pkg/logger"
)

// DemoInvestorID owns the seeded favorites.
const DemoInvestorID = "demo"

var (
	ErrStartupNotFound = errors.New("startup not found")
)

// Filter narrows the dashboard listing. Zero fields match everything.
type Filter struct {
	Industry   string
	Stage      model.Stage
	Location   string
	MinAIScore int
	Search     string
}

func (f Filter) matches(item model.Startup) bool {
	if f.Industry != "" && item.Industry != f.Industry {
		return false
	}
	if f.Stage != "" && item.Stage != f.Stage {
		return false
	}
	if f.Location != "" && !containsFold(item.Location, f.Location) {
		return false
	}
	if f.MinAIScore > 0 && item.AIScore < f.MinAIScore {
		return false
	}
	return matchesSearch(item, f.Search)
}

// Service serves the investor dashboard: listing, filtering and favorites.
type Service struct {
	store model.Store

	mu        sync.RWMutex
	favorites map[string]map[string]struct{}
}

// NewService wraps a startup store. The demo investor starts with the seeded favorites.
func NewService(store model.Store) *Service {
	s := &Service{
		store:     store,
		favorites: make(map[string]map[string]struct{}),
	}
	for _, id := range model.SeedFavorites() {
		if _, ok := store.FindByID(id); ok {
			s.favoritesOf(DemoInvestorID)[id] = struct{}{}
		}
	}
	return s
}

// Filter lists startups matching f in store order.
func (s *Service) Filter(_ context.Context, f Filter) []model.Startup {
	all := s.store.List()
	result := make([]model.Startup, 0, len(all))
	for _, item := range all {
		if f.matches(item) {
			result = append(result, item)
		}
	}
	return result
}

// FindByID looks a startup up.
func (s *Service) FindByID(_ context.Context, id string) (model.Startup, error) {
	item, ok := s.store.FindByID(id)
	if !ok {
		return model.Startup{}, fmt.Errorf("find startup %q: %w", id, ErrStartupNotFound)
	}
	return item, nil
}

// ToggleFavorite flips the bookmark and reports whether it is now set.
func (s *Service) ToggleFavorite(ctx context.Context, investorID, startupID string) (bool, error) {
	if _, ok := s.store.FindByID(startupID); !ok {
		return false, fmt.Errorf("toggle favorite %q: %w", startupID, ErrStartupNotFound)
	}

	s.mu.Lock()
	set := s.favoritesOf(investorID)
	_, was := set[startupID]
	if was {
		delete(set, startupID)
	} else {
		set[startupID] = struct{}{}
	}
	s.mu.Unlock()

	logger.WithCtx(ctx).Info("favorite toggled",
		zap.String("investor_id", investorID),
		zap.String("startup_id", startupID),
		zap.Bool("favorite", !was))
	return !was, nil
}

// IsFavorite reports whether investorID bookmarked startupID.
func (s *Service) IsFavorite(_ context.Context, investorID, startupID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[investorID][startupID]
	return ok
}

// Favorites returns the investor's bookmarked startups, optionally narrowed by search.
func (s *Service) Favorites(_ context.Context, investorID, search string) []model.Startup {
	s.mu.RLock()
	ids := make([]string, 0, len(s.favorites[investorID]))
	for id := range s.favorites[investorID] {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	result := make([]model.Startup, 0, len(ids))
	for _, id := range ids {
		item, ok := s.store.FindByID(id)
		if !ok || !matchesSearch(item, search) {
			continue
		}
		result = append(result, item)
	}
	return result
}

// favoritesOf must be called with mu held for writing.
func (s *Service) favoritesOf(investorID string) map[string]struct{} {
	set, ok := s.favorites[investorID]
	if !ok {
		set = make(map[string]struct{})
		s.favorites[investorID] = set
	}
	return set
}

func matchesSearch(item model.Startup, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	return containsFold(item.Name, search) || containsFold(item.ShortDescription, search)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
