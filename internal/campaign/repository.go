// Package campaign owns the campaign list shown by the dashboard. It reconciles the
// authoritative record store with the local cache and keeps the session list.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonathan/buyside/internal/logging"
	"github.com/jonathan/buyside/internal/types"
	"go.uber.org/zap"
)

// RecordStore is the authoritative campaign store.
type RecordStore interface {
	ListCampaigns(ctx context.Context) ([]types.Campaign, error)
	CreateCampaign(ctx context.Context, c types.Campaign) (*types.Campaign, error)
}

// Cache is the local durable copy of the last known list.
type Cache interface {
	Load(ctx context.Context) ([]types.Campaign, error)
	Save(ctx context.Context, campaigns []types.Campaign) error
}

// Repository serves the campaign list. Writes go to the record store first; the
// cache only ever receives lists the record store has confirmed.
type Repository struct {
	store  RecordStore
	cache  Cache
	logger *zap.Logger

	mu        sync.RWMutex
	campaigns []types.Campaign
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the repository logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// NewRepository builds a repository and rehydrates the session list from cache.
// Either collaborator may be nil.
func NewRepository(ctx context.Context, store RecordStore, cache Cache, opts ...Option) *Repository {
	r := &Repository{store: store, cache: cache, campaigns: []types.Campaign{}}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger)

	if cache != nil {
		cached, err := cache.Load(ctx)
		if err != nil {
			r.logger.Warn("failed to load campaign cache", zap.Error(err))
		} else {
			r.campaigns = cached
		}
	}
	return r
}

// ErrNoStore is returned when no record store is configured and nothing is cached.
var ErrNoStore = errors.New("campaign record store not configured")

// List reads the record store, refreshing the session list and the cache on success.
// When the store fails the cached list is served instead, if there is one.
func (r *Repository) List(ctx context.Context) ([]types.Campaign, error) {
	if r.store == nil {
		return r.fallback(ErrNoStore)
	}

	campaigns, err := r.store.ListCampaigns(ctx)
	if err != nil {
		return r.fallback(err)
	}
	if campaigns == nil {
		campaigns = []types.Campaign{}
	}

	r.mu.Lock()
	r.campaigns = campaigns
	r.mu.Unlock()

	r.mirror(ctx, campaigns)
	return clone(campaigns), nil
}

// Create persists c. On success the stored record is prepended to the session list
// and mirrored to the cache; on failure nothing changes.
func (r *Repository) Create(ctx context.Context, c types.Campaign) (*types.Campaign, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}

	stored, err := r.store.CreateCampaign(ctx, c)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = &c
	}

	r.mu.Lock()
	next := make([]types.Campaign, 0, len(r.campaigns)+1)
	next = append(next, *stored)
	next = append(next, r.campaigns...)
	r.campaigns = next
	r.mu.Unlock()

	r.mirror(ctx, next)
	return stored, nil
}

// Campaigns returns a copy of the session list, newest first.
func (r *Repository) Campaigns() []types.Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.campaigns)
}

func (r *Repository) fallback(cause error) ([]types.Campaign, error) {
	r.mu.RLock()
	cached := clone(r.campaigns)
	r.mu.RUnlock()

	if len(cached) == 0 {
		return nil, fmt.Errorf("failed to list campaigns: %w", cause)
	}
	r.logger.Warn("record store unavailable, serving cached campaigns",
		zap.Error(cause), zap.Int("count", len(cached)))
	return cached, nil
}

func (r *Repository) mirror(ctx context.Context, campaigns []types.Campaign) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Save(ctx, campaigns); err != nil {
		r.logger.Warn("failed to update campaign cache", zap.Error(err))
	}
}

func clone(in []types.Campaign) []types.Campaign {
	out := make([]types.Campaign, len(in))
	copy(out, in)
	return out
}
