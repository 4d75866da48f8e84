package campaign

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/buyside/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	rows      []types.Campaign
	listErr   error
	createErr error
	creates   int
}

func (f *fakeStore) ListCampaigns(_ context.Context) ([]types.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]types.Campaign(nil), f.rows...), nil
}

func (f *fakeStore) CreateCampaign(_ context.Context, c types.Campaign) (*types.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.rows = append([]types.Campaign{c}, f.rows...)
	return &c, nil
}

type fakeCache struct {
	saved   [][]types.Campaign
	loaded  []types.Campaign
	loadErr error
	saveErr error
}

func (f *fakeCache) Load(_ context.Context) ([]types.Campaign, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.loaded == nil {
		return []types.Campaign{}, nil
	}
	return f.loaded, nil
}

func (f *fakeCache) Save(_ context.Context, campaigns []types.Campaign) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, append([]types.Campaign(nil), campaigns...))
	return nil
}

func (f *fakeCache) last() []types.Campaign {
	if len(f.saved) == 0 {
		return nil
	}
	return f.saved[len(f.saved)-1]
}

func mk(id string, status types.PolicyStatus, budget int) types.Campaign {
	return types.Campaign{
		ID:           id,
		Name:         "Campaign " + id,
		Budget:       budget,
		Keywords:     []string{},
		ReviewPolicy: types.ReviewPolicy{Status: status, Timestamp: time.Unix(0, 0).UTC()},
		CreatedAt:    time.Unix(0, 0).UTC(),
	}
}

func ids(list []types.Campaign) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestNewRepository_RehydratesFromCache(t *testing.T) {
	cache := &fakeCache{loaded: []types.Campaign{mk("b", types.PolicyApproved, 1), mk("a", types.PolicyApproved, 1)}}
	repo := NewRepository(t.Context(), &fakeStore{}, cache)
	assert.Equal(t, []string{"b", "a"}, ids(repo.Campaigns()))
}

func TestNewRepository_CacheLoadErrorStartsEmpty(t *testing.T) {
	repo := NewRepository(t.Context(), &fakeStore{}, &fakeCache{loadErr: errors.New("disk")})
	assert.Empty(t, repo.Campaigns())
}

func TestList_RefreshesSessionAndCache(t *testing.T) {
	store := &fakeStore{rows: []types.Campaign{mk("new", types.PolicyApproved, 1), mk("old", types.PolicyRejected, 1)}}
	cache := &fakeCache{loaded: []types.Campaign{mk("stale", types.PolicyApproved, 1)}}
	repo := NewRepository(t.Context(), store, cache)

	list, err := repo.List(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids(list))
	assert.Equal(t, []string{"new", "old"}, ids(repo.Campaigns()))
	assert.Equal(t, []string{"new", "old"}, ids(cache.last()))
}

func TestList_StoreFailureFallsBackToCache(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}
	cache := &fakeCache{loaded: []types.Campaign{mk("cached", types.PolicyApproved, 1)}}
	repo := NewRepository(t.Context(), store, cache)

	list, err := repo.List(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"cached"}, ids(list))
	assert.Empty(t, cache.saved, "cache is only written from store results")
}

func TestList_StoreFailureWithoutCacheErrors(t *testing.T) {
	cause := errors.New("connection refused")
	repo := NewRepository(t.Context(), &fakeStore{listErr: cause}, nil)

	_, err := repo.List(t.Context())
	assert.ErrorIs(t, err, cause)
}

func TestList_NoStore(t *testing.T) {
	repo := NewRepository(t.Context(), nil, nil)
	_, err := repo.List(t.Context())
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestCreate_PrependsAndMirrors(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{loaded: []types.Campaign{mk("a", types.PolicyApproved, 1)}}
	repo := NewRepository(t.Context(), store, cache)

	stored, err := repo.Create(t.Context(), mk("b", types.PolicyPending, 5))
	require.NoError(t, err)
	assert.Equal(t, "b", stored.ID)
	assert.Equal(t, []string{"b", "a"}, ids(repo.Campaigns()))
	assert.Equal(t, []string{"b", "a"}, ids(cache.last()))
}

func TestCreate_FailureChangesNothing(t *testing.T) {
	cause := errors.New("duplicate key")
	store := &fakeStore{createErr: cause}
	cache := &fakeCache{loaded: []types.Campaign{mk("a", types.PolicyApproved, 1)}}
	repo := NewRepository(t.Context(), store, cache)

	stored, err := repo.Create(t.Context(), mk("b", types.PolicyPending, 5))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, stored)
	assert.Equal(t, []string{"a"}, ids(repo.Campaigns()))
	assert.Empty(t, cache.saved)
}

func TestCreate_CacheSaveFailureIsNotFatal(t *testing.T) {
	repo := NewRepository(t.Context(), &fakeStore{}, &fakeCache{saveErr: errors.New("readonly")})
	_, err := repo.Create(t.Context(), mk("a", types.PolicyApproved, 1))
	require.NoError(t, err)
	assert.Len(t, repo.Campaigns(), 1)
}

func TestCampaigns_ReturnsCopy(t *testing.T) {
	repo := NewRepository(t.Context(), &fakeStore{}, &fakeCache{loaded: []types.Campaign{mk("a", types.PolicyApproved, 1)}})
	list := repo.Campaigns()
	list[0].ID = "mutated"
	assert.Equal(t, "a", repo.Campaigns()[0].ID)
}

func TestCreate_Concurrent(t *testing.T) {
	repo := NewRepository(t.Context(), &fakeStore{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = repo.Create(context.Background(), mk(string(rune('a'+i)), types.PolicyApproved, 1))
		}(i)
	}
	wg.Wait()
	assert.Len(t, repo.Campaigns(), 20)
}
