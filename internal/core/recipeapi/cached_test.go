package recipeapi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-manager/internal/core/cache"
	"recipe-manager/internal/core/recipe"
	"recipe-manager/internal/infrastructure/config"
)

// countingRepo 記錄呼叫次數的假 Repository
type countingRepo struct {
	recipes  []recipe.Recipe
	lists    int
	searches int
	failNext error
}

func (r *countingRepo) List(ctx context.Context) ([]recipe.Recipe, error) {
	r.lists++
	return recipe.Clone(r.recipes), nil
}

func (r *countingRepo) Search(ctx context.Context, query string) ([]recipe.Recipe, error) {
	r.searches++
	return recipe.FilterByCuisine(r.recipes, query), nil
}

func (r *countingRepo) Create(ctx context.Context, fields recipe.Fields) error {
	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}
	r.recipes = append(r.recipes, recipe.Recipe{ID: "new", Name: fields.Name, Ingredients: fields.Ingredients, Cuisine: fields.Cuisine})
	return nil
}

func (r *countingRepo) Update(ctx context.Context, id string, fields recipe.Fields) error {
	return nil
}

func (r *countingRepo) Delete(ctx context.Context, id string) error {
	r.recipes = recipe.RemoveByID(r.recipes, id)
	return nil
}

func newCachedForTest(t *testing.T) (*countingRepo, Repository) {
	t.Helper()
	inner := &countingRepo{recipes: []recipe.Recipe{
		{ID: "1", Name: "A", Ingredients: "x", Cuisine: "Italian"},
		{ID: "2", Name: "B", Ingredients: "y", Cuisine: "Mexican"},
	}}
	store := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Minute})
	t.Cleanup(func() { _ = store.Close() })
	return inner, NewCached(inner, store, "recipes")
}

func TestNewCachedWithoutStore(t *testing.T) {
	inner := &countingRepo{}
	assert.Same(t, inner, NewCached(inner, nil, "recipes"))
}

func TestCachedReadThrough(t *testing.T) {
	ctx := context.Background()
	inner, repo := newCachedForTest(t)

	first, err := repo.List(ctx)
	require.NoError(t, err)
	second, err := repo.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.lists)

	_, err = repo.Search(ctx, "Mexican")
	require.NoError(t, err)
	got, err := repo.Search(ctx, "Mexican")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.searches)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestCachedWritesInvalidate(t *testing.T) {
	ctx := context.Background()
	inner, repo := newCachedForTest(t)

	_, err := repo.List(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "1"))
	after, err := repo.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.lists)
	require.Len(t, after, 1)
	assert.Equal(t, "2", after[0].ID)
}

func TestCachedFailedWriteKeepsCache(t *testing.T) {
	ctx := context.Background()
	inner, repo := newCachedForTest(t)

	_, err := repo.List(ctx)
	require.NoError(t, err)

	inner.failNext = errors.New("boom")
	require.Error(t, repo.Create(ctx, recipe.Fields{Name: "C", Ingredients: "z", Cuisine: "Thai"}))

	_, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lists)
}

// gatedRepo 第一次 List 在讀到資料後停住，直到 release 關閉
type gatedRepo struct {
	countingRepo
	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
	gated   bool
}

func (r *gatedRepo) List(ctx context.Context) ([]recipe.Recipe, error) {
	r.mu.Lock()
	snapshot := recipe.Clone(r.recipes)
	r.lists++
	wait := !r.gated
	r.gated = true
	r.mu.Unlock()

	if wait {
		close(r.entered)
		<-r.release
	}
	return snapshot, nil
}

func (r *gatedRepo) Create(ctx context.Context, fields recipe.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countingRepo.Create(ctx, fields)
}

func TestCachedSlowReadDoesNotOutliveWrite(t *testing.T) {
	ctx := context.Background()
	inner := &gatedRepo{
		countingRepo: countingRepo{recipes: []recipe.Recipe{{ID: "1", Name: "A", Ingredients: "x", Cuisine: "Italian"}}},
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	store := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Minute})
	t.Cleanup(func() { _ = store.Close() })
	repo := NewCached(inner, store, "recipes")

	slow := make(chan []recipe.Recipe, 1)
	go func() {
		got, err := repo.List(ctx)
		assert.NoError(t, err)
		slow <- got
	}()
	<-inner.entered

	require.NoError(t, repo.Create(ctx, recipe.Fields{Name: "B", Ingredients: "y", Cuisine: "Thai"}))
	close(inner.release)
	assert.Len(t, <-slow, 1, "the slow read saw the collection before the write")

	after, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 2)
	assert.Equal(t, 2, inner.lists)
}
