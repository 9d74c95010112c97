package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data     map[string]string
	sets     map[string]map[string]struct{}
	getErr   error
	setCalls int
}

func newMemStore() *memStore {
	return &memStore{
		data: make(map[string]string),
		sets: make(map[string]map[string]struct{}),
	}
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.setCalls++
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *memStore) SAdd(_ context.Context, key string, members ...any) error {
	if m.sets[key] == nil {
		m.sets[key] = make(map[string]struct{})
	}
	for _, member := range members {
		m.sets[key][fmt.Sprint(member)] = struct{}{}
	}
	return nil
}

func (m *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *memStore) CacheKey(parts ...string) string {
	return "jrm:cache:" + strings.Join(parts, ":")
}

type product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestGetOrLoadPopulatesOnMiss(t *testing.T) {
	store := newMemStore()
	c := New(store, nil)
	ctx := context.Background()
	key := c.Key("product", "p-1")

	loads := 0
	load := func(context.Context) (product, error) {
		loads++
		return product{ID: "p-1", Name: "Tongkat Ali"}, nil
	}

	got, err := GetOrLoad(ctx, c, key, time.Minute, []string{"products"}, load)
	require.NoError(t, err)
	assert.Equal(t, "Tongkat Ali", got.Name)
	assert.Equal(t, 1, loads)

	// second read served from cache
	got, err = GetOrLoad(ctx, c, key, time.Minute, []string{"products"}, load)
	require.NoError(t, err)
	assert.Equal(t, "Tongkat Ali", got.Name)
	assert.Equal(t, 1, loads)
}

func TestGetOrLoadReturnsLoadError(t *testing.T) {
	store := newMemStore()
	c := New(store, nil)

	wantErr := errors.New("db down")
	_, err := GetOrLoad(context.Background(), c, c.Key("product", "p-1"), time.Minute, nil,
		func(context.Context) (product, error) { return product{}, wantErr })
	assert.ErrorIs(t, err, wantErr)
	assert.Zero(t, store.setCalls)
}

func TestGetOrLoadDegradesOnStoreFailure(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("redis unavailable")
	c := New(store, nil)

	got, err := GetOrLoad(context.Background(), c, c.Key("product", "p-1"), time.Minute, nil,
		func(context.Context) (product, error) { return product{ID: "p-1"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
}

func TestInvalidateDropsTaggedKeys(t *testing.T) {
	store := newMemStore()
	c := New(store, nil)
	ctx := context.Background()

	keyOne := c.Key("product", "p-1")
	keyTwo := c.Key("product", "p-2")
	require.NoError(t, c.Put(ctx, keyOne, product{ID: "p-1"}, time.Minute, "products"))
	require.NoError(t, c.Put(ctx, keyTwo, product{ID: "p-2"}, time.Minute, "products"))

	require.NoError(t, c.Invalidate(ctx, "products"))

	var out product
	assert.ErrorIs(t, c.Get(ctx, keyOne, &out), ErrMiss)
	assert.ErrorIs(t, c.Get(ctx, keyTwo, &out), ErrMiss)

	// tag set cleared too; a fresh Put starts from empty
	assert.Empty(t, store.sets[store.CacheKey("tag", "products")])
}

func TestGetMissAndCorruptValue(t *testing.T) {
	store := newMemStore()
	c := New(store, nil)
	ctx := context.Background()

	var out product
	assert.ErrorIs(t, c.Get(ctx, c.Key("product", "missing"), &out), ErrMiss)

	store.data[c.Key("product", "bad")] = "{not json"
	err := c.Get(ctx, c.Key("product", "bad"), &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
