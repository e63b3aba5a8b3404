package cart

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeRedis) CartKey(sessionID string) string {
	return "sf:cart:" + sessionID
}

func TestRedisStoreRoundTrip(t *testing.T) {
	backend := newFakeRedis()
	store, err := NewRedisStore(backend, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	empty, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	c := &Cart{Items: []Item{{ProductID: 7, Name: "Mate", Price: decimal.RequireFromString("10.50"), Quantity: 2}}}
	c.SetPreference("pref-7", "ref-7")
	require.NoError(t, store.Save(ctx, "s1", c))
	assert.Equal(t, time.Hour, backend.ttls["sf:cart:s1"])

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.True(t, loaded.Total().Equal(decimal.NewFromInt(21)))
	assert.Equal(t, "pref-7", loaded.PreferenceID)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, ok := backend.values["sf:cart:s1"]
	assert.False(t, ok)
}

func TestRedisStoreRejectsCorruptDocument(t *testing.T) {
	backend := newFakeRedis()
	backend.values["sf:cart:s1"] = "{not json"
	store, err := NewRedisStore(backend, time.Minute)
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "s1")
	require.Error(t, err)
}

func TestNewRedisStoreValidates(t *testing.T) {
	_, err := NewRedisStore(nil, time.Minute)
	require.Error(t, err)
	_, err = NewRedisStore(newFakeRedis(), 0)
	require.Error(t, err)
}
