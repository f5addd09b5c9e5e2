package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type entry struct {
	ID    string `json:"id"`
	Views int    `json:"views"`
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+srv.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	var got []entry
	found, err := c.Get(ctx, KeyHotQuestions, &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []entry{{ID: "q-1", Views: 7}}
	require.NoError(t, c.Set(ctx, KeyHotQuestions, want, time.Minute))
	assert.True(t, srv.Exists("querystack:"+KeyHotQuestions))

	found, err = c.Get(ctx, KeyHotQuestions, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	srv.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, KeyHotQuestions, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, KeyTopTags, want, time.Minute))
	require.NoError(t, c.Delete(ctx, KeyTopTags, KeyHotQuestions))
	assert.False(t, srv.Exists("querystack:"+KeyTopTags))
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "://nope")
	assert.Error(t, err)
}

func TestRemember(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()
	calls := 0
	load := func() ([]entry, error) {
		calls++
		return []entry{{ID: "q-1", Views: calls}}, nil
	}

	first, err := Remember(ctx, c, zap.NewNop(), KeyHotQuestions, time.Minute, load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, zap.NewNop(), KeyHotQuestions, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Delete(ctx, KeyHotQuestions))
	third, err := Remember(ctx, c, zap.NewNop(), KeyHotQuestions, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, third[0].Views)
}

func TestRemember_NopAndLoadError(t *testing.T) {
	ctx := context.Background()
	calls := 0
	load := func() (int, error) {
		calls++
		return calls, nil
	}
	for i := 0; i < 2; i++ {
		_, err := Remember(ctx, Nop{}, zap.NewNop(), KeyTopTags, time.Minute, load)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	_, err := Remember(ctx, Nop{}, zap.NewNop(), KeyTopTags, time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
