package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kirsrus/liftmon/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	feed, err := NewRedis(context.Background(), &ConfigRedis{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = feed.Close() })
	return feed.(*Redis), mr
}

func records(from, n int) []model.AnomalyRecord {
	res := make([]model.AnomalyRecord, 0, n)
	for i := from; i < from+n; i++ {
		res = append(res, model.AnomalyRecord{
			ID:         fmt.Sprintf("rec-%d", i),
			ElevatorID: "EL-001",
			Timestamp:  time.Unix(int64(1000+i), 0).UTC(),
			Kind:       model.KindParameter,
			Level:      model.LevelWarning,
			ParamID:    model.ParamRopeWear,
			ParamValue: model.NumberValue(float64(i)),
		})
	}
	return res
}

func TestNewRedis(t *testing.T) {
	_, err := NewRedis(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewRedis(context.Background(), &ConfigRedis{})
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = NewRedis(ctx, &ConfigRedis{Addr: "127.0.0.1:1"})
	assert.Error(t, err, "недоступный сервер")
}

func TestPushLatest(t *testing.T) {
	feed, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, feed.Push(ctx, records(0, 3)))
	require.NoError(t, feed.Push(ctx, records(3, 2)))
	require.NoError(t, feed.Push(ctx, nil))

	got, err := feed.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "rec-4", got[0].ID, "новые первыми")
	assert.Equal(t, "rec-0", got[4].ID)
	v, ok := got[0].ParamValue.Float()
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	got, err = feed.Latest(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	total, err := feed.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	_, err = feed.Latest(ctx, 0)
	assert.Error(t, err)
}

func TestPushTrim(t *testing.T) {
	feed, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, feed.Push(ctx, records(0, LatestLimit)))
	require.NoError(t, feed.Push(ctx, records(LatestLimit, 5)))

	list, err := mr.List(LatestKey)
	require.NoError(t, err)
	assert.Len(t, list, LatestLimit)

	total, err := feed.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(LatestLimit+5), total)
}

func TestLatestSkipsBroken(t *testing.T) {
	feed, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, feed.Push(ctx, records(0, 1)))
	_, err := mr.Lpush(LatestKey, "{broken")
	require.NoError(t, err)

	got, err := feed.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rec-0", got[0].ID)
}

func TestTotalEmpty(t *testing.T) {
	feed, _ := newTestRedis(t)
	total, err := feed.Total(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}
