package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/vacancy-loader/internal/events"
)

func TestEncode(t *testing.T) {
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	b, err := events.Encode(events.VacanciesLoaded{Database: "hh_info", Employers: 9, Vacancies: 1200, LoadedAt: at})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "EVENT_VACANCIES_LOADED", got["type"])
	assert.Equal(t, "hh_info", got["database"])
	assert.EqualValues(t, 9, got["employers"])
	assert.EqualValues(t, 1200, got["vacancies"])
	assert.Equal(t, []any{}, got["skipped"])
	assert.Equal(t, "2026-10-18T12:00:00Z", got["loadedAt"])
}

func TestNop(t *testing.T) {
	var p events.Publisher = events.Nop{}
	assert.NoError(t, p.PublishLoaded(context.Background(), events.VacanciesLoaded{}))
}

func TestRedisPublisher_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: time.Second})
	defer rdb.Close()

	err := events.NewRedisPublisher(rdb).PublishLoaded(context.Background(), events.VacanciesLoaded{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish EVENT_VACANCIES_LOADED")
}
