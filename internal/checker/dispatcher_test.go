package checker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avritt/raincheck/internal/commute"
	"github.com/avritt/raincheck/internal/store"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testConfig() commute.Config {
	cfg := commute.DefaultConfig()
	cfg.HomeAddress = "Carrer de Valencia 1, Barcelona"
	cfg.WorkAddress = "Avinguda Diagonal 200, Barcelona"
	return cfg
}

func newTestDispatcher(t *testing.T, backend *httptest.Server) (*Dispatcher, *store.ResultStore) {
	t.Helper()
	client := NewClient(backend.Client(), backend.URL)
	cache := store.NewResultStore()
	now := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	return NewDispatcher(client, cache, fixedClock{now: now}, "alex"), cache
}

func TestDispatchSuccess(t *testing.T) {
	image := []byte("png-bytes")

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/check_rain/", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alex", req["user"])
		assert.Equal(t, "bike", req["vehicle"])
		assert.NotEmpty(t, req["home"])
		assert.NotEmpty(t, req["work"])

		json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"user":              "alex",
			"vehicle":           "bike",
			"image_b64":         base64.StdEncoding.EncodeToString(image),
			"will_rain":         true,
			"weather_condition": "Heavy rain expected",
		})
	}))
	defer backend.Close()

	dispatcher, cache := newTestDispatcher(t, backend)

	result, failure := dispatcher.Dispatch(context.Background(), commute.LabelMorning, testConfig())
	require.Nil(t, failure)
	require.NotNil(t, result)

	assert.True(t, result.WillRain)
	assert.Equal(t, "Heavy rain expected", result.Condition)
	assert.Equal(t, image, result.MapImage)
	assert.Equal(t, commute.LabelMorning, result.Label)
	assert.False(t, result.Timestamp.IsZero())

	cached, err := cache.LatestFor(commute.LabelMorning)
	require.NoError(t, err)
	assert.Equal(t, *result, cached)
}

func TestDispatchMissingAddresses(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer backend.Close()

	dispatcher, _ := newTestDispatcher(t, backend)

	cfg := testConfig()
	cfg.WorkAddress = ""

	result, failure := dispatcher.Dispatch(context.Background(), commute.LabelMorning, cfg)
	require.Nil(t, result)
	require.NotNil(t, failure)
	assert.Equal(t, commute.ReasonConfigIncomplete, failure.Reason)

	// Preconditions fail before any network call.
	assert.Zero(t, calls.Load())
}

func TestDispatchServiceErrorDetailPassthrough(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"detail": "Radar data not available yet. Please try again in a moment.",
		})
	}))
	defer backend.Close()

	dispatcher, _ := newTestDispatcher(t, backend)

	result, failure := dispatcher.Dispatch(context.Background(), commute.LabelEvening, testConfig())
	require.Nil(t, result)
	require.NotNil(t, failure)
	assert.Equal(t, commute.ReasonServiceError, failure.Reason)
	assert.Equal(t, "Radar data not available yet. Please try again in a moment.", failure.Message)
}

func TestDispatchUnreachableBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close() // connection refused from here on

	client := NewClient(&http.Client{Timeout: time.Second}, backend.URL)
	dispatcher := NewDispatcher(client, store.NewResultStore(), fixedClock{now: time.Now()}, "alex")

	result, failure := dispatcher.Dispatch(context.Background(), commute.LabelMorning, testConfig())
	require.Nil(t, result)
	require.NotNil(t, failure)
	assert.Equal(t, commute.ReasonServiceUnavailable, failure.Reason)
}

func TestDispatchMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"not json":       `{{{`,
		"missing fields": `{"status":"ok"}`,
		"bad status":     `{"status":"","will_rain":false,"weather_condition":"Clear"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			}))
			defer backend.Close()

			dispatcher, _ := newTestDispatcher(t, backend)

			result, failure := dispatcher.Dispatch(context.Background(), commute.LabelMorning, testConfig())
			require.Nil(t, result)
			require.NotNil(t, failure)
			assert.Equal(t, commute.ReasonMalformedResponse, failure.Reason)
		})
	}
}

func TestDispatchNoRetries(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "boom"})
	}))
	defer backend.Close()

	dispatcher, _ := newTestDispatcher(t, backend)

	_, failure := dispatcher.Dispatch(context.Background(), commute.LabelMorning, testConfig())
	require.NotNil(t, failure)

	// One dispatch, exactly one request: failures are not retried here.
	assert.Equal(t, int32(1), calls.Load())
}
