package geofix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dairydesk/milk-orders/internal/domain/location"
)

func testOptions() location.Options {
	return location.Options{
		HighAccuracy: true,
		Timeout:      time.Second,
		MaxCachedAge: time.Minute,
	}
}

func TestAcquire_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/position", r.URL.Path)
		assert.Equal(t, "high", r.URL.Query().Get("accuracy"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"latitude": 9.661, "longitude": 80.025, "address": "Point Pedro Rd"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testOptions(), zap.NewNop())

	fix, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9.661, fix.Lat)
	assert.Equal(t, 80.025, fix.Lng)
	assert.Equal(t, "Point Pedro Rd", fix.Address)
}

func TestAcquire_CachedFixReused(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"latitude": 1, "longitude": 2}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testOptions(), zap.NewNop())

	_, err := c.Acquire(context.Background())
	require.NoError(t, err)
	_, err = c.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load(), "second acquire within tolerance hits the cache")
}

func TestAcquire_CacheExpires(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"latitude": 1, "longitude": 2}`))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxCachedAge = time.Nanosecond
	c := New(srv.URL, opts, zap.NewNop())

	_, err := c.Acquire(context.Background())
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = c.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
}

func TestAcquire_PermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, testOptions(), zap.NewNop())

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, location.ErrPermissionDenied)
}

func TestAcquire_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, testOptions(), zap.NewNop())

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, location.ErrUnavailable)
}

func TestAcquire_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", testOptions(), zap.NewNop())

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, location.ErrUnavailable)
}

func TestAcquire_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.Timeout = 20 * time.Millisecond
	c := New(srv.URL, opts, zap.NewNop())

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, location.ErrTimeout)
}

func TestAcquire_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, testOptions(), zap.NewNop())

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, location.ErrUnavailable)
}

func TestAcquire_OutOfRangeCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude": 123.0, "longitude": 0}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testOptions(), zap.NewNop())

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, location.ErrUnavailable)
}
