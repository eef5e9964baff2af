package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchDisabledWithoutBaseURL(t *testing.T) {
	t.Setenv("SEARCH_BASE_URL", "")
	svc := NewSearchService()

	result, err := svc.Search(context.Background(), "population of brazil", "", "user-1")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSearchCachesRepeatQueries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/answer", r.URL.Path)
		assert.Equal(t, "population of brazil", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"About 216 million people."}`))
	}))
	defer srv.Close()

	t.Setenv("SEARCH_BASE_URL", srv.URL)
	svc := NewSearchService()

	first, err := svc.Search(context.Background(), "population of brazil", "", "user-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "About 216 million people.", first.Answer)
	assert.False(t, first.FromCache)

	// Same query inside the TTL is served without a second API call.
	second, err := svc.Search(context.Background(), "Population of Brazil", "", "user-1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, second.FromCache)
	assert.Equal(t, int64(1), calls.Load())
}

func TestSearchPropagatesAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	t.Setenv("SEARCH_BASE_URL", srv.URL)
	svc := NewSearchService()

	_, err := svc.Search(context.Background(), "population of brazil", "", "user-1")
	assert.Error(t, err)
}
