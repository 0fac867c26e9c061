package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"leilao-insights/internal/dto"
	"leilao-insights/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func backendConfig(url string) *config.BackendConfig {
	return &config.BackendConfig{
		BaseURL:     url,
		ExtractPath: "/api/extract",
		AnalyzePath: "/api/analyze",
		Timeout:     5 * time.Second,
	}
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Hour, zap.NewNop()), mr
}

func TestBackendClientExtract(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/extract", r.URL.Path)
		assert.Equal(t, "https://leilao.example/imovel/1", r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dados_imovel":{"titulo":"Apto X"}}`))
	}))
	defer srv.Close()

	cache, _ := newRedisCache(t)
	client := NewBackendClient(backendConfig(srv.URL), cache, nil, zap.NewNop())

	resp, err := client.Extract(context.Background(), "https://leilao.example/imovel/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.False(t, resp.Cached)
	assert.JSONEq(t, `{"dados_imovel":{"titulo":"Apto X"}}`, string(resp.Body))

	again, err := client.Extract(context.Background(), "https://leilao.example/imovel/1")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBackendClientDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	cache, mr := newRedisCache(t)
	client := NewBackendClient(backendConfig(srv.URL), cache, nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		resp, err := client.Extract(context.Background(), "https://x")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status)
	}
	assert.Equal(t, int32(2), calls.Load(), "failures are neither cached nor retried")
	assert.Empty(t, mr.Keys())
}

func TestBackendClientAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)
		var req dto.AnalyzeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://x", req.Edital)
		assert.Equal(t, []string{"edital.pdf"}, req.Documentos)
		_, _ = w.Write([]byte(`{"recomendacoes":["ok"]}`))
	}))
	defer srv.Close()

	cache, mr := newRedisCache(t)
	client := NewBackendClient(backendConfig(srv.URL), cache, nil, zap.NewNop())

	resp, err := client.Analyze(context.Background(), dto.AnalyzeRequest{
		Edital:     "https://x",
		Matricula:  "edital.pdf",
		Documentos: []string{"edital.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, mr.Exists(CacheKey(EndpointAnalyze, "https://x", "edital.pdf")))
	assert.Equal(t, time.Hour, mr.TTL(CacheKey(EndpointAnalyze, "https://x", "edital.pdf")))
}

func TestBackendClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewBackendClient(backendConfig(url), nil, nil, zap.NewNop())
	_, err := client.Extract(context.Background(), "https://x")

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.True(t, be.Transport())
	assert.Equal(t, extractGenericMessage, be.Message)
}

func TestBackendClientHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewBackendClient(backendConfig(srv.URL), nil, nil, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Analyze(ctx, dto.AnalyzeRequest{Edital: "https://x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(EndpointExtract, "https://x")
	assert.Equal(t, a, CacheKey(EndpointExtract, "https://x"))
	assert.NotEqual(t, a, CacheKey(EndpointAnalyze, "https://x"))
	assert.Contains(t, a, "leilao:backend:extract:")
	assert.NotEqual(t, CacheKey(EndpointAnalyze, "ab", "c"), CacheKey(EndpointAnalyze, "a", "bc"),
		"part boundaries are part of the key")
}

func TestRedisCacheMissAndHit(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "k", []byte("v")))
	body, hit, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("v"), body)
}

func TestRedisCacheUnavailable(t *testing.T) {
	cache, mr := newRedisCache(t)
	mr.Close()

	_, hit, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, hit)
}
