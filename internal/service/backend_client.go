package service

import (
	"context"
	"net/http"
	"time"

	"leilao-insights/internal/dto"
	"leilao-insights/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// BackendResponse is a raw backend reply. Body is untrusted.
type BackendResponse struct {
	Status int
	Body   []byte
	Cached bool
}

// BackendClient calls the extraction and analysis endpoints. It never
// retries: a failed call is reported once and the user decides.
type BackendClient struct {
	client  *resty.Client
	config  *config.BackendConfig
	cache   ResponseCache
	metrics *Metrics
	logger  *zap.Logger
}

func NewBackendClient(cfg *config.BackendConfig, cache ResponseCache, metrics *Metrics, logger *zap.Logger) *BackendClient {
	if cache == nil {
		cache = NoopCache{}
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &BackendClient{
		client:  client,
		config:  cfg,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Extract asks the extraction endpoint to scrape listingURL.
func (c *BackendClient) Extract(ctx context.Context, listingURL string) (*BackendResponse, error) {
	key := CacheKey(EndpointExtract, listingURL)
	if resp := c.cached(ctx, EndpointExtract, key); resp != nil {
		return resp, nil
	}

	started := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("url", listingURL).
		Get(c.config.ExtractPath)
	if err != nil {
		c.metrics.RecordBackendCall(ctx, EndpointExtract, outcomeTransport, time.Since(started))
		c.logger.Warn("Extraction request failed", zap.String("url", listingURL), zap.Error(err))
		return nil, transportError(EndpointExtract, err)
	}

	out := &BackendResponse{Status: resp.StatusCode(), Body: resp.Body()}
	ok := CheckExtraction(out.Status, out.Body) == nil
	c.metrics.RecordBackendCall(ctx, EndpointExtract, outcomeOf(ok), time.Since(started))
	c.logger.Info("Extraction response received",
		zap.String("url", listingURL),
		zap.Int("status", out.Status),
		zap.Duration("elapsed", time.Since(started)),
	)
	if ok {
		c.store(ctx, key, out.Body)
	}
	return out, nil
}

// Analyze posts the confirmed data to the analysis endpoint.
func (c *BackendClient) Analyze(ctx context.Context, req dto.AnalyzeRequest) (*BackendResponse, error) {
	key := CacheKey(EndpointAnalyze, req.Edital, req.Matricula)
	if resp := c.cached(ctx, EndpointAnalyze, key); resp != nil {
		return resp, nil
	}

	started := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.config.AnalyzePath)
	if err != nil {
		c.metrics.RecordBackendCall(ctx, EndpointAnalyze, outcomeTransport, time.Since(started))
		c.logger.Warn("Analysis request failed", zap.String("edital", req.Edital), zap.Error(err))
		return nil, transportError(EndpointAnalyze, err)
	}

	out := &BackendResponse{Status: resp.StatusCode(), Body: resp.Body()}
	ok := CheckSubmission(out.Status, out.Body) == nil
	c.metrics.RecordBackendCall(ctx, EndpointAnalyze, outcomeOf(ok), time.Since(started))
	c.logger.Info("Analysis response received",
		zap.String("edital", req.Edital),
		zap.Int("status", out.Status),
		zap.Int("documents", len(req.Documentos)),
		zap.Duration("elapsed", time.Since(started)),
	)
	if ok {
		c.store(ctx, key, out.Body)
	}
	return out, nil
}

func (c *BackendClient) cached(ctx context.Context, endpoint, key string) *BackendResponse {
	body, hit, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	c.metrics.RecordCacheLookup(ctx, endpoint, hit)
	if !hit {
		return nil
	}
	return &BackendResponse{Status: http.StatusOK, Body: body, Cached: true}
}

func (c *BackendClient) store(ctx context.Context, key string, body []byte) {
	if err := c.cache.Set(ctx, key, body); err != nil {
		c.logger.Warn("Cache store failed", zap.String("key", key), zap.Error(err))
	}
}

func outcomeOf(ok bool) string {
	if ok {
		return outcomeSuccess
	}
	return outcomeFailure
}
