package service

import (
	"context"
	"strings"
	"time"

	"leilao-insights/internal/dto"
	"leilao-insights/internal/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Backend error conventions inside otherwise successful responses.
const (
	// ObservationErrorMarker inside "observacoes" marks the whole reply as failed.
	ObservationErrorMarker = "Erro"
	// SideChannelErrorSentinel replaces a side-channel value the backend could not compute.
	SideChannelErrorSentinel = "erro"
)

// sideChannels are appended to the recommendations in this order.
var sideChannels = []struct {
	field  string
	prefix string
}{
	{"dividas_condominio", "Dívidas de condomínio: "},
	{"ocupado", "Status de ocupação: "},
	{"penhora", "Status de penhora: "},
}

// BuildAnalyzeRequest collects the confirmed record and the attached file
// names into the analysis payload. A missing start date is sent as the
// calendar date of now.
func BuildAnalyzeRequest(listingURL string, record models.PropertyAnalysis, uploads []models.Upload, now time.Time) dto.AnalyzeRequest {
	names := models.UploadNames(uploads)
	startDate := record.Property.StartDate
	if startDate == "" {
		startDate = now.UTC().Format(models.DateLayout)
	}
	return dto.AnalyzeRequest{
		Edital:       listingURL,
		Matricula:    strings.Join(names, ","),
		TipoImovel:   record.Property.PropertyType.BackendLabel(),
		AreaTotal:    record.Property.TotalAreaSqm,
		Endereco:     record.Property.Street,
		ValorInicial: record.Property.InitialBidValue.InexactFloat64(),
		ValorAtual:   record.Property.CurrentValue.InexactFloat64(),
		DataInicio:   startDate,
		Documentos:   names,
	}
}

// CheckSubmission fails on a non-2xx status, a non-object body, an "error"
// field or an "observacoes" value carrying the error marker.
func CheckSubmission(status int, body []byte) error {
	return checkResponse(EndpointAnalyze, status, body, submitGenericMessage, true)
}

// MergeSubmission lays a successful analysis response on top of current.
// Property data, auction type and end date always come from current.
func MergeSubmission(current models.PropertyAnalysis, uploads []models.Upload, body []byte) models.PropertyAnalysis {
	root := gjson.ParseBytes(body)
	merged := current.Clone()
	merged.Documents = models.UploadNames(uploads)
	merged.Recommendations = stringsField(root.Get("recomendacoes"))

	for _, ch := range sideChannels {
		value := stringField(root.Get(ch.field))
		if value != "" && value != SideChannelErrorSentinel {
			merged.Recommendations = append(merged.Recommendations, ch.prefix+value)
		}
	}
	if obs := stringField(root.Get("observacoes")); obs != "" && !strings.Contains(obs, ObservationErrorMarker) {
		merged.Recommendations = append(merged.Recommendations, obs)
	}
	return merged
}

// Analyzer performs the analysis call.
type Analyzer interface {
	Analyze(ctx context.Context, req dto.AnalyzeRequest) (*BackendResponse, error)
}

// Extractor performs the extraction call.
type Extractor interface {
	Extract(ctx context.Context, listingURL string) (*BackendResponse, error)
}

// Orchestrator runs the extraction and submission round trips and turns
// their replies into canonical records.
type Orchestrator struct {
	extractor Extractor
	analyzer  Analyzer
	now       func() time.Time
	logger    *zap.Logger
}

func NewOrchestrator(extractor Extractor, analyzer Analyzer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		analyzer:  analyzer,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the clock used for missing extraction dates.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Extract fetches and normalizes listing data. The returned error, when set,
// is a *BackendError.
func (o *Orchestrator) Extract(ctx context.Context, listingURL string) (models.PropertyAnalysis, error) {
	resp, err := o.extractor.Extract(ctx, listingURL)
	if err != nil {
		return models.PropertyAnalysis{}, err
	}
	if err := CheckExtraction(resp.Status, resp.Body); err != nil {
		o.logger.Warn("Extraction rejected", zap.String("url", listingURL), zap.Error(err))
		return models.PropertyAnalysis{}, err
	}
	return NormalizeExtraction(resp.Body, o.now()), nil
}

// Submit sends the record for analysis and merges the reply.
func (o *Orchestrator) Submit(ctx context.Context, listingURL string, record models.PropertyAnalysis, uploads []models.Upload) (models.PropertyAnalysis, error) {
	req := BuildAnalyzeRequest(listingURL, record, uploads, o.now())
	resp, err := o.analyzer.Analyze(ctx, req)
	if err != nil {
		return models.PropertyAnalysis{}, err
	}
	if err := CheckSubmission(resp.Status, resp.Body); err != nil {
		o.logger.Warn("Analysis rejected", zap.String("url", listingURL), zap.Error(err))
		return models.PropertyAnalysis{}, err
	}
	merged := MergeSubmission(record, uploads, resp.Body)
	o.logger.Info("Analysis merged",
		zap.String("url", listingURL),
		zap.Int("recommendations", len(merged.Recommendations)),
		zap.Bool("cached", resp.Cached),
	)
	return merged, nil
}
