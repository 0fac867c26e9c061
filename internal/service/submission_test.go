package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"leilao-insights/internal/dto"
	"leilao-insights/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func confirmedRecord() models.PropertyAnalysis {
	r := models.NewPropertyAnalysis()
	r.Property.Title = "Apartamento no Centro"
	r.Property.PropertyType = models.PropertyTypeApartment
	r.Property.TotalAreaSqm = 72
	r.Property.Street = "Av. Brasil, 500"
	r.Property.City = "Belo Horizonte"
	r.Property.InitialBidValue = decimal.NewFromFloat(180000)
	r.Property.CurrentValue = decimal.NewFromFloat(300000)
	r.Property.StartDate = "2024-08-01"
	r.AuctionType = "Extrajudicial"
	r.EndDate = "2024-08-20"
	r.Documents = []string{"from-extraction.pdf"}
	return r
}

func uploadsNamed(names ...string) []models.Upload {
	out := make([]models.Upload, 0, len(names))
	for _, n := range names {
		out = append(out, models.Upload{ID: uuid.New(), Name: n})
	}
	return out
}

func TestBuildAnalyzeRequest(t *testing.T) {
	req := BuildAnalyzeRequest("https://leilao.example/7", confirmedRecord(), uploadsNamed("edital.pdf", "matricula.pdf"), time.Now())

	assert.Equal(t, dto.AnalyzeRequest{
		Edital:       "https://leilao.example/7",
		Matricula:    "edital.pdf,matricula.pdf",
		TipoImovel:   "apartamento",
		AreaTotal:    72,
		Endereco:     "Av. Brasil, 500",
		ValorInicial: 180000,
		ValorAtual:   300000,
		DataInicio:   "2024-08-01",
		Documentos:   []string{"edital.pdf", "matricula.pdf"},
	}, req)
}

func TestBuildAnalyzeRequestDefaultsStartDate(t *testing.T) {
	record := confirmedRecord()
	record.Property.StartDate = ""
	now := time.Date(2024, 9, 3, 23, 30, 0, 0, time.FixedZone("BRT", -3*3600))

	req := BuildAnalyzeRequest("https://leilao.example/7", record, nil, now)

	assert.Equal(t, "2024-09-04", req.DataInicio)
	assert.Empty(t, req.Documentos)
}

func TestCheckSubmission(t *testing.T) {
	var be *BackendError

	err := CheckSubmission(http.StatusOK, []byte(`{"observacoes":"Erro ao processar"}`))
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "Erro ao processar", be.Message)

	err = CheckSubmission(http.StatusBadGateway, []byte(`{"error":"upstream down","observacoes":"tente depois"}`))
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "tente depois", be.Message, "observations take precedence over error")

	err = CheckSubmission(http.StatusOK, []byte(`{"error":"quota"}`))
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "quota", be.Message)

	err = CheckSubmission(http.StatusInternalServerError, nil)
	require.True(t, errors.As(err, &be))
	assert.Equal(t, submitGenericMessage, be.Message)

	assert.NoError(t, CheckSubmission(http.StatusOK, []byte(`{"observacoes":"Imóvel regular"}`)))
	assert.NoError(t, CheckSubmission(http.StatusCreated, []byte(`{}`)))
}

func TestMergeSubmissionSideChannels(t *testing.T) {
	body := []byte(`{"recomendacoes":["Boa oportunidade"],"dividas_condominio":"R$500","ocupado":"erro"}`)

	merged := MergeSubmission(confirmedRecord(), uploadsNamed("edital.pdf"), body)

	assert.Equal(t, []string{"Boa oportunidade", "Dívidas de condomínio: R$500"}, merged.Recommendations)
}

func TestMergeSubmissionAllChannels(t *testing.T) {
	body := []byte(`{
		"recomendacoes":["A"],
		"dividas_condominio":"nenhuma",
		"ocupado":"desocupado",
		"penhora":"sem penhora",
		"observacoes":"Documentação regular"
	}`)

	merged := MergeSubmission(confirmedRecord(), nil, body)

	assert.Equal(t, []string{
		"A",
		"Dívidas de condomínio: nenhuma",
		"Status de ocupação: desocupado",
		"Status de penhora: sem penhora",
		"Documentação regular",
	}, merged.Recommendations)
	assert.Equal(t, []string{}, merged.Documents)
}

func TestMergeSubmissionKeepsConfirmedProperty(t *testing.T) {
	current := confirmedRecord()
	bodies := []string{
		`{}`,
		`{"dados_imovel":{"titulo":"outro","cidade":"Recife"},"tipo_leilao":"x","data_fim":"2030-01-01"}`,
		`{"recomendacoes":"not a list","penhora":42}`,
	}
	for _, body := range bodies {
		merged := MergeSubmission(current, uploadsNamed("a.pdf"), []byte(body))
		assert.Equal(t, current.Property, merged.Property, body)
		assert.Equal(t, current.AuctionType, merged.AuctionType, body)
		assert.Equal(t, current.EndDate, merged.EndDate, body)
		assert.Equal(t, []string{"a.pdf"}, merged.Documents, body)
	}
}

type stubExtractor struct {
	resp *BackendResponse
	err  error
}

func (s stubExtractor) Extract(context.Context, string) (*BackendResponse, error) {
	return s.resp, s.err
}

type stubAnalyzer struct {
	resp *BackendResponse
	err  error
	got  *dto.AnalyzeRequest
}

func (s *stubAnalyzer) Analyze(_ context.Context, req dto.AnalyzeRequest) (*BackendResponse, error) {
	s.got = &req
	return s.resp, s.err
}

func TestOrchestratorExtract(t *testing.T) {
	o := NewOrchestrator(stubExtractor{resp: &BackendResponse{
		Status: http.StatusOK,
		Body:   []byte(`{"dados_imovel":{"titulo":"Apto X"}}`),
	}}, nil, zap.NewNop()).WithClock(func() time.Time { return fixedNow })

	got, err := o.Extract(context.Background(), "https://x")
	require.NoError(t, err)
	assert.Equal(t, "Apto X", got.Property.Title)
	assert.Equal(t, "2024-06-10", got.Property.StartDate)
}

func TestOrchestratorExtractNotFound(t *testing.T) {
	o := NewOrchestrator(stubExtractor{resp: &BackendResponse{
		Status: http.StatusNotFound,
		Body:   []byte(`{"error":"not found"}`),
	}}, nil, zap.NewNop())

	_, err := o.Extract(context.Background(), "https://x")
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Contains(t, be.Message, "not found")
}

func TestOrchestratorSubmitEmbeddedError(t *testing.T) {
	analyzer := &stubAnalyzer{resp: &BackendResponse{
		Status: http.StatusOK,
		Body:   []byte(`{"observacoes":"Erro ao processar"}`),
	}}
	o := NewOrchestrator(nil, analyzer, zap.NewNop())

	_, err := o.Submit(context.Background(), "https://x", confirmedRecord(), uploadsNamed("e.pdf"))
	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, EndpointAnalyze, be.Endpoint)
	require.NotNil(t, analyzer.got)
	assert.Equal(t, "e.pdf", analyzer.got.Matricula)
}

func TestOrchestratorSubmitTransportError(t *testing.T) {
	o := NewOrchestrator(nil, &stubAnalyzer{err: transportError(EndpointAnalyze, context.DeadlineExceeded)}, zap.NewNop())

	_, err := o.Submit(context.Background(), "https://x", confirmedRecord(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, submitGenericMessage, UserMessage(EndpointAnalyze, err))
}

func TestOrchestratorSubmitMerges(t *testing.T) {
	o := NewOrchestrator(nil, &stubAnalyzer{resp: &BackendResponse{
		Status: http.StatusOK,
		Body:   []byte(`{"recomendacoes":["Boa oportunidade"],"penhora":"erro"}`),
	}}, zap.NewNop())

	merged, err := o.Submit(context.Background(), "https://x", confirmedRecord(), uploadsNamed("e.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Boa oportunidade"}, merged.Recommendations)
	assert.Equal(t, []string{"e.pdf"}, merged.Documents)
	assert.Equal(t, "Apartamento no Centro", merged.Property.Title)
}
