package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leilao-insights/internal/models"
	"leilao-insights/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	extract func(ctx context.Context, url string) (models.PropertyAnalysis, error)
	submit  func(ctx context.Context, url string, record models.PropertyAnalysis, uploads []models.Upload) (models.PropertyAnalysis, error)
}

func (f *fakeBackend) Extract(ctx context.Context, url string) (models.PropertyAnalysis, error) {
	return f.extract(ctx, url)
}

func (f *fakeBackend) Submit(ctx context.Context, url string, record models.PropertyAnalysis, uploads []models.Upload) (models.PropertyAnalysis, error) {
	return f.submit(ctx, url, record, uploads)
}

type memoryArchive struct {
	mu      sync.Mutex
	reports []*models.Report
	err     error
}

func (m *memoryArchive) Create(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, r)
	return nil
}

func newTestService(backend Backend, archive Archiver) *Service {
	return NewService(NewStore(16, time.Hour), backend, archive, nil, zap.NewNop())
}

func extractedRecord() models.PropertyAnalysis {
	r := models.NewPropertyAnalysis()
	r.Property.Title = "Casa térrea"
	r.Property.PropertyType = models.PropertyTypeHouse
	r.Property.City = "Curitiba"
	r.AuctionType = "Judicial"
	return r
}

// advance drives a fresh session to step 4 with one upload.
func advance(t *testing.T, ctx context.Context, w *Service) uuid.UUID {
	t.Helper()
	id := w.Create(ctx).ID
	_, err := w.SetURL(ctx, id, "https://leilao.example/imovel/9")
	require.NoError(t, err)
	_, err = w.Extract(ctx, id)
	require.NoError(t, err)
	_, err = w.Next(ctx, id)
	require.NoError(t, err)
	_, err = w.AddUploads(ctx, id, NewUpload("edital.pdf", 10, "application/pdf", time.Now()))
	require.NoError(t, err)
	s, err := w.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StepSubmit, s.Step)
	return id
}

func TestServiceHappyPath(t *testing.T) {
	ctx := context.Background()
	archive := &memoryArchive{}
	backend := &fakeBackend{
		extract: func(_ context.Context, url string) (models.PropertyAnalysis, error) {
			assert.Equal(t, "https://leilao.example/imovel/9", url)
			return extractedRecord(), nil
		},
		submit: func(_ context.Context, _ string, record models.PropertyAnalysis, uploads []models.Upload) (models.PropertyAnalysis, error) {
			merged := record.Clone()
			merged.Documents = models.UploadNames(uploads)
			merged.Recommendations = []string{"Imóvel sem pendências"}
			return merged, nil
		},
	}
	w := newTestService(backend, archive)
	id := advance(t, ctx, w)

	s, err := w.Submit(ctx, id)
	require.NoError(t, err)
	assert.True(t, s.Completed)
	assert.Equal(t, "Casa térrea", s.Record.Property.Title)
	assert.Equal(t, []string{"edital.pdf"}, s.Record.Documents)
	require.NotNil(t, s.Notice)
	assert.Equal(t, service.SubmitSucceededTitle, s.Notice.Title)

	require.Len(t, archive.reports, 1)
	assert.Equal(t, id, archive.reports[0].SessionID)
	assert.Equal(t, "https://leilao.example/imovel/9", archive.reports[0].ListingURL)
}

func TestServiceExtractionFailure(t *testing.T) {
	ctx := context.Background()
	backendErr := &service.BackendError{Endpoint: service.EndpointExtract, Status: 200, Message: "Página não encontrada"}
	w := newTestService(&fakeBackend{
		extract: func(context.Context, string) (models.PropertyAnalysis, error) {
			return models.PropertyAnalysis{}, backendErr
		},
	}, nil)
	id := w.Create(ctx).ID
	_, err := w.SetURL(ctx, id, "https://x")
	require.NoError(t, err)

	s, err := w.Extract(ctx, id)
	require.ErrorIs(t, err, backendErr)
	assert.Equal(t, StepURL, s.Step)
	assert.Equal(t, BusyNone, s.Busy)
	require.NotNil(t, s.Notice)
	assert.Equal(t, service.ExtractFailedTitle, s.Notice.Title)
	assert.Equal(t, "Página não encontrada", s.Notice.Message)
}

func TestServiceSubmissionFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	calls := 0
	archive := &memoryArchive{}
	w := newTestService(&fakeBackend{
		extract: func(context.Context, string) (models.PropertyAnalysis, error) {
			return extractedRecord(), nil
		},
		submit: func(_ context.Context, _ string, record models.PropertyAnalysis, _ []models.Upload) (models.PropertyAnalysis, error) {
			calls++
			if calls == 1 {
				return models.PropertyAnalysis{}, errors.New("connection reset")
			}
			return record, nil
		},
	}, archive)
	id := advance(t, ctx, w)

	s, err := w.Submit(ctx, id)
	require.Error(t, err)
	assert.Equal(t, StepSubmit, s.Step)
	assert.False(t, s.Completed)
	require.NotNil(t, s.Notice)
	assert.Equal(t, service.UserMessage(service.EndpointAnalyze, err), s.Notice.Message)
	assert.Empty(t, archive.reports)

	s, err = w.Submit(ctx, id)
	require.NoError(t, err)
	assert.True(t, s.Completed)
	assert.Equal(t, 2, calls)
}

func TestServicePreviousCancelsSubmission(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	var cancelled bool

	w := newTestService(&fakeBackend{
		extract: func(context.Context, string) (models.PropertyAnalysis, error) {
			return extractedRecord(), nil
		},
		submit: func(ctx context.Context, _ string, record models.PropertyAnalysis, _ []models.Upload) (models.PropertyAnalysis, error) {
			close(entered)
			<-ctx.Done()
			cancelled = true
			<-release
			merged := record.Clone()
			merged.Recommendations = []string{"late"}
			return merged, nil
		},
	}, nil)
	id := advance(t, ctx, w)

	type result struct {
		state State
		err   error
	}
	done := make(chan result, 1)
	go func() {
		s, err := w.Submit(ctx, id)
		done <- result{s, err}
	}()

	<-entered
	busy, err := w.Next(ctx, id)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, BusySubmitting, busy.Busy)

	back, err := w.Previous(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepDocuments, back.Step)
	assert.Equal(t, BusyNone, back.Busy)
	close(release)

	res := <-done
	assert.ErrorIs(t, res.err, ErrStaleResponse)
	assert.True(t, cancelled)

	s, err := w.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StepDocuments, s.Step)
	assert.False(t, s.Completed)
	assert.Empty(t, s.Record.Recommendations)
}

func TestServiceBusyRejectsSecondExtraction(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	w := newTestService(&fakeBackend{
		extract: func(context.Context, string) (models.PropertyAnalysis, error) {
			close(entered)
			<-release
			return extractedRecord(), nil
		},
	}, nil)
	id := w.Create(ctx).ID
	_, err := w.SetURL(ctx, id, "https://x")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := w.Extract(ctx, id)
		done <- err
	}()
	<-entered

	_, err = w.Extract(ctx, id)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = w.Next(ctx, id)
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)

	s, err := w.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StepReview, s.Step)
}

func TestServiceDiscardCancelsInFlight(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	w := newTestService(&fakeBackend{
		extract: func(ctx context.Context, _ string) (models.PropertyAnalysis, error) {
			close(entered)
			<-ctx.Done()
			return models.PropertyAnalysis{}, ctx.Err()
		},
	}, nil)
	id := w.Create(ctx).ID
	_, err := w.SetURL(ctx, id, "https://x")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := w.Extract(ctx, id)
		done <- err
	}()
	<-entered

	require.NoError(t, w.Discard(id))
	assert.ErrorIs(t, <-done, context.Canceled)

	_, err = w.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, w.Discard(id), ErrSessionNotFound)
}

func TestServiceArchiveFailureDoesNotFailSubmission(t *testing.T) {
	ctx := context.Background()
	w := newTestService(&fakeBackend{
		extract: func(context.Context, string) (models.PropertyAnalysis, error) {
			return extractedRecord(), nil
		},
		submit: func(_ context.Context, _ string, record models.PropertyAnalysis, _ []models.Upload) (models.PropertyAnalysis, error) {
			return record, nil
		},
	}, &memoryArchive{err: errors.New("db down")})
	id := advance(t, ctx, w)

	s, err := w.Submit(ctx, id)
	require.NoError(t, err)
	assert.True(t, s.Completed)
}

func TestStoreExpiry(t *testing.T) {
	st := NewStore(2, time.Hour)
	a, b, c := NewSession(time.Now()), NewSession(time.Now()), NewSession(time.Now())
	st.Put(a)
	st.Put(b)
	_, err := st.Get(a.ID)
	require.NoError(t, err)
	st.Put(c)

	_, err = st.Get(b.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "least recently used session is evicted")
	_, err = st.Get(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, st.Len())
}
