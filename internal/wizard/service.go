package wizard

import (
	"context"
	"errors"
	"time"

	"leilao-insights/internal/models"
	"leilao-insights/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	actionCreate   = "create"
	actionSetURL   = "set_url"
	actionExtract  = "extract"
	actionNext     = "next"
	actionPrevious = "previous"
	actionEdit     = "edit"
	actionUpload   = "add_uploads"
	actionRemove   = "remove_upload"
	actionSubmit   = "submit"
	actionDismiss  = "dismiss_notice"
)

// Backend turns the two backend round trips into canonical records.
type Backend interface {
	Extract(ctx context.Context, listingURL string) (models.PropertyAnalysis, error)
	Submit(ctx context.Context, listingURL string, record models.PropertyAnalysis, uploads []models.Upload) (models.PropertyAnalysis, error)
}

// Archiver persists finished analyses.
type Archiver interface {
	Create(ctx context.Context, report *models.Report) error
}

// Service drives wizard sessions.
type Service struct {
	store   *Store
	backend Backend
	archive Archiver
	metrics *service.Metrics
	now     func() time.Time
	logger  *zap.Logger
}

// NewService wires the wizard. archive and metrics may be nil.
func NewService(store *Store, backend Backend, archive Archiver, metrics *service.Metrics, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		backend: backend,
		archive: archive,
		metrics: metrics,
		now:     time.Now,
		logger:  logger,
	}
}

func (w *Service) Create(ctx context.Context) *Session {
	sess := NewSession(w.now())
	w.store.Put(sess)
	w.metrics.RecordTransition(ctx, actionCreate, nil)
	w.logger.Info("Wizard session created", zap.String("session_id", sess.ID.String()))
	return sess
}

func (w *Service) Get(id uuid.UUID) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}
	return sess.Snapshot(), nil
}

// Discard drops the session and cancels whatever it has in flight.
func (w *Service) Discard(id uuid.UUID) error {
	if !w.store.Remove(id) {
		return ErrSessionNotFound
	}
	w.logger.Info("Wizard session discarded", zap.String("session_id", id.String()))
	return nil
}

func (w *Service) SetURL(ctx context.Context, id uuid.UUID, url string) (State, error) {
	return w.apply(ctx, id, actionSetURL, func(s State) (State, error) {
		return s.SetURL(url)
	})
}

func (w *Service) Next(ctx context.Context, id uuid.UUID) (State, error) {
	return w.apply(ctx, id, actionNext, State.Next)
}

// Previous steps back. Leaving step 4 while a submission is in flight
// cancels it.
func (w *Service) Previous(ctx context.Context, id uuid.UUID) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	wasBusy := sess.state.Busy != BusyNone
	sess.state = sess.state.Previous()
	if wasBusy && sess.state.Busy == BusyNone {
		sess.abortLocked()
		w.logger.Info("In-flight request cancelled", zap.String("session_id", id.String()))
	}
	w.metrics.RecordTransition(ctx, actionPrevious, nil)
	return sess.state.Clone(), nil
}

func (w *Service) Edit(ctx context.Context, id uuid.UUID, edit PropertyEdit) (State, error) {
	return w.apply(ctx, id, actionEdit, func(s State) (State, error) {
		return s.Edit(edit)
	})
}

func (w *Service) AddUploads(ctx context.Context, id uuid.UUID, uploads ...models.Upload) (State, error) {
	return w.apply(ctx, id, actionUpload, func(s State) (State, error) {
		return s.AddUploads(uploads...)
	})
}

func (w *Service) RemoveUpload(ctx context.Context, id, uploadID uuid.UUID) (State, error) {
	return w.apply(ctx, id, actionRemove, func(s State) (State, error) {
		return s.RemoveUpload(uploadID)
	})
}

func (w *Service) DismissNotice(ctx context.Context, id uuid.UUID) (State, error) {
	return w.apply(ctx, id, actionDismiss, func(s State) (State, error) {
		return s.DismissNotice(), nil
	})
}

// Extract runs the extraction for the session's listing URL. A backend
// failure is returned together with the state carrying the error notice.
func (w *Service) Extract(ctx context.Context, id uuid.UUID) (State, error) {
	return w.roundTrip(ctx, id, roundTrip{
		action:   actionExtract,
		endpoint: service.EndpointExtract,
		begin:    State.BeginExtraction,
		call: func(ctx context.Context, s State) (models.PropertyAnalysis, error) {
			return w.backend.Extract(ctx, s.ListingURL)
		},
		complete: State.CompleteExtraction,
		fail:     State.FailExtraction,
	})
}

// Submit sends the confirmed record for analysis and archives the result.
func (w *Service) Submit(ctx context.Context, id uuid.UUID) (State, error) {
	state, err := w.roundTrip(ctx, id, roundTrip{
		action:   actionSubmit,
		endpoint: service.EndpointAnalyze,
		begin:    State.BeginSubmission,
		call: func(ctx context.Context, s State) (models.PropertyAnalysis, error) {
			return w.backend.Submit(ctx, s.ListingURL, s.Record, s.Uploads)
		},
		complete: State.CompleteSubmission,
		fail:     State.FailSubmission,
	})
	if err == nil {
		w.archiveReport(ctx, id, state)
	}
	return state, err
}

type roundTrip struct {
	action   string
	endpoint string
	begin    func(State) (State, error)
	call     func(context.Context, State) (models.PropertyAnalysis, error)
	complete func(State, uint64, models.PropertyAnalysis) (State, error)
	fail     func(State, uint64, string) (State, error)
}

func (w *Service) roundTrip(ctx context.Context, id uuid.UUID, rt roundTrip) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}

	sess.mu.Lock()
	started, err := rt.begin(sess.state)
	if err != nil {
		current := sess.state.Clone()
		sess.mu.Unlock()
		w.metrics.RecordTransition(ctx, rt.action, err)
		return current, err
	}
	sess.state = started
	token := started.Token
	callCtx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel
	request := started.Clone()
	sess.mu.Unlock()

	record, callErr := rt.call(callCtx, request)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	cancel()
	if sess.state.Token == token {
		sess.cancel = nil
	}

	var next State
	if callErr != nil {
		next, err = rt.fail(sess.state, token, service.UserMessage(rt.endpoint, callErr))
	} else {
		next, err = rt.complete(sess.state, token, record)
	}
	if err != nil {
		w.logger.Info("Discarding late response",
			zap.String("session_id", id.String()),
			zap.String("action", rt.action),
			zap.Uint64("token", token),
		)
		w.metrics.RecordTransition(ctx, rt.action, err)
		return sess.state.Clone(), err
	}
	sess.state = next
	w.metrics.RecordTransition(ctx, rt.action, callErr)

	if callErr != nil {
		w.logger.Warn("Backend call failed",
			zap.String("session_id", id.String()),
			zap.String("action", rt.action),
			zap.Error(callErr),
		)
		return next.Clone(), callErr
	}
	return next.Clone(), nil
}

func (w *Service) apply(ctx context.Context, id uuid.UUID, action string, fn func(State) (State, error)) (State, error) {
	sess, err := w.store.Get(id)
	if err != nil {
		return State{}, err
	}
	state, err := sess.Update(fn)
	w.metrics.RecordTransition(ctx, action, err)
	if err != nil && !errors.Is(err, ErrBusy) {
		w.logger.Debug("Transition rejected",
			zap.String("session_id", id.String()),
			zap.String("action", action),
			zap.Error(err),
		)
	}
	return state, err
}

func (w *Service) archiveReport(ctx context.Context, id uuid.UUID, state State) {
	if w.archive == nil {
		return
	}
	report := &models.Report{
		ID:         uuid.New(),
		SessionID:  id,
		ListingURL: state.ListingURL,
		Analysis:   state.Record,
		CreatedAt:  w.now().UTC(),
	}
	if err := w.archive.Create(context.WithoutCancel(ctx), report); err != nil {
		w.logger.Error("Failed to archive report", zap.String("session_id", id.String()), zap.Error(err))
		return
	}
	w.logger.Info("Report archived",
		zap.String("session_id", id.String()),
		zap.String("report_id", report.ID.String()),
	)
}
