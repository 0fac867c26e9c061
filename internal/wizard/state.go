// Package wizard implements the four-step analysis intake flow: URL intake,
// extracted-data review, document upload and final review with submission.
//
// State is a plain value; every action is a method returning the next State
// or an error, so the busy guard and the replace-versus-merge rules live in
// one place. Session adds locking and request cancellation on top.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"leilao-insights/internal/models"
	"leilao-insights/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Step int

const (
	StepURL       Step = 1
	StepReview    Step = 2
	StepDocuments Step = 3
	StepSubmit    Step = 4
)

// Busy tells which backend call, if any, is in flight.
type Busy string

const (
	BusyNone       Busy = ""
	BusyExtracting Busy = "extracting"
	BusySubmitting Busy = "submitting"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the last dismissible notification shown to the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

var (
	ErrBusy              = errors.New("a request is already in flight")
	ErrInvalidTransition = errors.New("action not allowed at the current step")
	ErrEmptyURL          = errors.New("listing url is empty")
	ErrStaleResponse     = errors.New("response belongs to a cancelled request")
	ErrInvalidEdit       = errors.New("invalid field value")
	ErrUploadNotFound    = errors.New("upload not found")
)

// State is the whole wizard at one point in time.
type State struct {
	Step       Step                    `json:"step"`
	Busy       Busy                    `json:"busy"`
	Token      uint64                  `json:"token"`
	Completed  bool                    `json:"completed"`
	ListingURL string                  `json:"listing_url"`
	Record     models.PropertyAnalysis `json:"record"`
	Uploads    []models.Upload         `json:"uploads"`
	Notice     *Notice                 `json:"notice,omitempty"`
}

// NewState is the state of a freshly mounted wizard.
func NewState() State {
	return State{
		Step:    StepURL,
		Record:  models.NewPropertyAnalysis(),
		Uploads: []models.Upload{},
	}
}

// Clone deep-copies the state.
func (s State) Clone() State {
	out := s
	out.Record = s.Record.Clone()
	out.Uploads = append([]models.Upload{}, s.Uploads...)
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	return out
}

func (s State) CanGoBack() bool {
	return s.Step > StepURL
}

func (s State) CanGoForward() bool {
	return s.Step < StepSubmit && s.Busy == BusyNone
}

func (s State) CanExtract() bool {
	return s.Step == StepURL && s.Busy == BusyNone && strings.TrimSpace(s.ListingURL) != ""
}

func (s State) CanSubmit() bool {
	return s.Step == StepSubmit && s.Busy == BusyNone
}

// Next moves one step forward. Step 4 has no forward transition; its
// control submits instead.
func (s State) Next() (State, error) {
	if s.Busy != BusyNone {
		return s, ErrBusy
	}
	if s.Step >= StepSubmit {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Step++
	return next, nil
}

// Previous moves one step back keeping every edit. It is a no-op at step 1.
// A request still in flight is invalidated: its response will be discarded.
func (s State) Previous() State {
	if !s.CanGoBack() {
		return s
	}
	next := s.Clone()
	next.Step--
	if next.Busy != BusyNone {
		next.Busy = BusyNone
		next.Token++
	}
	return next
}

func (s State) SetURL(url string) (State, error) {
	if s.Busy != BusyNone {
		return s, ErrBusy
	}
	if s.Step != StepURL {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.ListingURL = strings.TrimSpace(url)
	return next, nil
}

// BeginExtraction marks an extraction in flight and issues its token.
func (s State) BeginExtraction() (State, error) {
	if s.Busy != BusyNone {
		return s, ErrBusy
	}
	if s.Step != StepURL {
		return s, ErrInvalidTransition
	}
	if strings.TrimSpace(s.ListingURL) == "" {
		return s, ErrEmptyURL
	}
	next := s.Clone()
	next.Busy = BusyExtracting
	next.Token++
	return next, nil
}

// CompleteExtraction replaces the whole record and advances to step 2.
func (s State) CompleteExtraction(token uint64, record models.PropertyAnalysis) (State, error) {
	if err := s.checkToken(token, BusyExtracting); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Busy = BusyNone
	next.Record = record.Clone()
	next.Step = StepReview
	next.Completed = false
	next.Notice = &Notice{Kind: NoticeSuccess, Title: service.ExtractSucceededTitle, Message: service.ExtractSucceededDetail}
	return next, nil
}

// FailExtraction leaves the record untouched and stays at step 1.
func (s State) FailExtraction(token uint64, message string) (State, error) {
	if err := s.checkToken(token, BusyExtracting); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Busy = BusyNone
	next.Notice = &Notice{Kind: NoticeError, Title: service.ExtractFailedTitle, Message: message}
	return next, nil
}

// PropertyEdit carries the fields a user changed; nil means unchanged.
type PropertyEdit struct {
	Title           *string          `json:"title,omitempty"`
	PropertyType    *string          `json:"property_type,omitempty"`
	TotalAreaSqm    *float64         `json:"total_area_sqm,omitempty" validate:"omitempty,gte=0"`
	Street          *string          `json:"street,omitempty"`
	Neighborhood    *string          `json:"neighborhood,omitempty"`
	City            *string          `json:"city,omitempty"`
	State           *string          `json:"state,omitempty"`
	InitialBidValue *decimal.Decimal `json:"initial_bid_value,omitempty"`
	CurrentValue    *decimal.Decimal `json:"current_value,omitempty"`
	StartDate       *string          `json:"start_date,omitempty"`
	AuctionType     *string          `json:"auction_type,omitempty"`
	EndDate         *string          `json:"end_date,omitempty"`
}

// Edit applies a field-level change at step 2 or 3. The edit is applied as a
// whole or not at all. Any change invalidates a previous analysis.
func (s State) Edit(edit PropertyEdit) (State, error) {
	if s.Busy != BusyNone {
		return s, ErrBusy
	}
	if s.Step != StepReview && s.Step != StepDocuments {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	p := &next.Record.Property

	setString(&p.Title, edit.Title)
	setString(&p.Street, edit.Street)
	setString(&p.Neighborhood, edit.Neighborhood)
	setString(&p.City, edit.City)
	setString(&p.State, edit.State)
	setString(&next.Record.AuctionType, edit.AuctionType)

	if edit.PropertyType != nil {
		t := models.ParsePropertyType(*edit.PropertyType)
		if t == models.PropertyTypeUnknown && strings.TrimSpace(*edit.PropertyType) != "" {
			return s, fmt.Errorf("%w: property_type %q", ErrInvalidEdit, *edit.PropertyType)
		}
		p.PropertyType = t
	}
	if edit.TotalAreaSqm != nil {
		if *edit.TotalAreaSqm < 0 {
			return s, fmt.Errorf("%w: total_area_sqm must not be negative", ErrInvalidEdit)
		}
		p.TotalAreaSqm = *edit.TotalAreaSqm
	}
	if err := setMoney(&p.InitialBidValue, edit.InitialBidValue, "initial_bid_value"); err != nil {
		return s, err
	}
	if err := setMoney(&p.CurrentValue, edit.CurrentValue, "current_value"); err != nil {
		return s, err
	}
	if err := setDate(&p.StartDate, edit.StartDate, "start_date"); err != nil {
		return s, err
	}
	if err := setDate(&next.Record.EndDate, edit.EndDate, "end_date"); err != nil {
		return s, err
	}
	next.Completed = false
	return next, nil
}

// AddUploads appends files at step 3, in order, without de-duplication.
func (s State) AddUploads(uploads ...models.Upload) (State, error) {
	if s.Busy != BusyNone {
		return s, ErrBusy
	}
	if s.Step != StepDocuments {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Uploads = append(next.Uploads, uploads...)
	next.Completed = false
	return next, nil
}

// RemoveUpload drops the upload with the given id at step 3.
func (s State) RemoveUpload(id uuid.UUID) (State, error) {
	if s.Busy != BusyNone {
		return s, ErrBusy
	}
	if s.Step != StepDocuments {
		return s, ErrInvalidTransition
	}
	for i, u := range s.Uploads {
		if u.ID == id {
			next := s.Clone()
			next.Uploads = append(next.Uploads[:i], next.Uploads[i+1:]...)
			next.Completed = false
			return next, nil
		}
	}
	return s, ErrUploadNotFound
}

// BeginSubmission marks a submission in flight and issues its token.
func (s State) BeginSubmission() (State, error) {
	if s.Busy != BusyNone {
		return s, ErrBusy
	}
	if s.Step != StepSubmit {
		return s, ErrInvalidTransition
	}
	next := s.Clone()
	next.Busy = BusySubmitting
	next.Token++
	return next, nil
}

// CompleteSubmission stores the merged record and shows the final review.
func (s State) CompleteSubmission(token uint64, merged models.PropertyAnalysis) (State, error) {
	if err := s.checkToken(token, BusySubmitting); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Busy = BusyNone
	next.Record = merged.Clone()
	next.Completed = true
	next.Notice = &Notice{Kind: NoticeSuccess, Title: service.SubmitSucceededTitle, Message: service.SubmitSucceededDetail}
	return next, nil
}

// FailSubmission keeps the record and stays at step 4 so the user can retry.
func (s State) FailSubmission(token uint64, message string) (State, error) {
	if err := s.checkToken(token, BusySubmitting); err != nil {
		return s, err
	}
	next := s.Clone()
	next.Busy = BusyNone
	next.Notice = &Notice{Kind: NoticeError, Title: service.SubmitFailedTitle, Message: message}
	return next, nil
}

// DismissNotice clears the current notification.
func (s State) DismissNotice() State {
	next := s.Clone()
	next.Notice = nil
	return next
}

func (s State) checkToken(token uint64, want Busy) error {
	if s.Busy != want || s.Token != token {
		return ErrStaleResponse
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setMoney(dst *decimal.Decimal, v *decimal.Decimal, field string) error {
	if v == nil {
		return nil
	}
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidEdit, field)
	}
	*dst = *v
	return nil
}

// setDate accepts the same layouts as extraction and stores a calendar date.
func setDate(dst *string, v *string, field string) error {
	if v == nil {
		return nil
	}
	date, ok := service.ParseCalendarDate(*v)
	if !ok {
		return fmt.Errorf("%w: %s %q is not a date", ErrInvalidEdit, field, *v)
	}
	*dst = date
	return nil
}

// NewUpload records a received file. Only its metadata is kept.
func NewUpload(name string, size int64, contentType string, now time.Time) models.Upload {
	return models.Upload{
		ID:          uuid.New(),
		Name:        name,
		Size:        size,
		ContentType: contentType,
		AddedAt:     now,
	}
}
