package handlers

import (
	"errors"
	"time"

	"leilao-insights/internal/dto"
	"leilao-insights/internal/models"
	"leilao-insights/internal/service"
	"leilao-insights/internal/wizard"
	"leilao-insights/pkg/auth"
	"leilao-insights/pkg/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const uploadsFormField = "files"

// WizardResponse is a wizard state plus the controls the client may enable.
type WizardResponse struct {
	wizard.State
	CanGoBack    bool `json:"can_go_back"`
	CanGoForward bool `json:"can_go_forward"`
	CanExtract   bool `json:"can_extract"`
	CanSubmit    bool `json:"can_submit"`
}

// WizardErrorResponse is returned when an action fails after the state was
// read, so the client can re-render.
type WizardErrorResponse struct {
	Error string          `json:"error"`
	State *WizardResponse `json:"state,omitempty"`
}

// ReviewResponse is the formatted final review.
type ReviewResponse struct {
	Step      wizard.Step    `json:"step"`
	Completed bool           `json:"completed"`
	Review    dto.ReviewView `json:"review"`
}

func newWizardResponse(s wizard.State) *WizardResponse {
	return &WizardResponse{
		State:        s,
		CanGoBack:    s.CanGoBack(),
		CanGoForward: s.CanGoForward(),
		CanExtract:   s.CanExtract(),
		CanSubmit:    s.CanSubmit(),
	}
}

type WizardHandler struct {
	wizards    *wizard.Service
	jwtManager *auth.JWTManager
	validate   *validator.Validate
	maxUpload  int64
	logger     *zap.Logger
}

func NewWizardHandler(wizards *wizard.Service, jwtManager *auth.JWTManager, maxUploadBytes int64, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{
		wizards:    wizards,
		jwtManager: jwtManager,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		maxUpload:  maxUploadBytes,
		logger:     logger,
	}
}

// Create godoc
// @Summary Start a wizard
// @Description Create a wizard session at step 1 and issue its session token
// @Tags wizard
// @Produce json
// @Success 201 {object} dto.CreateWizardResponse
// @Router /api/v1/wizards [post]
func (h *WizardHandler) Create(c *fiber.Ctx) error {
	sess := h.wizards.Create(c.UserContext())
	token, err := h.jwtManager.GenerateToken(sess.ID.String())
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.Error(err))
		_ = h.wizards.Discard(sess.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to start wizard"})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateWizardResponse{
		ID:        sess.ID.String(),
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.jwtManager.GetTokenDuration().Seconds()),
	})
}

// Get godoc
// @Summary Get wizard state
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/wizards/{id} [get]
func (h *WizardHandler) Get(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	state, err := h.wizards.Get(id)
	if err != nil {
		return h.fail(c, err, nil)
	}
	return c.JSON(newWizardResponse(state))
}

// Discard godoc
// @Summary Discard a wizard
// @Description Drop the session and cancel any request in flight
// @Tags wizard
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/wizards/{id} [delete]
func (h *WizardHandler) Discard(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	if err := h.wizards.Discard(id); err != nil {
		return h.fail(c, err, nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetURL godoc
// @Summary Set the listing URL
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Wizard ID"
// @Param request body dto.SetURLRequest true "Listing URL"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} WizardErrorResponse
// @Router /api/v1/wizards/{id}/url [put]
func (h *WizardHandler) SetURL(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	var req dto.SetURLRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "A valid listing URL is required")
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.SetURL(c.UserContext(), id, req.URL)
	})
}

// Extract godoc
// @Summary Extract listing data
// @Description Call the extraction backend for the listing URL and advance to step 2 on success
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Failure 400 {object} WizardErrorResponse
// @Failure 409 {object} WizardErrorResponse
// @Failure 502 {object} WizardErrorResponse
// @Router /api/v1/wizards/{id}/extract [post]
func (h *WizardHandler) Extract(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.Extract(c.UserContext(), id)
	})
}

// Next godoc
// @Summary Go to the next step
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Failure 409 {object} WizardErrorResponse
// @Router /api/v1/wizards/{id}/next [post]
func (h *WizardHandler) Next(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.Next(c.UserContext(), id)
	})
}

// Previous godoc
// @Summary Go to the previous step
// @Description Keeps every edit; cancels a submission in flight
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Router /api/v1/wizards/{id}/previous [post]
func (h *WizardHandler) Previous(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.Previous(c.UserContext(), id)
	})
}

// EditProperty godoc
// @Summary Edit extracted fields
// @Description Apply field-level edits at step 2 or 3; omitted fields are unchanged
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "Wizard ID"
// @Param request body wizard.PropertyEdit true "Changed fields"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Failure 400 {object} WizardErrorResponse
// @Failure 409 {object} WizardErrorResponse
// @Router /api/v1/wizards/{id}/property [patch]
func (h *WizardHandler) EditProperty(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	var edit wizard.PropertyEdit
	if err := c.BodyParser(&edit); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(edit); err != nil {
		return badRequest(c, err.Error())
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.Edit(c.UserContext(), id, edit)
	})
}

// AddUploads godoc
// @Summary Attach documents
// @Description Attach files at step 3. Only file names are kept and sent for analysis.
// @Tags wizard
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Wizard ID"
// @Param files formData file true "Documents"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} WizardErrorResponse
// @Router /api/v1/wizards/{id}/uploads [post]
func (h *WizardHandler) AddUploads(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Multipart form with files is required")
	}
	files := form.File[uploadsFormField]
	if len(files) == 0 {
		return badRequest(c, "At least one file is required")
	}

	now := time.Now().UTC()
	uploads := make([]models.Upload, 0, len(files))
	for _, fh := range files {
		if h.maxUpload > 0 && fh.Size > h.maxUpload {
			return badRequest(c, "File "+fh.Filename+" is too large")
		}
		uploads = append(uploads, wizard.NewUpload(fh.Filename, fh.Size, fh.Header.Get(fiber.HeaderContentType), now))
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.AddUploads(c.UserContext(), id, uploads...)
	})
}

// RemoveUpload godoc
// @Summary Remove an attached document
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard ID"
// @Param uploadId path string true "Upload ID"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Failure 404 {object} WizardErrorResponse
// @Router /api/v1/wizards/{id}/uploads/{uploadId} [delete]
func (h *WizardHandler) RemoveUpload(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	uploadID, err := uuid.Parse(c.Params("uploadId"))
	if err != nil {
		return badRequest(c, "Invalid upload ID")
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.RemoveUpload(c.UserContext(), id, uploadID)
	})
}

// DismissNotice godoc
// @Summary Dismiss the current notification
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Router /api/v1/wizards/{id}/notice [delete]
func (h *WizardHandler) DismissNotice(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.DismissNotice(c.UserContext(), id)
	})
}

// Submit godoc
// @Summary Submit for analysis
// @Description Send the confirmed data and document names for analysis and merge the result
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 200 {object} WizardResponse
// @Failure 409 {object} WizardErrorResponse
// @Failure 502 {object} WizardErrorResponse
// @Router /api/v1/wizards/{id}/submit [post]
func (h *WizardHandler) Submit(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	return h.respond(c, func() (wizard.State, error) {
		return h.wizards.Submit(c.UserContext(), id)
	})
}

// Review godoc
// @Summary Formatted review
// @Tags wizard
// @Produce json
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 200 {object} ReviewResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/wizards/{id}/review [get]
func (h *WizardHandler) Review(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	state, err := h.wizards.Get(id)
	if err != nil {
		return h.fail(c, err, nil)
	}
	return c.JSON(ReviewResponse{
		Step:      state.Step,
		Completed: state.Completed,
		Review:    service.Present(state.ListingURL, state.Record),
	})
}

// ReportPDF godoc
// @Summary Download the report
// @Description PDF report of a completed analysis
// @Tags wizard
// @Produce application/pdf
// @Param id path string true "Wizard ID"
// @Security Bearer
// @Success 200 {file} file
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/wizards/{id}/report.pdf [get]
func (h *WizardHandler) ReportPDF(c *fiber.Ctx) error {
	id, err := wizardID(c)
	if err != nil {
		return badRequest(c, "Invalid wizard ID")
	}
	state, err := h.wizards.Get(id)
	if err != nil {
		return h.fail(c, err, nil)
	}
	if !state.Completed {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "Analysis is not complete yet"})
	}
	meta := service.ReportMeta{ID: id, IssuedAt: time.Now()}
	return sendPDF(c, h.logger, service.Present(state.ListingURL, state.Record), meta, "analise-"+id.String()+".pdf")
}

func (h *WizardHandler) respond(c *fiber.Ctx, action func() (wizard.State, error)) error {
	state, err := action()
	if err != nil {
		return h.fail(c, err, &state)
	}
	return c.JSON(newWizardResponse(state))
}

// fail maps wizard and backend errors onto HTTP statuses.
func (h *WizardHandler) fail(c *fiber.Ctx, err error, state *wizard.State) error {
	var be *service.BackendError
	status := fiber.StatusInternalServerError
	msg := "Internal server error"

	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Wizard not found"})
	case errors.Is(err, wizard.ErrUploadNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, wizard.ErrBusy),
		errors.Is(err, wizard.ErrInvalidTransition),
		errors.Is(err, wizard.ErrStaleResponse):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, wizard.ErrEmptyURL), errors.Is(err, wizard.ErrInvalidEdit):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.As(err, &be):
		status, msg = fiber.StatusBadGateway, be.Message
	default:
		h.logger.Error("Wizard action failed", zap.Error(err))
	}

	resp := WizardErrorResponse{Error: msg}
	if state != nil && state.Step != 0 {
		resp.State = newWizardResponse(*state)
	}
	return c.Status(status).JSON(resp)
}

// wizardID prefers the session id authenticated by SessionAuth.
func wizardID(c *fiber.Ctx) (uuid.UUID, error) {
	if sid, ok := c.Locals(middleware.SessionIDKey).(string); ok && sid != "" {
		return uuid.Parse(sid)
	}
	return uuid.Parse(c.Params("id"))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg})
}
