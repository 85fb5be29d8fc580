package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"slidesmith/application/services"
	"slidesmith/pkg/common"
	apperrors "slidesmith/pkg/errors"
	"slidesmith/pkg/utils"
)

const maxRequestBytes = 1 << 20

// PresentationHandler handles submission, polling, and inspection requests.
type PresentationHandler struct {
	pipeline  *services.PipelineService
	populator *services.PopulatorService

	defaultPresentationID string
	defaultCopyFirst      bool
	logger                *zap.Logger
}

// NewPresentationHandler creates a new presentation handler
func NewPresentationHandler(
	pipeline *services.PipelineService,
	populator *services.PopulatorService,
	defaultPresentationID string,
	defaultCopyFirst bool,
	logger *zap.Logger,
) *PresentationHandler {
	return &PresentationHandler{
		pipeline:              pipeline,
		populator:             populator,
		defaultPresentationID: defaultPresentationID,
		defaultCopyFirst:      defaultCopyFirst,
		logger:                logger,
	}
}

// SubmitRequest is the POST body for a new run. presentation_id falls back to
// the configured default when omitted.
type SubmitRequest struct {
	PresentationID        string                 `json:"presentation_id,omitempty"`
	Email                 string                 `json:"email,omitempty" validate:"omitempty,email"`
	CreateNewPresentation *bool                  `json:"create_new_presentation,omitempty"`
	UserInput             map[string]interface{} `json:"user_input" validate:"required"`
}

// SubmitResponse acknowledges an accepted run.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Submit handles POST /presentations
func (h *PresentationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest,
			"Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError,
			"Validation error: "+err.Error())
		return
	}

	presentationID := req.PresentationID
	if presentationID == "" {
		presentationID = h.defaultPresentationID
	}
	if presentationID == "" {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError,
			"presentation_id is required: provide it in the request or configure a default")
		return
	}

	copyFirst := h.defaultCopyFirst
	if req.CreateNewPresentation != nil {
		copyFirst = *req.CreateNewPresentation
	}

	j, err := h.pipeline.Submit(r.Context(), &services.PopulateRequest{
		PresentationID:        presentationID,
		Email:                 req.Email,
		CreateNewPresentation: copyFirst,
		UserInput:             req.UserInput,
	})
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusAccepted, SubmitResponse{
		JobID:  j.ID,
		Status: string(j.Status),
	})
}

// Status handles GET /presentations/jobs/{jobID}
func (h *PresentationHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	j, err := h.pipeline.Status(jobID)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, j)
}

// Inspect handles GET /presentations/{presentationID}/slides. The optional
// ?slide= query selects one slide by zero-based index.
func (h *PresentationHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	presentationID := chi.URLParam(r, "presentationID")

	slideIndex := -1
	if raw := r.URL.Query().Get("slide"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError,
				"slide must be a non-negative integer")
			return
		}
		slideIndex = parsed
	}

	summaries, err := h.populator.Inspect(r.Context(), presentationID, slideIndex)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, summaries)
}

// respondAppError maps the error taxonomy onto HTTP responses.
func (h *PresentationHandler) respondAppError(w http.ResponseWriter, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= 500 {
			h.logger.Error("request failed", zap.Error(err))
		}
		common.RespondError(w, status, string(appErr.Type), appErr.Message)
		return
	}
	h.logger.Error("request failed", zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError,
		"Internal server error")
}
