package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ellistech/leadgate/internal/lead_service/app"
	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// FormHandler serves form schemas and form sessions.
type FormHandler struct {
	pipeline *app.Pipeline
	sessions *app.SessionRegistry
	logger   *slog.Logger
	validate *validator.Validate
}

func NewFormHandler(pipeline *app.Pipeline, sessions *app.SessionRegistry, logger *slog.Logger, validate *validator.Validate) *FormHandler {
	return &FormHandler{
		pipeline: pipeline,
		sessions: sessions,
		logger:   logger.With("handler", "forms"),
		validate: validate,
	}
}

func (h *FormHandler) RegisterRoutes(r chi.Router) {
	r.Get("/forms", h.ListForms)
	r.Get("/forms/{kind}", h.GetForm)
	r.Post("/forms/{kind}/submissions", h.SubmitForm)

	r.Post("/sessions", h.OpenSession)
	r.Get("/sessions/{sessionID}", h.GetSession)
	r.Delete("/sessions/{sessionID}", h.CloseSession)
	r.Patch("/sessions/{sessionID}/fields", h.SetField)
	r.Put("/sessions/{sessionID}/aux", h.SetAux)
	r.Post("/sessions/{sessionID}/submit", h.SubmitSession)
}

func (h *FormHandler) log(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}

func (h *FormHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	catalog := h.pipeline.Catalog()
	forms := catalog.Forms()
	resp := make([]FormResponse, len(forms))
	for i, f := range forms {
		resp[i] = newFormResponse(f, catalog)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	catalog := h.pipeline.Catalog()
	schema, err := catalog.Form(domain.FormKind(chi.URLParam(r, "kind")))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newFormResponse(schema, catalog))
}

// SubmitForm opens a form, applies the given fields, submits and discards it.
func (h *FormHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := domain.FormKind(chi.URLParam(r, "kind"))

	var req SubmitFormRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, GenericErrorResponse{Error: "Invalid request", Fields: validationDetails(err)})
		return
	}

	// The delivery outlives a client that hangs up mid-send.
	outcome, err := h.pipeline.SubmitOnce(context.WithoutCancel(ctx), kind, req.ServiceTitle, req.Fields)
	if err != nil {
		h.log(r).InfoContext(ctx, "One-shot submission rejected", "form", kind, "error", err)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newSubmitResponse(outcome))
}

func (h *FormHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req OpenSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, GenericErrorResponse{Error: "Invalid request", Fields: validationDetails(err)})
		return
	}

	ctrl, err := h.sessions.Open(domain.FormKind(req.Form), req.ServiceTitle)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	h.log(r).InfoContext(ctx, "Form session opened", "session_id", ctrl.ID(), "form", req.Form)
	respondWithJSON(w, http.StatusCreated, newSessionResponse(ctrl.Snapshot()))
}

func (h *FormHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newSessionResponse(ctrl.Snapshot()))
}

func (h *FormHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		respondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FormHandler) SetField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctrl, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	var req SetFieldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, GenericErrorResponse{Error: "Invalid request", Fields: validationDetails(err)})
		return
	}
	if err := ctrl.SetField(req.Name, req.Value); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newSessionResponse(ctrl.Snapshot()))
}

func (h *FormHandler) SetAux(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctrl, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	var req SetAuxRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, GenericErrorResponse{Error: "Invalid request", Fields: validationDetails(err)})
		return
	}
	if err := ctrl.SetAux(req.Key, req.Value); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newSessionResponse(ctrl.Snapshot()))
}

// SubmitSession runs the submit cycle of a session. A failed delivery is
// still a 200: the outcome says ok=false and the fields are kept.
func (h *FormHandler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.sessions.Get(sessionID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	outcome, err := ctrl.Submit(context.WithoutCancel(ctx))
	if err != nil {
		h.log(r).InfoContext(ctx, "Submission rejected", "session_id", sessionID, "error", err)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newSubmitResponse(outcome))
}
