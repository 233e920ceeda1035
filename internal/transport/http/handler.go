// Package http is the thin transport over the workflow engine. Identity is
// established upstream (the gateway forwards the acting user id); this
// layer only decodes requests, scopes the context, and maps results.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coppice/internal/fla/models"
	"coppice/internal/fla/service"
	"coppice/internal/publicregister"
	"coppice/internal/reconcile"
	id "coppice/pkg/domain"
	dErrors "coppice/pkg/domain-errors"
	"coppice/pkg/platform/httputil"
	"coppice/pkg/requestcontext"
)

// Decisions is the workflow surface the transport exposes.
type Decisions interface {
	FinaliseDecision(ctx context.Context, req service.FinaliseDecisionRequest) (service.Result, error)
	ReturnToReview(ctx context.Context, req service.ReturnToReviewRequest) (service.Result, error)
	RevertFromWithdrawn(ctx context.Context, appID id.ApplicationID) (service.Result, error)
	MarkApprovedInError(ctx context.Context, appID id.ApplicationID, reason string) (service.Result, error)
}

// Comments serves public register consultation comments.
type Comments interface {
	Get(ctx context.Context, caseReference string) ([]publicregister.CaseComment, error)
}

// Handler wires workflow endpoints to the decision service.
type Handler struct {
	decisions Decisions
	comments  Comments
	runner    *reconcile.Runner
	jobs      map[string]reconcile.Job
	logger    *slog.Logger
}

// New constructs a Handler. jobs keys the admin trigger endpoint.
func New(decisions Decisions, comments Comments, runner *reconcile.Runner, jobs []reconcile.Job, logger *slog.Logger) *Handler {
	byName := make(map[string]reconcile.Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name()] = job
	}
	return &Handler{decisions: decisions, comments: comments, runner: runner, jobs: byName, logger: logger}
}

// Router builds the service router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestScope)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/applications/{applicationID}/decision", h.HandleDecision)
		r.Post("/applications/{applicationID}/return", h.HandleReturn)
		r.Post("/applications/{applicationID}/revert-withdrawal", h.HandleRevert)
		r.Post("/applications/{applicationID}/approved-in-error", h.HandleApprovedInError)
		r.Get("/register/{caseReference}/comments", h.HandleComments)
	})

	r.Post("/internal/reconcile/{job}", h.HandleReconcile)
	return r
}

// requestScope stamps the request time and acting user onto the context.
// The actor header is trusted because authentication terminates upstream.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		ctx = requestcontext.WithRequestID(ctx, middleware.GetReqID(ctx))
		if raw := r.Header.Get("X-Acting-User-Id"); raw != "" {
			if actorID, err := id.ParseUserID(raw); err == nil {
				ctx = requestcontext.WithUserID(ctx, actorID)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) applicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}
	return appID, true
}

func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	result, err := h.decisions.FinaliseDecision(ctx, service.FinaliseDecisionRequest{
		ApplicationID:   appID,
		RequestedStatus: models.Status(req.RequestedStatus),
		Reason:          req.Reason,
	})
	h.writeResult(w, ctx, result, err)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReturnRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	result, err := h.decisions.ReturnToReview(ctx, service.ReturnToReviewRequest{
		ApplicationID: appID,
		CaseNote:      req.CaseNote,
	})
	h.writeResult(w, ctx, result, err)
}

func (h *Handler) HandleRevert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	result, err := h.decisions.RevertFromWithdrawn(ctx, appID)
	h.writeResult(w, ctx, result, err)
}

func (h *Handler) HandleApprovedInError(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CorrectionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	result, err := h.decisions.MarkApprovedInError(ctx, appID, req.Reason)
	h.writeResult(w, ctx, result, err)
}

func (h *Handler) HandleComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	comments, err := h.comments.Get(ctx, chi.URLParam(r, "caseReference"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "fetch register comments"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, ok := h.jobs[chi.URLParam(r, "job")]
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown reconciliation job"))
		return
	}
	summary, err := h.runner.Run(ctx, job)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "reconciliation run failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// writeResult maps a workflow Result onto HTTP: pre-condition failures get
// their definitive code; success carries the sub-process outcomes.
func (h *Handler) writeResult(w http.ResponseWriter, ctx context.Context, result service.Result, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "workflow operation errored", "error", err)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if !result.IsSuccess {
		switch result.FailureReason {
		case service.FailureCouldNotRetrieveApplication:
			status = http.StatusNotFound
		case service.FailureUserRoleNotAuthorised:
			status = http.StatusForbidden
		default:
			status = http.StatusConflict
		}
	}
	httputil.WriteJSON(w, status, toResultResponse(result))
}
