// Package handler exposes the derivation administration API: the rule set
// (policies, rules, destinations) and per-complaint derivation controls.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"vozsegura/internal/derivation/models"
	"vozsegura/internal/derivation/orchestrator"
	"vozsegura/internal/identity/pseudonym"
	jwttoken "vozsegura/internal/jwt_token"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/httputil"
	"vozsegura/pkg/platform/middleware/auth"
	"vozsegura/pkg/requestcontext"
)

// retryAfterSeconds is advertised on retryable derivation failures.
const retryAfterSeconds = 30

// PolicyAdmin is the administrative surface of the policy service.
type PolicyAdmin interface {
	CreatePolicy(ctx context.Context, req models.CreatePolicyRequest, actor models.Actor) (*models.Policy, error)
	RetirePolicy(ctx context.Context, policyID id.PolicyID, actor models.Actor) (*models.Policy, error)
	NewPolicyVersion(ctx context.Context, sourceID id.PolicyID, effectiveFrom time.Time, actor models.Actor) (*models.Policy, error)
	GetPolicy(ctx context.Context, policyID id.PolicyID, actor models.Actor) (*models.Policy, error)
	ListPolicies(ctx context.Context) ([]*models.Policy, error)

	CreateRule(ctx context.Context, req models.CreateRuleRequest, actor models.Actor) (*models.Rule, error)
	UpdateRule(ctx context.Context, req models.UpdateRuleRequest, actor models.Actor) (*models.Rule, error)
	DeactivateRule(ctx context.Context, ruleID id.RuleID, actor models.Actor) (*models.Rule, error)
	ListRules(ctx context.Context, policyID id.PolicyID) ([]*models.Rule, error)

	CreateDestination(ctx context.Context, req models.CreateDestinationRequest, actor models.Actor) (*models.Destination, error)
	UpdateDestination(ctx context.Context, req models.UpdateDestinationRequest, actor models.Actor) (*models.Destination, error)
	DeactivateDestination(ctx context.Context, destID id.DestinationID, actor models.Actor) (*models.Destination, error)
	ListDestinations(ctx context.Context) ([]*models.Destination, error)
}

// Derivations is the per-complaint surface of the orchestrator.
type Derivations interface {
	Derive(ctx context.Context, req orchestrator.DeriveRequest) (*orchestrator.Result, error)
	Reopen(ctx context.Context, trackingID id.TrackingID, actingUsername string) error
	Status(ctx context.Context, trackingID id.TrackingID, actingUsername string) (*orchestrator.StatusView, error)
}

type Handler struct {
	policies    PolicyAdmin
	derivations Derivations
	logger      *slog.Logger
}

func New(policies PolicyAdmin, derivations Derivations, logger *slog.Logger) *Handler {
	return &Handler{
		policies:    policies,
		derivations: derivations,
		logger:      logger,
	}
}

// Register mounts the admin endpoints. Callers authenticate staff before
// this router; rule-set writes and reopen additionally require the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/policies", h.HandleListPolicies)
		r.Get("/policies/{policyID}", h.HandleGetPolicy)
		r.Get("/policies/{policyID}/rules", h.HandleListRules)
		r.Get("/destinations", h.HandleListDestinations)
		r.Get("/complaints/{trackingID}", h.HandleComplaintStatus)
		r.Post("/complaints/{trackingID}/derive", h.HandleDerive)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(jwttoken.RoleAdmin))
			r.Post("/policies", h.HandleCreatePolicy)
			r.Post("/policies/{policyID}/retire", h.HandleRetirePolicy)
			r.Post("/policies/{policyID}/versions", h.HandleNewPolicyVersion)
			r.Post("/policies/{policyID}/rules", h.HandleCreateRule)
			r.Put("/rules/{ruleID}", h.HandleUpdateRule)
			r.Post("/rules/{ruleID}/deactivate", h.HandleDeactivateRule)
			r.Post("/destinations", h.HandleCreateDestination)
			r.Put("/destinations/{destinationID}", h.HandleUpdateDestination)
			r.Post("/destinations/{destinationID}/deactivate", h.HandleDeactivateDestination)
			r.Post("/complaints/{trackingID}/reopen", h.HandleReopen)
		})
	})
}

// =============================================================================
// Policies
// =============================================================================

func (h *Handler) HandleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreatePolicyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.policies.CreatePolicy(ctx, models.CreatePolicyRequest{
		Name:          req.Name,
		EffectiveFrom: req.parsedFrom,
		EffectiveTo:   req.parsedTo,
	}, actor)
	if err != nil {
		h.fail(w, ctx, "create policy failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policies, err := h.policies.ListPolicies(ctx)
	if err != nil {
		h.fail(w, ctx, "list policies failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newList(policies))
}

func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.policies.GetPolicy(ctx, policyID, actor)
	if err != nil {
		h.fail(w, ctx, "get policy failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleRetirePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.policies.RetirePolicy(ctx, policyID, actor)
	if err != nil {
		h.fail(w, ctx, "retire policy failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleNewPolicyVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[NewVersionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.policies.NewPolicyVersion(ctx, policyID, req.parsedFrom, actor)
	if err != nil {
		h.fail(w, ctx, "new policy version failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

// =============================================================================
// Rules
// =============================================================================

func (h *Handler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RuleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rule, err := h.policies.CreateRule(ctx, models.CreateRuleRequest{
		PolicyID:           policyID,
		SeverityMatch:      req.severity,
		ComplaintTypeMatch: req.complaintType,
		PriorityOrder:      *req.PriorityOrder,
		DestinationID:      id.DestinationID(req.DestinationID),
	}, actor)
	if err != nil {
		h.fail(w, ctx, "create rule failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RuleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rule, err := h.policies.UpdateRule(ctx, models.UpdateRuleRequest{
		RuleID:             ruleID,
		SeverityMatch:      req.severity,
		ComplaintTypeMatch: req.complaintType,
		PriorityOrder:      *req.PriorityOrder,
		DestinationID:      id.DestinationID(req.DestinationID),
	}, actor)
	if err != nil {
		h.fail(w, ctx, "update rule failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) HandleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rule, err := h.policies.DeactivateRule(ctx, ruleID, actor)
	if err != nil {
		h.fail(w, ctx, "deactivate rule failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rules, err := h.policies.ListRules(ctx, policyID)
	if err != nil {
		h.fail(w, ctx, "list rules failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newList(rules))
}

// =============================================================================
// Destinations
// =============================================================================

func (h *Handler) HandleCreateDestination(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateDestinationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.policies.CreateDestination(ctx, models.CreateDestinationRequest{
		Name:     req.Name,
		Code:     req.Code,
		Endpoint: req.Endpoint,
	}, actor)
	if err != nil {
		h.fail(w, ctx, "create destination failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) HandleUpdateDestination(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	destID, err := id.ParseDestinationID(chi.URLParam(r, "destinationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateDestinationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.policies.UpdateDestination(ctx, models.UpdateDestinationRequest{
		DestinationID: destID,
		Name:          req.Name,
		Endpoint:      req.Endpoint,
	}, actor)
	if err != nil {
		h.fail(w, ctx, "update destination failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleDeactivateDestination(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	destID, err := id.ParseDestinationID(chi.URLParam(r, "destinationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.policies.DeactivateDestination(ctx, destID, actor)
	if err != nil {
		h.fail(w, ctx, "deactivate destination failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleListDestinations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	destinations, err := h.policies.ListDestinations(ctx)
	if err != nil {
		h.fail(w, ctx, "list destinations failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newList(destinations))
}

// =============================================================================
// Complaints
// =============================================================================

// HandleDerive handles POST /admin/complaints/{trackingID}/derive. The call is
// synchronous and bounded by the delivery timeout.
func (h *Handler) HandleDerive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	username := requestcontext.AdminUsername(ctx)
	if username == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	trackingID, err := id.ParseTrackingID(chi.URLParam(r, "trackingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.derivations.Derive(ctx, orchestrator.DeriveRequest{
		TrackingID:     trackingID,
		ActingUsername: username,
	})
	if err != nil {
		var f *orchestrator.Failure
		if errors.As(err, &f) && f.Retryable {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		}
		h.fail(w, ctx, "derivation failed", err)
		return
	}

	h.logger.InfoContext(ctx, "derivation completed",
		"request_id", requestcontext.RequestID(ctx),
		"tracking_id", trackingID.String(),
		"destination", res.DestinationCode,
		"already_derived", res.AlreadyDerived,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(res))
}

func (h *Handler) HandleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trackingID, err := id.ParseTrackingID(chi.URLParam(r, "trackingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.derivations.Reopen(ctx, trackingID, requestcontext.AdminUsername(ctx)); err != nil {
		h.fail(w, ctx, "reopen failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleComplaintStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trackingID, err := id.ParseTrackingID(chi.URLParam(r, "trackingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.derivations.Status(ctx, trackingID, requestcontext.AdminUsername(ctx))
	if err != nil {
		h.fail(w, ctx, "complaint status failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// requireActor resolves the pseudonymous actor of the authenticated staff
// member, writing 401 when there is none.
func (h *Handler) requireActor(w http.ResponseWriter, ctx context.Context) (models.Actor, bool) {
	username := requestcontext.AdminUsername(ctx)
	if username == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return models.Actor{}, false
	}
	handle, err := pseudonym.StaffHandle(username)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return models.Actor{}, false
	}
	return models.Actor{Handle: handle, Role: requestcontext.AdminRole(ctx)}, true
}

func (h *Handler) fail(w http.ResponseWriter, ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeAuditFailure {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
