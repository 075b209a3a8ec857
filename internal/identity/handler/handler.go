// Package handler exposes the administrative delegation-minting endpoint.
// The endpoint returns a delegation wire, which is a bearer credential: the
// route must only ever be mounted behind service authentication, and the
// wire body is never logged.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetbook/internal/audit"
	"fleetbook/internal/identity"
	dErrors "fleetbook/pkg/domain-errors"
	"fleetbook/pkg/platform/httputil"
	"fleetbook/pkg/requestcontext"
)

// DelegationRequest is the HTTP request body for POST /admin/delegations.
type DelegationRequest struct {
	// Lifetime selects the delegation preset: "standard" or "short".
	Lifetime string `json:"lifetime"`
}

func (r *DelegationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	switch r.Lifetime {
	case "", "standard", "short":
		return nil
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "lifetime must be \"standard\" or \"short\"")
	}
}

// DelegationResponse wraps the minted wire with its effective expiry.
type DelegationResponse struct {
	Identity  *identity.Wire `json:"identity"`
	ExpiresAt uint64         `json:"expires_at"`
}

// Handler mints session delegations from the service's root identity.
type Handler struct {
	root   *identity.Identity
	audit  *audit.Service
	logger *slog.Logger
}

func New(root *identity.Identity, auditSvc *audit.Service, logger *slog.Logger) *Handler {
	return &Handler{root: root, audit: auditSvc, logger: logger}
}

// Register mounts the delegation endpoint. Callers must wrap the router in
// service authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/delegations", h.HandleMint)
}

// HandleMint handles POST /admin/delegations requests.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DelegationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	maxAge := identity.SessionMaxAge
	if req.Lifetime == "short" {
		maxAge = identity.ShortSessionMaxAge
	}

	wire, err := identity.Delegate(h.root, maxAge)
	if err != nil {
		h.logger.ErrorContext(ctx, "delegation minting failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "delegation minting failed"))
		return
	}

	if h.audit != nil {
		if err := h.audit.Emit(ctx, audit.Event{
			Action:    audit.ActionDelegationIssued,
			Principal: h.root.Principal().String(),
			Decision:  req.Lifetime,
		}); err != nil {
			h.logger.WarnContext(ctx, "failed to emit audit event",
				"request_id", requestID,
				"error", err)
		}
	}

	expiry := identity.EffectiveExpiry(wire.Chain)
	h.logger.InfoContext(ctx, "delegation issued",
		"request_id", requestID,
		"subject", requestcontext.Subject(ctx),
		"lifetime", req.Lifetime,
		"expires_at", time.Unix(0, int64(expiry)).UTC().Format(time.RFC3339),
	)
	httputil.WriteJSON(w, http.StatusOK, DelegationResponse{Identity: wire, ExpiresAt: expiry})
}
