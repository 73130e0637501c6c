package orgchart

import (
	"context"
	"net/http"

	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/auth"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/frahmantamala/org-management/internal/transport"
)

type ServiceAPI interface {
	Build(ctx context.Context, req hierarchy.Requester) (*Chart, error)
	VisibleUserIDs(ctx context.Context, req hierarchy.Requester) ([]int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetOrgChart handles GET /org-chart
func (h *Handler) GetOrgChart(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeInvalidToken))
		return
	}

	chart, err := h.Service.Build(r.Context(), identity.Requester())
	if err != nil {
		h.Logger.Error("GetOrgChart: failed to build org chart", "user_id", identity.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, chart)
}

// GetVisibleUsers handles GET /org-chart/visible
func (h *Handler) GetVisibleUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeInvalidToken))
		return
	}

	ids, err := h.Service.VisibleUserIDs(r.Context(), identity.Requester())
	if err != nil {
		h.Logger.Error("GetVisibleUsers: failed to resolve visible users", "user_id", identity.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, VisibleResponse{UserIDs: ids})
}
