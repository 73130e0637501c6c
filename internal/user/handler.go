package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/auth"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/frahmantamala/org-management/internal/transport"
	"github.com/frahmantamala/org-management/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetVisible(ctx context.Context, req hierarchy.Requester, id int64) (*User, error)
	List(ctx context.Context, req hierarchy.Requester, q ListUsersQuery) (*UsersResponse, error)
	Create(ctx context.Context, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error)
	AssignManager(ctx context.Context, id int64, managerID *int64) (*User, error)
	ChangeRole(ctx context.Context, id, roleID int64) (*User, error)
	Approve(ctx context.Context, id int64) (*User, error)
	Deactivate(ctx context.Context, id int64, reassignTo *int64) (*User, error)
	EligibleManagers(ctx context.Context, id int64) ([]*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeInvalidToken))
		return nil, false
	}
	return identity, true
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	u, err := h.Service.GetByID(r.Context(), identity.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", identity.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	limit, err := h.QueryInt(r, "limit")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	offset, err := h.QueryInt(r, "offset")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	q := ListUsersQuery{
		Q:      r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}

	resp, err := h.Service.List(r.Context(), identity.Requester(), q)
	if err != nil {
		h.Logger.Error("ListUsers: service List failed", "user_id", identity.ID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	u, err := h.Service.GetVisible(r.Context(), identity.Requester(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	u, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("CreateUser: service Create failed", "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, u)
}

// UpdateUser handles PATCH /users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	u, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// AssignManager handles PUT /users/{id}/manager
func (h *Handler) AssignManager(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var dto AssignManagerDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if verr := dto.Validate(); verr != nil {
		h.WriteAppError(w, verr)
		return
	}

	u, err := h.Service.AssignManager(r.Context(), id, dto.ManagerID)
	if err != nil {
		h.Logger.Warn("AssignManager: rejected", "user_id", id, "manager_id", dto.ManagerID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ChangeRole handles PUT /users/{id}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var dto ChangeRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if verr := dto.Validate(); verr != nil {
		h.WriteAppError(w, verr)
		return
	}

	u, err := h.Service.ChangeRole(r.Context(), id, dto.RoleID)
	if err != nil {
		h.Logger.Warn("ChangeRole: rejected", "user_id", id, "role_id", dto.RoleID, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ApproveUser handles POST /users/{id}/approve
func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	u, err := h.Service.Approve(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// DeactivateUser handles POST /users/{id}/deactivate. The body is optional.
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	var dto DeactivateDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.WriteAppError(w, err)
			return
		}
		if verr := dto.Validate(); verr != nil {
			h.WriteAppError(w, verr)
			return
		}
	}

	u, err := h.Service.Deactivate(r.Context(), id, dto.ReassignTo)
	if err != nil {
		h.Logger.Warn("DeactivateUser: rejected", "user_id", id, "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// EligibleManagers handles GET /users/{id}/eligible-managers
func (h *Handler) EligibleManagers(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	candidates, err := h.Service.EligibleManagers(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, EligibleManagersResponse{Candidates: candidates})
}
