package users

import (
	"errors"
	"net/http"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/agrohub/agrohub/internal/identity"
	"github.com/agrohub/agrohub/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for user management.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new users handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterAdminRoutes registers routes that require the admin role.
// Paths are absolute so that /users/profile stays with the identity handler.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Get("/users/{id}", h.GetUser)
	r.Put("/users/{id}/role", h.UpdateUserRole)
	r.Put("/users/{id}/profile", h.UpdateUserProfile)
	r.Delete("/users/{id}", h.DeleteUser)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAllUsers(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	views := make([]identity.PublicUser, 0, len(users))
	for i := range users {
		views = append(views, identity.NewPublicUser(&users[i]))
	}

	httputil.Success(w, http.StatusOK, httputil.Envelope{
		"count": len(views),
		"users": views,
	})
}

// CreateUser handles POST /users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req identity.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.ToInput())
	if err != nil {
		if errors.Is(err, identity.ErrMissingField) {
			httputil.Error(w, http.StatusBadRequest, "Please provide name, email, and password")
			return
		}
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, httputil.Envelope{
		"message": "User created successfully",
		"user":    identity.NewPublicUser(user),
	})
}

// GetUser handles GET /users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, httputil.Envelope{"user": identity.NewPublicUser(user)})
}

// UpdateRoleRequest represents role change request body.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole handles PUT /users/{id}/role.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	actorID := httputil.GetUserID(r.Context())
	user, err := h.service.UpdateUserRole(r.Context(), actorID, chi.URLParam(r, "id"), domain.Role(req.Role))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, httputil.Envelope{
		"message": "User role updated successfully",
		"user":    identity.NewPublicUser(user),
	})
}

// UpdateUserProfile handles PUT /users/{id}/profile.
func (h *Handler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	input, ok := identity.DecodeProfileRequest(w, r, h.validator)
	if !ok {
		return
	}

	user, err := h.service.UpdateUserProfile(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, httputil.Envelope{
		"message": "User profile updated successfully",
		"user":    identity.NewPublicUser(user),
	})
}

// DeleteUser handles DELETE /users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID := httputil.GetUserID(r.Context())
	if err := h.service.DeleteUser(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, httputil.Envelope{"message": "User deleted successfully"})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrInvalidRole, Status: http.StatusBadRequest, Message: "Valid role (admin, farmer, expert) is required"},
	{Error: ErrSelfRoleChange, Status: http.StatusBadRequest, Message: "Cannot change your own role"},
	{Error: ErrSelfDelete, Status: http.StatusBadRequest, Message: "Cannot delete your own account"},
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.Error) {
			httputil.Error(w, m.Status, m.Message)
			return
		}
	}
	identity.HandleError(w, r, err)
}
