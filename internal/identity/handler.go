package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/agrohub/agrohub/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers public identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

// RegisterProtectedRoutes registers routes that require authentication.
// /users/profile is an alias kept for older clients.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	for _, path := range []string{"/auth/profile", "/users/profile"} {
		r.Get(path, h.GetProfile)
		r.Put(path, h.UpdateProfile)
	}
}

// PublicUser is the client-facing view of a user. It has no password field.
type PublicUser struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           domain.Role     `json:"role"`
	ProfilePicture string          `json:"profilePicture"`
	Bio            string          `json:"bio"`
	Phone          string          `json:"phone"`
	Address        *domain.Address `json:"address,omitempty"`
	FullAddress    string          `json:"fullAddress"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// NewPublicUser builds the public view of u.
func NewPublicUser(u *domain.User) PublicUser {
	return PublicUser{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		Phone:          u.Phone,
		Address:        u.Address,
		FullAddress:    u.Address.Full(),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// RegisterRequest represents registration request body.
// Presence of name, email and password is checked by the service so that
// the response carries the combined missing-field message.
type RegisterRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email" validate:"omitempty,email"`
	Password       string `json:"password" validate:"omitempty,min=6,max=72"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio" validate:"omitempty,max=500"`
	Phone          string `json:"phone"`
}

// ToInput converts the request into service input.
func (req RegisterRequest) ToInput() RegisterInput {
	return RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           domain.Role(req.Role),
		ProfilePicture: req.ProfilePicture,
		Bio:            req.Bio,
		Phone:          req.Phone,
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), req.ToInput())
	if err != nil {
		h.handleError(w, r, err, "Please provide name, email, and password")
		return
	}

	httputil.Success(w, http.StatusCreated, httputil.Envelope{
		"message": "User registered successfully",
		"user":    NewPublicUser(result.User),
		"token":   result.Token,
	})
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		h.handleError(w, r, err, "Please provide email and password")
		return
	}

	httputil.Success(w, http.StatusOK, httputil.Envelope{
		"message": "Login successful",
		"user":    NewPublicUser(result.User),
		"token":   result.Token,
	})
}

// GetProfile handles GET /auth/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err, "")
		return
	}

	httputil.Success(w, http.StatusOK, httputil.Envelope{"user": NewPublicUser(user)})
}

// ProfileRequest represents a partial profile update. Absent fields are nil.
type ProfileRequest struct {
	Name           *string         `json:"name"`
	Email          *string         `json:"email" validate:"omitempty,email"`
	Bio            *string         `json:"bio" validate:"omitempty,max=500"`
	Phone          *string         `json:"phone"`
	ProfilePicture *string         `json:"profilePicture"`
	Address        *domain.Address `json:"address"`
}

// ToInput converts the request into service input.
func (req ProfileRequest) ToInput() ProfileInput {
	return ProfileInput(req)
}

// DecodeProfileRequest decodes and validates a profile update body, writing
// the error response itself. Reports whether the handler should continue.
func DecodeProfileRequest(w http.ResponseWriter, r *http.Request, v *validator.Validate) (ProfileInput, bool) {
	var req ProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return ProfileInput{}, false
	}
	if err := v.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return ProfileInput{}, false
	}
	return req.ToInput(), true
}

// UpdateProfile handles PUT /auth/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	input, ok := DecodeProfileRequest(w, r, h.validator)
	if !ok {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		h.handleError(w, r, err, "")
		return
	}

	httputil.Success(w, http.StatusOK, httputil.Envelope{"user": NewPublicUser(user)})
}

// ErrorMappings are shared with other handlers that call into this package.
var ErrorMappings = []httputil.ErrorMapping{
	{Error: ErrRoleNotAllowed, Status: http.StatusBadRequest, Message: "Role must be farmer or expert"},
	{Error: ErrPasswordTooLong, Status: http.StatusBadRequest, Message: "Password must be at most 72 bytes"},
	{Error: ErrEmailExists, Status: http.StatusConflict, Message: "User already exists"},
	{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid credentials"},
	{Error: ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, missingFieldMessage string) {
	if errors.Is(err, ErrMissingField) && missingFieldMessage != "" {
		httputil.Error(w, http.StatusBadRequest, missingFieldMessage)
		return
	}
	HandleError(w, r, err)
}

// HandleError renders identity errors, falling back to 500 for unknown ones.
// Validation errors expose their detail text.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrMissingField) {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httputil.HandleError(r.Context(), w, err, ErrorMappings)
}
