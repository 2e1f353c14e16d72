package users

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/userdeck/userdeck/internal/ability"
	"github.com/userdeck/userdeck/internal/platform/httpx"
	"github.com/userdeck/userdeck/internal/shared"
)

// Auditor records mutations for the audit trail. Implementations must
// not fail the request; delivery is asynchronous.
type Auditor interface {
	Record(ctx context.Context, actor uuid.UUID, action, entityID string)
}

// Handler exposes user CRUD over HTTP. It resolves the principal from
// context, hands the intent to the service, and maps failures onto
// transport responses.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	auditor  Auditor
}

// NewHandler builds a Handler instance. auditor may be nil.
func NewHandler(logger *slog.Logger, service *Service, auditor Auditor) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		auditor:  auditor,
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/me", h.me)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type createPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

type updatePayload struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (ability.Principal, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return ability.Principal{}, false
	}
	return p, true
}

func (h *Handler) recordAudit(r *http.Request, actor uuid.UUID, action, entityID string) {
	if h.auditor == nil {
		return
	}
	h.auditor.Record(r.Context(), actor, action, entityID)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.service.List(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, len(list))
	for i, u := range list {
		out[i] = toResponse(u)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	u, err := h.service.GetSelf(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*u))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed user id", httpx.ErrValidation))
		return
	}
	u, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*u))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed request body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, validationDetail(err)))
		return
	}
	u, err := h.service.Create(r.Context(), p, CreateRequest{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     ability.Role(payload.Role),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, p.ID, "user.create", u.ID.String())
	httpx.JSON(w, http.StatusCreated, toResponse(*u))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed user id", httpx.ErrValidation))
		return
	}
	var payload updatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed request body", httpx.ErrValidation))
		return
	}
	u, err := h.service.Update(r.Context(), p, id, UpdateRequest{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, p.ID, "user.update", id.String())
	httpx.JSON(w, http.StatusOK, toResponse(*u))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed user id", httpx.ErrValidation))
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAudit(r, p.ID, "user.delete", id.String())
	w.WriteHeader(http.StatusNoContent)
}

func validationDetail(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "invalid payload"
	}
	detail := ""
	for i, fe := range errs {
		if i > 0 {
			detail += "; "
		}
		detail += fmt.Sprintf("%s is %s", fe.Field(), describeTag(fe.Tag()))
	}
	return detail
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "not a valid email"
	default:
		return "invalid"
	}
}
