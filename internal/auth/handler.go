package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/pkg/apperror"
	"github.com/sodam-care/service-care-go/pkg/httpjson"
)

// Handler exposes HTTP endpoints for the auth flows.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// SignupRequest request body for signup endpoint.
type SignupRequest struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	Name               string `json:"name"`
	InstitutionName    string `json:"institutionName"`
	InstitutionAddress string `json:"institutionAddress"`
	InstitutionID      string `json:"institutionId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// MeResponse describes the caller behind the bearer token.
type MeResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	InstitutionID *string `json:"institutionId,omitempty"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	res, err := h.svc.Signup(r.Context(), SignupInput{
		Email:              req.Email,
		Password:           req.Password,
		Name:               req.Name,
		InstitutionName:    req.InstitutionName,
		InstitutionAddress: req.InstitutionAddress,
		InstitutionID:      req.InstitutionID,
	})
	if err != nil {
		h.logger.Debugw("signup failed", "err", err)
		httpjson.Error(w, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, h.logger, apperror.Invalid("email and password are required"))
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	if req.RefreshToken == "" {
		httpjson.Error(w, h.logger, apperror.Invalid("refreshToken is required"))
		return
	}
	res, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// Logout must be mounted behind RequireAuth.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		httpjson.Error(w, h.logger, apperror.Unauthorized("missing bearer token"))
		return
	}
	res, err := h.svc.Logout(r.Context(), id.UserID)
	if err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// Me must be mounted behind RequireAuth.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		httpjson.Error(w, h.logger, apperror.Unauthorized("missing bearer token"))
		return
	}
	httpjson.Write(w, http.StatusOK, MeResponse{ID: id.UserID, Email: id.Email, Name: id.Name, InstitutionID: id.InstitutionID})
}
