package livekit

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/pkg/apperror"
	"github.com/sodam-care/service-care-go/pkg/httpjson"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type TokenBody struct {
	RoomName string  `json:"roomName"`
	Identity string  `json:"identity"`
	Name     *string `json:"name"`
	Role     string  `json:"role"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{
		"status": "ok",
		"ts":     h.svc.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var body TokenBody
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	req := TokenRequest{
		RoomName: strings.TrimSpace(body.RoomName),
		Identity: strings.TrimSpace(body.Identity),
		Role:     Role(body.Role),
	}
	if req.RoomName == "" {
		httpjson.Error(w, h.logger, apperror.Invalid("roomName is required"))
		return
	}
	if req.Identity == "" {
		httpjson.Error(w, h.logger, apperror.Invalid("identity is required"))
		return
	}
	req.Name = req.Identity
	if body.Name != nil {
		req.Name = strings.TrimSpace(*body.Name)
	}
	if req.Role == "" {
		req.Role = RoleViewer
	}
	if !req.Role.Valid() {
		httpjson.Error(w, h.logger, apperror.Invalid("invalid role"))
		return
	}

	res, err := h.svc.IssueToken(req)
	if err != nil {
		httpjson.Error(w, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.svc.ListRooms(r.Context())
	h.logger.Debugw("list rooms", "count", len(rooms))
	httpjson.Write(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	room := strings.TrimSpace(r.PathValue("roomName"))
	if room == "" {
		httpjson.Error(w, h.logger, apperror.Invalid("roomName is required"))
		return
	}
	members := h.svc.ListMembers(r.Context(), room)
	h.logger.Debugw("list room members", "room", room, "count", len(members))
	httpjson.Write(w, http.StatusOK, map[string]any{"roomName": room, "members": members})
}
