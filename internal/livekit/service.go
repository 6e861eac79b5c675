// Package livekit issues room-access tokens and lists rooms on a LiveKit
// server.
package livekit

import (
	"context"
	"time"

	lkauth "github.com/livekit/protocol/auth"
	lkproto "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/internal/config"
	"github.com/sodam-care/service-care-go/pkg/apperror"
)

type Role string

const (
	RoleHost     Role = "host"
	RoleViewer   Role = "viewer"
	RoleObserver Role = "observer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleViewer, RoleObserver:
		return true
	}
	return false
}

// RoomLister is the part of the LiveKit room service client we call.
// *lksdk.RoomServiceClient satisfies it.
type RoomLister interface {
	ListRooms(ctx context.Context, req *lkproto.ListRoomsRequest) (*lkproto.ListRoomsResponse, error)
	ListParticipants(ctx context.Context, req *lkproto.ListParticipantsRequest) (*lkproto.ListParticipantsResponse, error)
}

type TokenRequest struct {
	RoomName string
	Identity string
	Name     string
	Role     Role
}

type TokenResult struct {
	LiveKitURL string    `json:"livekitUrl"`
	RoomName   string    `json:"roomName"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Identity   string    `json:"identity"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
}

type Room struct {
	Name            string `json:"name"`
	SID             string `json:"sid"`
	NumParticipants uint32 `json:"numParticipants"`
	CreationTime    int64  `json:"creationTime"`
	EmptyTimeout    uint32 `json:"emptyTimeout"`
	MaxParticipants uint32 `json:"maxParticipants"`
}

type Member struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	SID      string `json:"sid"`
	JoinedAt int64  `json:"joinedAt"`
}

type Service struct {
	cfg    config.LiveKit
	rooms  RoomLister
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewService builds the service. When rooms is nil a room service client
// is created from cfg.
func NewService(cfg config.LiveKit, rooms RoomLister, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if !cfg.Configured() {
		logger.Warn("livekit credentials not configured")
	}
	if rooms == nil {
		rooms = lksdk.NewRoomServiceClient(cfg.ServerURL(), cfg.APIKey, cfg.APISecret)
	}
	return &Service{cfg: cfg, rooms: rooms, logger: logger, now: time.Now}
}

// IssueToken signs a room-join token. Observers may only subscribe; hosts
// also get room admin.
func (s *Service) IssueToken(req TokenRequest) (*TokenResult, error) {
	if s.cfg.APIKey == "" || s.cfg.APISecret == "" {
		return nil, apperror.Internal("livekit is not configured", nil)
	}
	canPublish := req.Role != RoleObserver
	grant := &lkauth.VideoGrant{
		RoomJoin:  true,
		Room:      req.RoomName,
		RoomAdmin: req.Role == RoleHost,
	}
	grant.SetCanPublish(canPublish)
	grant.SetCanPublishData(canPublish)
	grant.SetCanSubscribe(true)

	at := lkauth.NewAccessToken(s.cfg.APIKey, s.cfg.APISecret).
		SetVideoGrant(grant).
		SetIdentity(req.Identity).
		SetName(req.Name).
		SetValidFor(s.cfg.TokenTTL)
	token, err := at.ToJWT()
	if err != nil {
		return nil, apperror.Internal("failed to issue room token", err)
	}

	s.logger.Infow("room token issued", "room", req.RoomName, "identity", req.Identity, "role", req.Role)
	return &TokenResult{
		LiveKitURL: s.cfg.URL,
		RoomName:   req.RoomName,
		Token:      token,
		ExpiresAt:  s.now().Add(s.cfg.TokenTTL).UTC(),
		Identity:   req.Identity,
		Name:       req.Name,
		Role:       req.Role,
	}, nil
}

// ListRooms returns the active rooms. Server errors are logged and yield
// an empty list.
func (s *Service) ListRooms(ctx context.Context) []Room {
	out := []Room{}
	resp, err := s.rooms.ListRooms(ctx, &lkproto.ListRoomsRequest{})
	if err != nil {
		s.logger.Warnw("failed to list rooms", "err", err)
		return out
	}
	for _, r := range resp.GetRooms() {
		out = append(out, Room{
			Name:            r.GetName(),
			SID:             r.GetSid(),
			NumParticipants: r.GetNumParticipants(),
			CreationTime:    r.GetCreationTime(),
			EmptyTimeout:    r.GetEmptyTimeout(),
			MaxParticipants: r.GetMaxParticipants(),
		})
	}
	return out
}

// ListMembers returns the participants of a room, or an empty list when
// the server cannot be reached.
func (s *Service) ListMembers(ctx context.Context, room string) []Member {
	out := []Member{}
	resp, err := s.rooms.ListParticipants(ctx, &lkproto.ListParticipantsRequest{Room: room})
	if err != nil {
		s.logger.Warnw("failed to list room members", "room", room, "err", err)
		return out
	}
	for _, p := range resp.GetParticipants() {
		out = append(out, Member{
			Identity: p.GetIdentity(),
			Name:     p.GetName(),
			SID:      p.GetSid(),
			JoinedAt: p.GetJoinedAt(),
		})
	}
	return out
}
