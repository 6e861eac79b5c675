package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/internal/institution"
	instentity "github.com/sodam-care/service-care-go/internal/institution/entity"
	instrepo "github.com/sodam-care/service-care-go/internal/institution/repo"
	"github.com/sodam-care/service-care-go/internal/user/entity"
	userrepo "github.com/sodam-care/service-care-go/internal/user/repo"
	"github.com/sodam-care/service-care-go/pkg/apperror"
	"github.com/sodam-care/service-care-go/pkg/utilities"
)

const (
	MinPasswordLength = 8
	// bcrypt rejects longer input
	MaxPasswordBytes = 72

	msgBadCredentials  = "invalid email or password"
	msgInvalidRefresh  = "invalid or expired refresh token"
	msgInvalidToken    = "invalid or expired token"
	msgEmailTaken      = "email already exists"
	msgLoggedOut       = "logged out"
	authTypeEmail      = "email"
	dummyPasswordInput = "timing-equalizer"
)

// Service orchestrates signup, login, refresh and logout.
type Service struct {
	stores Stores
	hasher PasswordHasher
	tokens *TokenIssuer
	ids    *institution.IDGenerator
	logger *zap.SugaredLogger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(stores Stores, hasher PasswordHasher, tokens *TokenIssuer, ids *institution.IDGenerator, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: DefaultCost}
	}
	if ids == nil {
		ids = institution.NewIDGenerator(nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{stores: stores, hasher: hasher, tokens: tokens, ids: ids, logger: logger, now: time.Now}
}

type SignupInput struct {
	Email    string
	Password string
	Name     string
	// InstitutionName and InstitutionAddress create a new institution.
	InstitutionName    string
	InstitutionAddress string
	// InstitutionID joins an existing institution.
	InstitutionID string
}

// SignupResult is the created user; Institution is set only when one was created.
type SignupResult struct {
	entity.PublicUser
	Institution *instentity.Institution `json:"institution,omitempty"`
}

type LoginResult struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         entity.Summary `json:"user"`
}

type RefreshResult struct {
	AccessToken string `json:"accessToken"`
}

type LogoutResult struct {
	Message string `json:"message"`
}

// Identity is the authenticated caller resolved from an access token.
type Identity struct {
	UserID        string
	Email         string
	Name          string
	InstitutionID *string
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateSignup(in *SignupInput) error {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.InstitutionName = strings.TrimSpace(in.InstitutionName)
	in.InstitutionAddress = strings.TrimSpace(in.InstitutionAddress)
	in.InstitutionID = strings.ToUpper(strings.TrimSpace(in.InstitutionID))

	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return apperror.Invalid("email must be a valid address")
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return apperror.Invalid("password must be at least 8 characters")
	}
	if len(in.Password) > MaxPasswordBytes {
		return apperror.Invalid("password must be at most 72 bytes")
	}
	if in.Name == "" {
		return apperror.Invalid("name is required")
	}
	creating := in.InstitutionName != "" || in.InstitutionAddress != ""
	if creating && (in.InstitutionName == "" || in.InstitutionAddress == "") {
		return apperror.Invalid("institutionName and institutionAddress must be given together")
	}
	if creating && in.InstitutionID != "" {
		return apperror.Invalid("institutionId cannot be combined with a new institution")
	}
	return nil
}

// Signup creates a user, optionally creating or joining an institution.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	if err := validateSignup(&in); err != nil {
		return nil, err
	}

	users := s.stores.Users()
	if _, err := users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Conflict(msgEmailTaken)
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return nil, apperror.Internal("signup failed", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal("signup failed", err)
	}
	u := &entity.User{
		ID:           utilities.NewUUID(),
		AuthType:     authTypeEmail,
		Email:        in.Email,
		PasswordHash: &hash,
		Name:         in.Name,
	}

	var created *instentity.Institution
	switch {
	case in.InstitutionName != "":
		err = s.stores.WithinTx(ctx, func(ctx context.Context, users UserStore, insts InstitutionStore) error {
			id, err := s.ids.Generate(ctx, insts.Exists)
			if err != nil {
				return err
			}
			inst := &instentity.Institution{ID: id, Name: in.InstitutionName, Address: in.InstitutionAddress}
			if err := insts.Create(ctx, inst); err != nil {
				return err
			}
			u.InstitutionID = &inst.ID
			if err := users.Create(ctx, u); err != nil {
				return err
			}
			created = inst
			return nil
		})
	case in.InstitutionID != "":
		if _, err := s.stores.Institutions().GetByID(ctx, in.InstitutionID); err != nil {
			if errors.Is(err, instrepo.ErrNotFound) {
				return nil, apperror.NotFound("institution not found")
			}
			return nil, apperror.Internal("signup failed", err)
		}
		u.InstitutionID = &in.InstitutionID
		err = users.Create(ctx, u)
	default:
		err = users.Create(ctx, u)
	}
	if err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, apperror.Conflict(msgEmailTaken)
		}
		return nil, apperror.Internal("signup failed", err)
	}

	s.logger.Infow("user signed up", "user_id", u.ID, "institution_created", created != nil)
	return &SignupResult{PublicUser: u.Public(), Institution: created}, nil
}

// Login verifies credentials and issues an access/refresh pair. The stored
// refresh hash is overwritten, so any earlier refresh token stops working.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.stores.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, userrepo.ErrNotFound) {
			return nil, apperror.Internal("login failed", err)
		}
		// spend the same bcrypt work as a real mismatch
		s.hasher.Verify(s.dummy(), password)
		s.logger.Debugw("login failed", "reason", "unknown email")
		return nil, apperror.Unauthorized(msgBadCredentials)
	}
	if u.PasswordHash == nil {
		// oauth-only account; same bcrypt cost as an unknown email
		s.hasher.Verify(s.dummy(), password)
		s.logger.Debugw("login failed", "user_id", u.ID, "reason", "no password set")
		return nil, apperror.Unauthorized(msgBadCredentials)
	}
	if !s.hasher.Verify(*u.PasswordHash, password) {
		s.logger.Debugw("login failed", "user_id", u.ID, "reason", "password mismatch")
		return nil, apperror.Unauthorized(msgBadCredentials)
	}

	access, err := s.tokens.SignAccess(u.ID, u.Email)
	if err != nil {
		return nil, apperror.Internal("login failed", err)
	}
	refresh, err := s.tokens.SignRefresh(u.ID, u.Email)
	if err != nil {
		return nil, apperror.Internal("login failed", err)
	}
	refreshHash, err := s.hasher.Hash(refreshDigest(refresh))
	if err != nil {
		return nil, apperror.Internal("login failed", err)
	}
	now := s.now()
	if err := s.stores.Users().Update(ctx, u.ID, entity.Patch{LastLoginAt: &now, RefreshTokenHash: &refreshHash}); err != nil {
		return nil, apperror.Internal("login failed", err)
	}

	s.logger.Infow("user logged in", "user_id", u.ID)
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: u.Summary()}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized(msgInvalidRefresh)
	}
	u, err := s.stores.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, apperror.Unauthorized(msgInvalidRefresh)
		}
		return nil, apperror.Internal("refresh failed", err)
	}
	if u.RefreshTokenHash == nil || !s.hasher.Verify(*u.RefreshTokenHash, refreshDigest(refreshToken)) {
		s.logger.Debugw("refresh rejected", "user_id", u.ID)
		return nil, apperror.Unauthorized(msgInvalidRefresh)
	}

	access, err := s.tokens.SignAccess(u.ID, u.Email)
	if err != nil {
		return nil, apperror.Internal("refresh failed", err)
	}
	return &RefreshResult{AccessToken: access}, nil
}

// Logout clears the stored refresh hash. Repeating it is not an error.
func (s *Service) Logout(ctx context.Context, userID string) (*LogoutResult, error) {
	if err := s.stores.Users().Update(ctx, userID, entity.Patch{ClearRefreshToken: true}); err != nil {
		return nil, apperror.Internal("logout failed", err)
	}
	s.logger.Infow("user logged out", "user_id", userID)
	return &LogoutResult{Message: msgLoggedOut}, nil
}

// ResolveAuthenticatedUser turns a raw access token into an Identity.
func (s *Service) ResolveAuthenticatedUser(ctx context.Context, rawToken string) (Identity, error) {
	claims, err := s.tokens.VerifyAccess(rawToken)
	if err != nil {
		return Identity{}, apperror.Unauthorized(msgInvalidToken)
	}
	u, err := s.stores.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return Identity{}, apperror.Unauthorized(msgInvalidToken)
		}
		return Identity{}, apperror.Internal("authentication failed", err)
	}
	return Identity{UserID: u.ID, Email: u.Email, Name: u.Name, InstitutionID: u.InstitutionID}, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(dummyPasswordInput)
	})
	return s.dummyHash
}
