package auth

import (
	"context"
	"maps"
	"sync"
	"time"

	instentity "github.com/sodam-care/service-care-go/internal/institution/entity"
	instrepo "github.com/sodam-care/service-care-go/internal/institution/repo"
	"github.com/sodam-care/service-care-go/internal/user/entity"
	userrepo "github.com/sodam-care/service-care-go/internal/user/repo"
)

// memStores is an in-memory Stores. WithinTx snapshots both tables and
// restores them when fn fails.
type memStores struct {
	mu    sync.Mutex
	users map[string]entity.User
	insts map[string]instentity.Institution

	failUserCreate error
	failUpdate     error
}

func newMemStores() *memStores {
	return &memStores{users: map[string]entity.User{}, insts: map[string]instentity.Institution{}}
}

func (m *memStores) Users() UserStore               { return memUsers{m} }
func (m *memStores) Institutions() InstitutionStore { return memInsts{m} }

func (m *memStores) WithinTx(ctx context.Context, fn func(ctx context.Context, users UserStore, institutions InstitutionStore) error) error {
	m.mu.Lock()
	users, insts := maps.Clone(m.users), maps.Clone(m.insts)
	m.mu.Unlock()

	if err := fn(ctx, memUsers{m}, memInsts{m}); err != nil {
		m.mu.Lock()
		m.users, m.insts = users, insts
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStores) user(id string) (entity.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok
}

type memUsers struct{ m *memStores }

func (s memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, userrepo.ErrNotFound
}

func (s memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, userrepo.ErrNotFound
	}
	return &u, nil
}

func (s memUsers) Create(_ context.Context, u *entity.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.failUserCreate != nil {
		return s.m.failUserCreate
	}
	for _, existing := range s.m.users {
		if existing.Email == u.Email {
			return userrepo.ErrDuplicate
		}
	}
	u.CreatedAt = time.Now().UTC()
	s.m.users[u.ID] = *u
	return nil
}

func (s memUsers) Update(_ context.Context, id string, p entity.Patch) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.failUpdate != nil {
		return s.m.failUpdate
	}
	u, ok := s.m.users[id]
	if !ok {
		return nil
	}
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		u.LastLoginAt = &t
	}
	switch {
	case p.ClearRefreshToken:
		u.RefreshTokenHash = nil
	case p.RefreshTokenHash != nil:
		h := *p.RefreshTokenHash
		u.RefreshTokenHash = &h
	}
	s.m.users[id] = u
	return nil
}

type memInsts struct{ m *memStores }

func (s memInsts) GetByID(_ context.Context, id string) (*instentity.Institution, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	in, ok := s.m.insts[id]
	if !ok {
		return nil, instrepo.ErrNotFound
	}
	return &in, nil
}

func (s memInsts) Exists(_ context.Context, id string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	_, ok := s.m.insts[id]
	return ok, nil
}

func (s memInsts) Create(_ context.Context, in *instentity.Institution) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.insts[in.ID]; ok {
		return instrepo.ErrDuplicate
	}
	in.CreatedAt = time.Now().UTC()
	s.m.insts[in.ID] = *in
	return nil
}
