package handler

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dmarcu/contacts-api/internal/config"
	"github.com/dmarcu/contacts-api/internal/model"
	"github.com/dmarcu/contacts-api/internal/queue"
	"github.com/dmarcu/contacts-api/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		Env:         "test",
		JWTSecret:   "test-secret",
		TokenTTLMin: 60,
		BcryptCost:  4,
		BaseURL:     "http://localhost:3000",
	}
}

// newJSONContext builds an echo context carrying a JSON body, the way the
// real server receives it.
func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// ----- fakes -----

type fakeUserStore struct {
	users     map[uint64]*model.User
	nextID    uint64
	createErr error
	setErr    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]*model.User{}}
}

func (s *fakeUserStore) add(u model.User) *model.User {
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = &u
	return &u
}

func (s *fakeUserStore) Create(ctx context.Context, u *model.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) SetSessionToken(ctx context.Context, id uint64, token sql.NullString) error {
	if s.setErr != nil {
		return s.setErr
	}
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Token = token
	return nil
}

func (s *fakeUserStore) ConfirmByToken(ctx context.Context, token string) error {
	for _, u := range s.users {
		if u.VerificationToken.Valid && u.VerificationToken.String == token {
			u.Verified = true
			u.VerificationToken = sql.NullString{}
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (s *fakeUserStore) UpdateSubscription(ctx context.Context, id uint64, subscription string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.Subscription = subscription
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) UpdateAvatar(ctx context.Context, id uint64, url string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.AvatarURL = url
	return nil
}

type fakePublisher struct {
	events []queue.EmailRequestedEvent
	err    error
}

func (p *fakePublisher) PublishEmail(ctx context.Context, event queue.EmailRequestedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type fakeAvatarStore struct {
	filename    string
	contentType string
	data        []byte
	err         error
}

func (s *fakeAvatarStore) Save(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.filename = filename
	s.contentType = contentType
	s.data = data
	return "/avatars/" + filename, nil
}

type fakeContactStore struct {
	contacts []*model.Contact
	nextID   uint64

	lastSkip     int
	lastLimit    int
	lastFavorite *bool
}

func (s *fakeContactStore) find(id, ownerID uint64) *model.Contact {
	for _, c := range s.contacts {
		if c.ID == id && c.OwnerID == ownerID {
			return c
		}
	}
	return nil
}

func (s *fakeContactStore) List(ctx context.Context, ownerID uint64, favorite *bool, skip, limit int) ([]model.Contact, error) {
	s.lastSkip, s.lastLimit, s.lastFavorite = skip, limit, favorite
	var out []model.Contact
	for _, c := range s.contacts {
		if c.OwnerID != ownerID {
			continue
		}
		if favorite != nil && c.Favorite != *favorite {
			continue
		}
		out = append(out, *c)
	}
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeContactStore) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error) {
	c := s.find(id, ownerID)
	if c == nil {
		return nil, repository.ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeContactStore) Create(ctx context.Context, c *model.Contact) error {
	s.nextID++
	c.ID = s.nextID
	cp := *c
	s.contacts = append(s.contacts, &cp)
	return nil
}

func (s *fakeContactStore) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, name, email, phone string) (*model.Contact, error) {
	c := s.find(id, ownerID)
	if c == nil {
		return nil, repository.ErrContactNotFound
	}
	c.Name, c.Email, c.Phone = name, email, phone
	cp := *c
	return &cp, nil
}

func (s *fakeContactStore) UpdateFavoriteByIDAndOwner(ctx context.Context, id, ownerID uint64, favorite bool) (*model.Contact, error) {
	c := s.find(id, ownerID)
	if c == nil {
		return nil, repository.ErrContactNotFound
	}
	c.Favorite = favorite
	cp := *c
	return &cp, nil
}

func (s *fakeContactStore) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error) {
	for i, c := range s.contacts {
		if c.ID == id && c.OwnerID == ownerID {
			cp := *c
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			return &cp, nil
		}
	}
	return nil, repository.ErrContactNotFound
}
