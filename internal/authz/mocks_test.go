package authz_test

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/diewo77/go-dealership/internal/auth"
	"github.com/diewo77/go-dealership/internal/models"
)

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Identity(r *http.Request) (auth.Identity, bool) {
	args := m.Called(r)
	return args.Get(0).(auth.Identity), args.Bool(1)
}

func (m *MockSessions) InvalidateSession(w http.ResponseWriter, r *http.Request) {
	m.Called(w, r)
}

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) Load(ctx context.Context, identityID string) (models.UserProfile, bool) {
	args := m.Called(ctx, identityID)
	return args.Get(0).(models.UserProfile), args.Bool(1)
}

// signedIn configures sessions to resolve every request to id.
func signedIn(id string) *MockSessions {
	s := &MockSessions{}
	s.On("Identity", mock.Anything).Return(auth.Identity{ID: id, Email: id + "@example.com"}, true)
	return s
}

func anonymous() *MockSessions {
	s := &MockSessions{}
	s.On("Identity", mock.Anything).Return(auth.Identity{}, false)
	return s
}

func withProfile(p models.UserProfile) *MockProfiles {
	m := &MockProfiles{}
	m.On("Load", mock.Anything, p.ID).Return(p, true)
	return m
}

func noProfile() *MockProfiles {
	m := &MockProfiles{}
	m.On("Load", mock.Anything, mock.Anything).Return(models.UserProfile{}, false)
	return m
}

func profile(id string, role models.Role, active bool) models.UserProfile {
	return models.UserProfile{ID: id, Email: id + "@example.com", Role: role, IsActive: active}
}
