package authz_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-dealership/internal/auth"
	"github.com/diewo77/go-dealership/internal/authz"
	"github.com/diewo77/go-dealership/internal/models"
)

type check func(*authz.Gate, *http.Request) (models.UserProfile, error)

var checks = map[string]check{
	"RequireAuthenticated":   (*authz.Gate).RequireAuthenticated,
	"RequireAdministrator":   (*authz.Gate).RequireAdministrator,
	"RequireDeletePrivilege": (*authz.Gate).RequireDeletePrivilege,
}

func newRequest() *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/admin/brands", nil)
}

func TestGate_NoIdentityNeverLoadsProfile(t *testing.T) {
	for name, run := range checks {
		t.Run(name, func(t *testing.T) {
			sessions := anonymous()
			profiles := &MockProfiles{}
			g := authz.NewGate(sessions, profiles)

			_, err := run(g, newRequest())

			assert.ErrorIs(t, err, authz.ErrUnauthenticated)
			kind, ok := authz.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, kind.Status())
			profiles.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
		})
	}
}

func TestGate_ProfileMissing(t *testing.T) {
	for name, run := range checks {
		t.Run(name, func(t *testing.T) {
			g := authz.NewGate(signedIn("u1"), noProfile())
			_, err := run(g, newRequest())
			assert.ErrorIs(t, err, authz.ErrProfileMissing)
			assert.Equal(t, http.StatusNotFound, err.(*authz.Failure).Status())
		})
	}
}

// Active staff may act but is not an administrator.
func TestGate_ActiveStaff(t *testing.T) {
	staff := profile("u1", models.RoleStaff, true)
	g := authz.NewGate(signedIn("u1"), withProfile(staff))

	got, err := g.RequireAuthenticated(newRequest())
	require.NoError(t, err)
	assert.Equal(t, staff, got)

	_, err = g.RequireAdministrator(newRequest())
	assert.ErrorIs(t, err, authz.ErrForbiddenNotAdmin)
	assert.Equal(t, http.StatusForbidden, err.(*authz.Failure).Status())

	_, err = g.RequireDeletePrivilege(newRequest())
	assert.ErrorIs(t, err, authz.ErrForbiddenNotAdmin)
}

// Deactivation dominates role.
func TestGate_DeactivatedAdministrator(t *testing.T) {
	admin := profile("u2", models.RoleAdministrator, false)
	for name, run := range checks {
		t.Run(name, func(t *testing.T) {
			g := authz.NewGate(signedIn("u2"), withProfile(admin))
			_, err := run(g, newRequest())
			assert.ErrorIs(t, err, authz.ErrDeactivated)
			assert.NotErrorIs(t, err, authz.ErrForbiddenNotAdmin)
		})
	}
}

func TestGate_ActiveAdministrator(t *testing.T) {
	admin := profile("u3", models.RoleAdministrator, true)
	for name, run := range checks {
		t.Run(name, func(t *testing.T) {
			g := authz.NewGate(signedIn("u3"), withProfile(admin))
			got, err := run(g, newRequest())
			require.NoError(t, err)
			assert.Equal(t, "u3", got.ID)
		})
	}
}

// Exhaustive precedence table: exists -> active -> role.
func TestGate_Precedence(t *testing.T) {
	type state struct {
		identity bool
		profile  bool
		active   bool
		role     models.Role
	}
	expect := func(s state, needAdmin bool) error {
		switch {
		case !s.identity:
			return authz.ErrUnauthenticated
		case !s.profile:
			return authz.ErrProfileMissing
		case !s.active:
			return authz.ErrDeactivated
		case needAdmin && s.role != models.RoleAdministrator:
			return authz.ErrForbiddenNotAdmin
		}
		return nil
	}

	for _, hasID := range []bool{false, true} {
		for _, hasProfile := range []bool{false, true} {
			for _, active := range []bool{false, true} {
				for _, role := range []models.Role{models.RoleStaff, models.RoleAdministrator} {
					s := state{hasID, hasProfile, active, role}
					t.Run(fmt.Sprintf("%+v", s), func(t *testing.T) {
						sessions := anonymous()
						if s.identity {
							sessions = signedIn("u")
						}
						profiles := noProfile()
						if s.profile {
							profiles = withProfile(profile("u", s.role, s.active))
						}
						g := authz.NewGate(sessions, profiles)

						_, err := g.RequireAuthenticated(newRequest())
						assertFailure(t, expect(s, false), err)
						_, err = g.RequireAdministrator(newRequest())
						assertFailure(t, expect(s, true), err)
						_, err = g.RequireDeletePrivilege(newRequest())
						assertFailure(t, expect(s, true), err)
					})
				}
			}
		}
	}
}

func assertFailure(t *testing.T, want, got error) {
	t.Helper()
	if want == nil {
		assert.NoError(t, got)
		return
	}
	var f *authz.Failure
	require.True(t, errors.As(got, &f), "expected *authz.Failure, got %v", got)
	assert.ErrorIs(t, got, want)
}

func TestGate_Idempotent(t *testing.T) {
	g := authz.NewGate(signedIn("u1"), withProfile(profile("u1", models.RoleStaff, true)))
	for name, run := range checks {
		t.Run(name, func(t *testing.T) {
			p1, err1 := run(g, newRequest())
			p2, err2 := run(g, newRequest())
			assert.Equal(t, p1, p2)
			assert.Equal(t, err1, err2)
		})
	}
}

func TestGate_LoadsProfileOfResolvedIdentity(t *testing.T) {
	sessions := signedIn("abc")
	profiles := withProfile(profile("abc", models.RoleStaff, true))
	g := authz.NewGate(sessions, profiles)

	_, err := g.RequireAuthenticated(newRequest())
	require.NoError(t, err)

	profiles.AssertCalled(t, "Load", mock.Anything, "abc")
	profiles.AssertNumberOfCalls(t, "Load", 1)
	sessions.AssertNumberOfCalls(t, "Identity", 1)
}

func TestGate_Authorize(t *testing.T) {
	staff := profile("s", models.RoleStaff, true)
	tests := []struct {
		resource string
		action   authz.Action
		want     error
	}{
		{"brands", authz.ActionList, nil},
		{"brands", authz.ActionCreate, nil},
		{"brands", authz.ActionUpdate, nil},
		{"brands", authz.ActionDelete, authz.ErrForbiddenNotAdmin},
		{"users", authz.ActionList, authz.ErrForbiddenNotAdmin},
		{"users", authz.ActionUpdate, authz.ErrForbiddenNotAdmin},
	}
	g := authz.NewGate(signedIn("s"), withProfile(staff), "users")
	for _, tt := range tests {
		t.Run(tt.resource+":"+string(tt.action), func(t *testing.T) {
			_, err := g.Authorize(newRequest(), tt.resource, tt.action)
			assertFailure(t, tt.want, err)
		})
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := authz.KindOf(fmt.Errorf("wrapped: %w", authz.ErrDeactivated))
	assert.True(t, ok)
	assert.Equal(t, authz.KindDeactivated, kind)

	_, ok = authz.KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindStatusAndCode(t *testing.T) {
	tests := []struct {
		kind   authz.Kind
		status int
		code   string
	}{
		{authz.KindUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{authz.KindProfileMissing, http.StatusNotFound, "profile_missing"},
		{authz.KindDeactivated, http.StatusForbidden, "deactivated"},
		{authz.KindForbiddenNotAdmin, http.StatusForbidden, "forbidden_not_admin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.kind.Status(), tt.kind)
		assert.Equal(t, tt.code, tt.kind.Code(), tt.kind)
	}
}

var _ authz.SessionProvider = (*auth.Provider)(nil)
