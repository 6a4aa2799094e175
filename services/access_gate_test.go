package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/bistro-backend/common/auth"
	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/models"
	"github.com/yashrajoria/bistro-backend/repository"
	"github.com/yashrajoria/bistro-backend/repository/memory"
)

const testSecret = "test-access-token-secret"

func seedUsers(t *testing.T) *memory.UserRepository {
	t.Helper()
	users := memory.NewUserRepository()
	ctx := context.Background()
	admin := &models.User{Name: "Chef", Email: "chef@bistro.test"}
	_, err := users.InsertIfAbsent(ctx, admin)
	require.NoError(t, err)
	require.NoError(t, users.SetRole(ctx, admin.ID, models.RoleAdmin))
	_, err = users.InsertIfAbsent(ctx, &models.User{Name: "Guest", Email: "guest@bistro.test"})
	require.NoError(t, err)
	return users
}

func TestAccessGate_Authorize(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret)
	gate := NewAccessGate(tokens, seedUsers(t))
	ctx := context.Background()

	adminToken, err := tokens.Issue(auth.IdentityClaims{Email: "chef@bistro.test"})
	require.NoError(t, err)
	guestToken, err := tokens.Issue(auth.IdentityClaims{Email: "guest@bistro.test"})
	require.NoError(t, err)
	strangerToken, err := tokens.Issue(auth.IdentityClaims{Email: "stranger@bistro.test"})
	require.NoError(t, err)

	t.Run("admin passes both stages", func(t *testing.T) {
		claims, err := gate.Authorize(ctx, adminToken, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, "chef@bistro.test", claims.Email)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		_, err := gate.Authorize(ctx, guestToken, models.RoleAdmin)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("unknown subject is forbidden, not not-found", func(t *testing.T) {
		_, err := gate.Authorize(ctx, strangerToken, models.RoleAdmin)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("differently cased subject is another user", func(t *testing.T) {
		shouted, err := tokens.Issue(auth.IdentityClaims{Email: "Chef@bistro.test"})
		require.NoError(t, err)
		_, err = gate.Authorize(ctx, shouted, models.RoleAdmin)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("authenticated only needs a valid token", func(t *testing.T) {
		claims, err := gate.Authorize(ctx, strangerToken, models.RoleNone)
		require.NoError(t, err)
		assert.Equal(t, "stranger@bistro.test", claims.Email)
	})

	t.Run("bad token is unauthenticated", func(t *testing.T) {
		for _, token := range []string{"", "garbage", adminToken + "x"} {
			_, err := gate.Authorize(ctx, token, models.RoleAdmin)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized, token)
		}
	})
}

func TestAccessGate_ExpiryBoundary(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret)
	gate := NewAccessGate(tokens, seedUsers(t))

	fresh, err := tokens.Issue(auth.IdentityClaims{Email: "chef@bistro.test"})
	require.NoError(t, err)
	_, err = gate.Authorize(context.Background(), fresh, models.RoleAdmin)
	assert.NoError(t, err)

	stale, err := tokens.WithClock(func() time.Time { return time.Now().Add(-auth.TokenTTL - time.Second) }).Issue(auth.IdentityClaims{Email: "chef@bistro.test"})
	require.NoError(t, err)
	_, err = gate.Authorize(context.Background(), stale, models.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAccessGate_RoleCheckNeedsAuthentication(t *testing.T) {
	users := new(MockUserRepository)
	gate := NewAccessGate(auth.NewTokenManager(testSecret), users)

	err := gate.RequireRole(context.Background(), nil, models.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperrors.ErrForbidden)

	_, err = gate.Authorize(context.Background(), "", models.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAccessGate_RoleIsReadFreshEachTime(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret)
	users := memory.NewUserRepository()
	gate := NewAccessGate(tokens, users)
	ctx := context.Background()

	user := &models.User{Email: "sous@bistro.test"}
	_, err := users.InsertIfAbsent(ctx, user)
	require.NoError(t, err)
	token, err := tokens.Issue(auth.IdentityClaims{Email: user.Email})
	require.NoError(t, err)

	_, err = gate.Authorize(ctx, token, models.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, users.SetRole(ctx, user.ID, models.RoleAdmin))
	_, err = gate.Authorize(ctx, token, models.RoleAdmin)
	assert.NoError(t, err)
}

func TestAccessGate_StoreFailureIsUnavailable(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret)
	users := new(MockUserRepository)
	gate := NewAccessGate(tokens, users)

	users.On("FindByEmail", mock.Anything, "chef@bistro.test").Return(nil, errors.New("connection reset")).Once()
	token, err := tokens.Issue(auth.IdentityClaims{Email: "chef@bistro.test"})
	require.NoError(t, err)

	_, err = gate.Authorize(context.Background(), token, models.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
	users.AssertExpectations(t)
}

func TestAccessGate_AdminStatus(t *testing.T) {
	gate := NewAccessGate(auth.NewTokenManager(testSecret), seedUsers(t))
	ctx := context.Background()
	chef := &auth.Claims{Email: "chef@bistro.test"}
	guest := &auth.Claims{Email: "guest@bistro.test"}

	isAdmin, err := gate.AdminStatus(ctx, chef, "chef@bistro.test")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = gate.AdminStatus(ctx, guest, "guest@bistro.test")
	require.NoError(t, err)
	assert.False(t, isAdmin)

	// asking about someone else never reveals their role
	isAdmin, err = gate.AdminStatus(ctx, guest, "chef@bistro.test")
	require.NoError(t, err)
	assert.False(t, isAdmin)

	assert.True(t, gate.IsSelf(chef, "CHEF@bistro.test"))
	assert.False(t, gate.IsSelf(nil, "chef@bistro.test"))
	assert.False(t, gate.IsSelf(chef, ""))
}

var _ repository.UserRepository = (*MockUserRepository)(nil)
