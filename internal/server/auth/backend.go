package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/dmitrijs2005/soundhub/internal/server/models"
)

const (
	MsgNoCredentials   = "Invalid token header. Credentials didn't provided"
	MsgTokenHasSpaces  = "Invalid token header. Token string shouldn't contain spaces"
	MsgInvalidToken    = "Invalid authentication. Couldn't decode token"
	MsgAccessExpired   = "Access token has expired. Please login again"
	MsgUserNotFound    = "User not found"
	MsgUserInactive    = "User is inactive"
	MsgRefreshExpired  = "Expired refresh token, please login again"
	MsgRefreshInvalid  = "Invalid refresh token"
	MsgNoSuchEmail     = "User with such email doesn't exist"
	MsgWrongPassword   = "You passed a wrong password"
	MsgFederationToken = "Bad token "
)

// UserFinder resolves a token subject to a stored identity.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Backend authenticates requests carrying "Authorization: Token <jwt>".
type Backend struct {
	codec *TokenCodec
	users UserFinder
	now   func() time.Time
}

func NewBackend(codec *TokenCodec, users UserFinder) *Backend {
	return &Backend{codec: codec, users: users, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (b *Backend) WithClock(now func() time.Time) *Backend {
	b.now = now
	return b
}

// Authenticate resolves the Authorization header value to an active user.
// A missing header, or one using another scheme, is anonymous: it returns
// nil, nil so other schemes can be tried. Every rejection is an
// *common.AuthenticationFailedError.
func (b *Backend) Authenticate(ctx context.Context, header string) (*models.User, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 || !strings.EqualFold(fields[0], common.AuthorizationKeyword) {
		return nil, nil
	}
	if len(fields) == 1 {
		return nil, common.AuthenticationFailed(MsgNoCredentials, nil)
	}
	if len(fields) > 2 {
		return nil, common.AuthenticationFailed(MsgTokenHasSpaces, nil)
	}

	return b.authenticateToken(ctx, fields[1])
}

func (b *Backend) authenticateToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := b.codec.Verify(AccessToken, token, b.now())
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, common.AuthenticationFailed(MsgAccessExpired, err)
		}
		return nil, common.AuthenticationFailed(MsgInvalidToken, err)
	}

	user, err := b.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.AuthenticationFailed(MsgUserNotFound, err)
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, common.AuthenticationFailed(MsgUserInactive, common.ErrUserInactive)
	}

	return user, nil
}
