// Package services contains server-side business logic. This file
// implements AuthService, which drives the account lifecycle: sign-up,
// activation, sign-in, token refresh, password change and reset, and
// federated sign-in.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/dmitrijs2005/soundhub/internal/dbx"
	"github.com/dmitrijs2005/soundhub/internal/logging"
	"github.com/dmitrijs2005/soundhub/internal/server/auth"
	"github.com/dmitrijs2005/soundhub/internal/server/federation"
	"github.com/dmitrijs2005/soundhub/internal/server/mailer"
	"github.com/dmitrijs2005/soundhub/internal/server/models"
	"github.com/dmitrijs2005/soundhub/internal/server/repositories/repomanager"
)

// Mailer delivers flow links. It reports delivery success and never fails
// the calling flow.
type Mailer interface {
	SendActivation(ctx context.Context, email string, link mailer.Link) bool
	SendPasswordReset(ctx context.Context, email string, link mailer.Link) bool
}

// LinkBase is the scheme and host the emailed links point back to.
type LinkBase struct {
	Protocol string
	Domain   string
}

// Session is the result of a successful sign-in.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
}

type SignUpResult struct {
	User      *models.User
	SendEmail bool
}

type ResetRequestResult struct {
	Email     string
	SendEmail bool
}

// Deps groups the collaborators of AuthService.
type Deps struct {
	Codec      *auth.TokenCodec
	FlowTokens *auth.FlowTokenPolicy
	Passwords  auth.PasswordHasher
	Mailer     Mailer
	Providers  *federation.Registry
	Logger     logging.Logger
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.TokenCodec
	flowTokens  *auth.FlowTokenPolicy
	passwords   auth.PasswordHasher
	mailer      Mailer
	providers   *federation.Registry
	logger      logging.Logger
	now         func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, d Deps) *AuthService {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	providers := d.Providers
	if providers == nil {
		providers = federation.NewRegistry()
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		codec:       d.Codec,
		flowTokens:  d.FlowTokens,
		passwords:   d.Passwords,
		mailer:      d.Mailer,
		providers:   providers,
		logger:      logger.With("module", "auth_service"),
		now:         time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// SignUp creates an inactive user and mails an activation link. A failed
// delivery is reported in the result, not as an error.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput, base LinkBase) (*SignUpResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	link := s.flowLink(base, auth.PurposeActivation, user)
	sent := s.mailer.SendActivation(ctx, user.Email, link)

	s.logger.Info(ctx, "user signed up", "user_id", user.ID, "send_email", sent)
	return &SignUpResult{User: user, SendEmail: sent}, nil
}

// Activate marks the user encoded in uidb64 active if token is a valid
// activation token for them. Every failure yields false.
func (s *AuthService) Activate(ctx context.Context, uidb64, token string) bool {
	user := s.userFromUID(ctx, uidb64)
	if user == nil {
		return false
	}

	now := s.now()
	if !s.flowTokens.Check(auth.PurposeActivation, subjectOf(user), token, now) {
		return false
	}

	if err := s.repomanager.Users(s.db).SetActive(ctx, user.ID, true, now); err != nil {
		s.logger.Error(ctx, "activate user", "user_id", user.ID, "error", err)
		return false
	}

	s.logger.Info(ctx, "user activated", "user_id", user.ID)
	return true
}

// SignIn checks email and password and issues a token pair. It does not
// require the account to be active; an inactive account is refused at
// request authentication instead.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.AuthenticationFailed(auth.MsgNoSuchEmail, nil)
		}
		return nil, err
	}

	if !s.passwords.Verify(in.Password, user.PasswordHash) {
		return nil, common.AuthenticationFailed(auth.MsgWrongPassword, nil)
	}

	return s.issueSession(user)
}

// Refresh trades a valid refresh token for a new access token. The refresh
// token itself is neither rotated nor revoked.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	now := s.now()
	userID, err := s.codec.Verify(auth.RefreshToken, in.RefreshToken, now)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", common.AuthenticationFailed(auth.MsgRefreshExpired, err)
		}
		return "", common.AuthenticationFailed(auth.MsgRefreshInvalid, err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.AuthenticationFailed(auth.MsgUserNotFound, err)
		}
		return "", err
	}
	if !user.IsActive {
		return "", common.AuthenticationFailed(auth.MsgUserInactive, common.ErrUserInactive)
	}

	access, err := s.codec.Issue(auth.AccessToken, user.ID, now)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// ChangePassword replaces the password of an authenticated user.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, in ChangePasswordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	ve := &common.ValidationError{}
	if !s.passwords.Verify(in.OldPassword, user.PasswordHash) {
		ve.Add("old_password", msgOldPassword)
	}
	for _, msg := range auth.ValidatePassword(in.NewPassword, user.Email) {
		ve.Add("new_password", msg)
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	if in.NewPassword != in.NewPassword2 {
		return common.NewValidationError("password", msgPasswordsDiffer)
	}

	if err := s.setPassword(ctx, user.ID, in.NewPassword); err != nil {
		return err
	}

	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// RequestPasswordReset mails a reset link to the owner of in.Email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, in ResetRequestInput, base LinkBase) (*ResetRequestResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewValidationError(common.NonFieldErrors, auth.MsgNoSuchEmail)
		}
		return nil, err
	}

	link := s.flowLink(base, auth.PurposePasswordReset, user)
	sent := s.mailer.SendPasswordReset(ctx, user.Email, link)

	s.logger.Info(ctx, "password reset requested", "user_id", user.ID, "send_email", sent)
	return &ResetRequestResult{Email: user.Email, SendEmail: sent}, nil
}

// ConfirmPasswordReset sets a new password if token is a valid reset token
// for the user encoded in uidb64. An unknown user or bad token yields
// false with no error; a weak password yields a *common.ValidationError.
// The token is bound to the current password hash, so it works once.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, uidb64, token string, in ResetConfirmInput) (bool, error) {
	user := s.userFromUID(ctx, uidb64)
	if user == nil {
		return false, nil
	}
	if !s.flowTokens.Check(auth.PurposePasswordReset, subjectOf(user), token, s.now()) {
		return false, nil
	}

	if err := in.Validate(); err != nil {
		return false, err
	}
	if msgs := auth.ValidatePassword(in.NewPassword, user.Email); len(msgs) > 0 {
		ve := &common.ValidationError{}
		for _, m := range msgs {
			ve.Add("new_password", m)
		}
		return false, ve
	}

	if err := s.setPassword(ctx, user.ID, in.NewPassword); err != nil {
		return false, err
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return true, nil
}

// FederatedSignIn exchanges an authorization code with the named provider,
// finds or provisions the user owning the verified email and issues a
// token pair. A rejected code is an authentication failure; an unreachable
// provider is returned as an error wrapping common.ErrUpstream.
func (s *AuthService) FederatedSignIn(ctx context.Context, providerName, code string) (*Session, error) {
	provider, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	accessToken, err := provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, common.AuthenticationFailed(auth.MsgFederationToken+provider.DisplayName(), nil)
	}

	email, err := provider.FetchEmail(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.getOrProvision(ctx, email)
	if err != nil && errors.Is(err, common.ErrorAlreadyExists) {
		// a concurrent sign-in created the user first
		user, err = s.getOrProvision(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "federated sign-in", "provider", provider.Name(), "user_id", user.ID)
	return s.issueSession(user)
}

func (s *AuthService) getOrProvision(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		now := s.now()

		u, err := repo.GetByEmail(ctx, email)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			u, err = repo.Create(ctx, &models.User{
				Email:        email,
				PasswordHash: auth.MakeUnusablePassword(),
				IsActive:     true,
			})
			if err != nil {
				return err
			}
		case err != nil:
			return err
		case !u.IsActive:
			if err := repo.SetActive(ctx, u.ID, true, now); err != nil {
				return err
			}
			u.IsActive = true
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueSession(user *models.User) (*Session, error) {
	now := s.now()
	access, err := s.codec.Issue(auth.AccessToken, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(auth.RefreshToken, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &Session{UserID: user.ID, Email: user.Email, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repomanager.Users(s.db).SetPasswordHash(ctx, userID, hash, s.now()); err != nil {
		return fmt.Errorf("error saving password: %w", err)
	}
	return nil
}

func (s *AuthService) userFromUID(ctx context.Context, uidb64 string) *models.User {
	id, ok := DecodeUID(uidb64)
	if !ok {
		return nil
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "lookup user", "user_id", id, "error", err)
		}
		return nil
	}
	return user
}

func (s *AuthService) flowLink(base LinkBase, purpose auth.FlowPurpose, user *models.User) mailer.Link {
	return mailer.Link{
		Protocol: base.Protocol,
		Domain:   base.Domain,
		UID:      EncodeUID(user.ID),
		Token:    s.flowTokens.Make(purpose, subjectOf(user), s.now()),
	}
}

func subjectOf(u *models.User) auth.FlowSubject {
	return auth.FlowSubject{ID: u.ID, IsActive: u.IsActive, PasswordHash: u.PasswordHash}
}
