package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/dbx"
	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/dmitrijs2005/roleplay/internal/server/mailer"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// ForgotPasswordInput starts a password recovery.
type ForgotPasswordInput struct {
	Email    string `json:"email"`
	ResetURL string `json:"resetPasswordUrl"`
}

func (in ForgotPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.ResetURL, validation.Required, is.URL),
	)
}

// ResetPasswordInput completes a password recovery.
type ResetPasswordInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (in ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Token, validation.Required),
		validation.Field(&in.Password, validation.Required, validation.Length(minPasswordLength, maxPasswordLength)),
	)
}

// PasswordService issues and consumes single-use password reset tokens.
type PasswordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	mailer      mailer.Sender
	logger      logging.Logger
	validity    time.Duration
	now         func() time.Time

	defaultResetURL string
}

func NewPasswordService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher,
	sender mailer.Sender, logger logging.Logger, validity time.Duration) *PasswordService {
	return &PasswordService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		mailer:      sender,
		logger:      logger.With("module", "passwords"),
		validity:    validity,
		now:         time.Now,
	}
}

// SetDefaultResetURL sets the page used for reset links when a request does
// not name one.
func (s *PasswordService) SetDefaultResetURL(u string) {
	s.defaultResetURL = u
}

// RequestReset stores a reset token for the account behind in.Email and mails
// a link to it. An unknown email succeeds without doing anything, so callers
// cannot probe for accounts. Mail delivery failures are logged only.
func (s *PasswordService) RequestReset(ctx context.Context, in ForgotPasswordInput) error {
	if in.ResetURL == "" {
		in.ResetURL = s.defaultResetURL
	}
	if err := in.Validate(); err != nil {
		return validationError(err)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "password reset requested for unknown email")
			return nil
		}
		return passThrough(ctx, s.logger, "lookup user", err)
	}

	token, err := common.NewToken()
	if err != nil {
		return passThrough(ctx, s.logger, "generate token", err)
	}
	if _, err := s.repomanager.ResetTokens(s.db).Create(ctx, user.ID, token, s.now()); err != nil {
		return passThrough(ctx, s.logger, "store reset token", err)
	}

	link, err := resetLink(in.ResetURL, token)
	if err != nil {
		return validationError(err)
	}

	msg, err := mailer.NewPasswordResetMessage(user.Email, user.Username, link)
	if err != nil {
		s.logger.Error(ctx, "render reset mail", "err", err, "user_id", user.ID)
		return nil
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn(ctx, "reset mail not sent", "err", err, "user_id", user.ID)
	}

	s.logger.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword consumes in.Token and sets a new password.
//
// An unknown or already used token gives ErrorNotFound. A token older than
// the validity window gives ErrTokenExpired and is removed. Otherwise the
// password update and the token removal commit together; if another request
// consumed the token first the update is rolled back and ErrorNotFound is
// returned.
func (s *PasswordService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := in.Validate(); err != nil {
		return validationError(err)
	}

	tokens := s.repomanager.ResetTokens(s.db)

	t, err := tokens.Find(ctx, in.Token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: reset token", common.ErrorNotFound)
		}
		return passThrough(ctx, s.logger, "find reset token", err)
	}

	if t.Expired(s.now(), s.validity) {
		if _, err := tokens.Delete(ctx, in.Token); err != nil {
			s.logger.Warn(ctx, "delete expired reset token", "err", err)
		}
		return common.ErrTokenExpired
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return passThrough(ctx, s.logger, "hash password", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, t.UserID, hash); err != nil {
			return err
		}
		deleted, err := s.repomanager.ResetTokens(tx).Delete(ctx, in.Token)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: reset token", common.ErrorNotFound)
		}
		return nil
	})
	if err != nil {
		return passThrough(ctx, s.logger, "reset password", err)
	}

	s.logger.Info(ctx, "password reset", "user_id", t.UserID)
	return nil
}

// resetLink sets token as the "token" query parameter of base.
func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
