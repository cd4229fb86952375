package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type passwordFixture struct {
	svc    *PasswordService
	store  *memStore
	sender *fakeSender
	mock   sqlmock.Sqlmock
	clock  time.Time
}

func newPasswordFixture(t *testing.T) *passwordFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	f := &passwordFixture{store: newMemStore(), sender: &fakeSender{}, mock: mock, clock: t0}
	f.svc = NewPasswordService(db, &fakeRepoManager{f.store}, testHasher(), f.sender, logging.Nop{}, 2*time.Hour)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

// issue requests a reset for email at the current clock and returns the token.
func (f *passwordFixture) issue(t *testing.T, email string) string {
	t.Helper()
	require.NoError(t, f.svc.RequestReset(context.Background(), ForgotPasswordInput{
		Email: email, ResetURL: "https://roleplay.example/reset",
	}))
	require.Len(t, f.store.resets, 1)
	for token := range f.store.resets {
		return token
	}
	return ""
}

func TestRequestReset_SendsLink(t *testing.T) {
	f := newPasswordFixture(t)
	alice := f.store.addUser(t, "alice", "alice@example.com", "teste")

	err := f.svc.RequestReset(context.Background(), ForgotPasswordInput{
		Email: "alice@example.com", ResetURL: "https://roleplay.example/reset?lang=pt",
	})
	require.NoError(t, err)

	require.Len(t, f.store.resets, 1)
	var token string
	for k, v := range f.store.resets {
		token = k
		assert.Equal(t, alice.ID, v.UserID)
		assert.True(t, v.CreatedAt.Equal(t0))
	}

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "alice@example.com", msg.ToAddress)
	assert.Contains(t, msg.Text, "alice")

	link := "https://roleplay.example/reset?lang=pt&token=" + token
	assert.Contains(t, msg.Text, link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, token, u.Query().Get("token"))
	assert.Equal(t, "pt", u.Query().Get("lang"))
}

func TestRequestReset_UnknownEmailIsSilent(t *testing.T) {
	f := newPasswordFixture(t)

	err := f.svc.RequestReset(context.Background(), ForgotPasswordInput{
		Email: "ghost@example.com", ResetURL: "https://roleplay.example/reset",
	})
	assert.NoError(t, err)
	assert.Empty(t, f.store.resets)
	assert.Empty(t, f.sender.sent)
}

func TestRequestReset_MailFailureIsSwallowed(t *testing.T) {
	f := newPasswordFixture(t)
	f.store.addUser(t, "alice", "alice@example.com", "teste")
	f.sender.err = errors.New("smtp down")

	err := f.svc.RequestReset(context.Background(), ForgotPasswordInput{
		Email: "alice@example.com", ResetURL: "https://roleplay.example/reset",
	})
	assert.NoError(t, err)
	assert.Len(t, f.store.resets, 1)
}

func TestRequestReset_Validation(t *testing.T) {
	f := newPasswordFixture(t)

	for _, in := range []ForgotPasswordInput{
		{},
		{Email: "bad", ResetURL: "https://roleplay.example/reset"},
		{Email: "alice@example.com", ResetURL: "not a url"},
	} {
		assert.ErrorIs(t, f.svc.RequestReset(context.Background(), in), common.ErrorValidation)
	}
}

func TestRequestReset_DefaultResetURL(t *testing.T) {
	f := newPasswordFixture(t)
	f.store.addUser(t, "alice", "alice@example.com", "teste")

	err := f.svc.RequestReset(context.Background(), ForgotPasswordInput{Email: "alice@example.com"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	f.svc.SetDefaultResetURL("https://roleplay.example/default")
	require.NoError(t, f.svc.RequestReset(context.Background(), ForgotPasswordInput{Email: "alice@example.com"}))

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0].Text, "https://roleplay.example/default?token=")
}

func TestRequestReset_UnlimitedOutstanding(t *testing.T) {
	f := newPasswordFixture(t)
	f.store.addUser(t, "alice", "alice@example.com", "teste")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.RequestReset(context.Background(), ForgotPasswordInput{
			Email: "alice@example.com", ResetURL: "https://roleplay.example/reset",
		}))
	}
	assert.Len(t, f.store.resets, 3)
}

func TestResetPassword_WithinWindow(t *testing.T) {
	f := newPasswordFixture(t)
	alice := f.store.addUser(t, "alice", "alice@example.com", "teste")
	token := f.issue(t, "alice@example.com")

	f.clock = t0.Add(119 * time.Minute)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	err := f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: token, Password: "123456"})
	require.NoError(t, err)

	assert.True(t, testHasher().Verify(f.store.users[alice.ID].PasswordHash, "123456"))
	assert.Empty(t, f.store.resets, "token is consumed")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestResetPassword_Expired(t *testing.T) {
	f := newPasswordFixture(t)
	alice := f.store.addUser(t, "alice", "alice@example.com", "teste")
	token := f.issue(t, "alice@example.com")

	f.clock = t0.Add(121 * time.Minute)

	err := f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: token, Password: "123456"})
	require.ErrorIs(t, err, common.ErrTokenExpired)
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	assert.Equal(t, alice.PasswordHash, f.store.users[alice.ID].PasswordHash)
	assert.Empty(t, f.store.resets, "expired token is removed")
}

func TestResetPassword_SingleUse(t *testing.T) {
	f := newPasswordFixture(t)
	f.store.addUser(t, "alice", "alice@example.com", "teste")
	token := f.issue(t, "alice@example.com")

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: token, Password: "123456"}))

	err := f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: token, Password: "654321"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestResetPassword_ConcurrentConsumerWins(t *testing.T) {
	f := newPasswordFixture(t)
	f.store.addUser(t, "alice", "alice@example.com", "teste")
	token := f.issue(t, "alice@example.com")

	// another request removes the row between Find and the transactional delete
	f.store.onResetDelete = func(tok string) {
		f.store.mu.Lock()
		delete(f.store.resets, tok)
		f.store.mu.Unlock()
	}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	err := f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: token, Password: "123456"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestResetPassword_Errors(t *testing.T) {
	f := newPasswordFixture(t)

	err := f.svc.ResetPassword(context.Background(), ResetPasswordInput{})
	assert.ErrorIs(t, err, common.ErrorValidation)

	err = f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: "t", Password: "abc"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	err = f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: "unknown", Password: "123456"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	f.store.errs["resettokens.Find"] = errors.New("db down")
	err = f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: "unknown", Password: "123456"})
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestResetLink(t *testing.T) {
	got, err := resetLink("https://roleplay.example/reset", "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://roleplay.example/reset?token=abc", got)

	got, err = resetLink("https://roleplay.example/reset?token=old", "new")
	require.NoError(t, err)
	assert.Equal(t, "https://roleplay.example/reset?token=new", got)
}
