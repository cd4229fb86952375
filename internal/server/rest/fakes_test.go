package rest

import (
	"context"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
	"github.com/dmitrijs2005/roleplay/internal/server/services"
)

const (
	aliceToken = "alice-token"
	aliceID    = "7c4c9a6e-1f0a-4b8e-9d53-0d7f7c5e1a11"
)

var alice = &models.User{ID: aliceID, Username: "alice", Email: "alice@example.com", PasswordHash: "$2a$secret"}

type fakeUsers struct {
	register func(services.RegisterInput) (*models.User, error)
	update   func(actorID, userID string, in services.UpdateInput) (*models.User, error)
	get      func(userID string) (*models.User, error)
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return f.register(in)
}

func (f *fakeUsers) Update(_ context.Context, actorID, userID string, in services.UpdateInput) (*models.User, error) {
	return f.update(actorID, userID, in)
}

func (f *fakeUsers) Get(_ context.Context, userID string) (*models.User, error) {
	return f.get(userID)
}

// fakeSessions knows a single token, aliceToken.
type fakeSessions struct {
	revoked []string
	create  func(email, password string) (*models.User, string, error)
}

func (f *fakeSessions) Create(_ context.Context, email, password string) (*models.User, string, error) {
	return f.create(email, password)
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (*models.User, error) {
	for _, r := range f.revoked {
		if r == token {
			return nil, common.ErrorUnauthorized
		}
	}
	if token != aliceToken {
		return nil, common.ErrorUnauthorized
	}
	return alice, nil
}

func (f *fakeSessions) Revoke(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

type fakePasswords struct {
	requestReset  func(services.ForgotPasswordInput) error
	resetPassword func(services.ResetPasswordInput) error
}

func (f *fakePasswords) RequestReset(_ context.Context, in services.ForgotPasswordInput) error {
	return f.requestReset(in)
}

func (f *fakePasswords) ResetPassword(_ context.Context, in services.ResetPasswordInput) error {
	return f.resetPassword(in)
}

type fakeGroups struct {
	create func(services.CreateGroupInput) (*models.Group, error)
	get    func(groupID string) (*models.Group, error)
}

func (f *fakeGroups) Create(_ context.Context, in services.CreateGroupInput) (*models.Group, error) {
	return f.create(in)
}

func (f *fakeGroups) Get(_ context.Context, groupID string) (*models.Group, error) {
	return f.get(groupID)
}

type fakeGroupRequests struct {
	submit func(userID, groupID string) (*models.GroupRequest, error)
	list   func(groupID, status string) ([]models.GroupRequest, error)
}

func (f *fakeGroupRequests) Submit(_ context.Context, userID, groupID string) (*models.GroupRequest, error) {
	return f.submit(userID, groupID)
}

func (f *fakeGroupRequests) List(_ context.Context, groupID, status string) ([]models.GroupRequest, error) {
	return f.list(groupID, status)
}

type fakeAvatars struct {
	presign func(actorID, userID, contentType string) (*services.AvatarUpload, error)
}

func (f *fakeAvatars) PresignUpload(_ context.Context, actorID, userID, contentType string) (*services.AvatarUpload, error) {
	return f.presign(actorID, userID, contentType)
}
