package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/dbx"
	"github.com/dmitrijs2005/roleplay/internal/server/auth"
	"github.com/dmitrijs2005/roleplay/internal/server/mailer"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/grouprequests"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/groups"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testHasher() *auth.Hasher { return auth.NewHasher(bcrypt.MinCost) }

// memStore is an in-memory stand-in for the database behind every
// repository. It enforces the same unique constraints as the schema and
// reports violations the way dbx.MapError does.
type memStore struct {
	mu sync.Mutex

	users    map[string]models.User
	sessions map[string]string
	resets   map[string]models.PasswordResetToken
	groups   map[string]models.Group
	players  map[string]map[string]bool
	requests []models.GroupRequest

	// errs forces an operation, e.g. "users.GetByEmail", to fail.
	errs map[string]error
	// onResetDelete runs before a reset token is deleted.
	onResetDelete func(token string)
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]models.User{},
		sessions: map[string]string{},
		resets:   map[string]models.PasswordResetToken{},
		groups:   map[string]models.Group{},
		players:  map[string]map[string]bool{},
		errs:     map[string]error{},
	}
}

func (s *memStore) fail(op string) error { return s.errs[op] }

func conflict(constraint string) error {
	return fmt.Errorf("%w: %s", common.ErrorConflict, constraint)
}

// addUser inserts a user with a real bcrypt hash of password.
func (s *memStore) addUser(t *testing.T, username, email, password string) models.User {
	t.Helper()
	hash, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{Username: username, Email: email, PasswordHash: hash}
	if _, err := (&fakeUsers{s}).Create(context.Background(), u); err != nil {
		t.Fatalf("addUser: %v", err)
	}
	return *u
}

func (s *memStore) addGroup(t *testing.T, masterID string) models.Group {
	t.Helper()
	g := &models.Group{Name: "group", Description: "d", Schedule: "s", Location: "l", Chronic: "c", MasterID: masterID}
	repo := &fakeGroups{s}
	if _, err := repo.Create(context.Background(), g); err != nil {
		t.Fatalf("addGroup: %v", err)
	}
	if err := repo.AddPlayer(context.Background(), g.ID, masterID); err != nil {
		t.Fatalf("addGroup: %v", err)
	}
	return *g
}

type fakeUsers struct{ s *memStore }

func (r *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Create"); err != nil {
		return nil, err
	}
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return nil, conflict("users_email_key")
		}
		if other.Username == u.Username {
			return nil, conflict("users_username_key")
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return u, nil
}

func (r *fakeUsers) find(op string, match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(op); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find("users.GetByID", func(u models.User) bool { return u.ID == id })
}

func (r *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find("users.GetByEmail", func(u models.User) bool { return u.Email == email })
}

func (r *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find("users.GetByUsername", func(u models.User) bool { return u.Username == username })
}

func (r *fakeUsers) Update(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Update"); err != nil {
		return nil, err
	}
	if _, ok := r.s.users[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && other.Email == u.Email {
			return nil, conflict("users_email_key")
		}
	}
	u.UpdatedAt = time.Now()
	r.s.users[u.ID] = *u
	return u, nil
}

func (r *fakeUsers) UpdatePassword(ctx context.Context, id string, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.UpdatePassword"); err != nil {
		return err
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	r.s.users[id] = u
	return nil
}

type fakeSessions struct{ s *memStore }

func (r *fakeSessions) Create(ctx context.Context, userID, token string) (*models.SessionToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.s.sessions[token]; ok {
		return nil, conflict("session_tokens_token_key")
	}
	r.s.sessions[token] = userID
	return &models.SessionToken{ID: uuid.NewString(), UserID: userID, Token: token, CreatedAt: time.Now()}, nil
}

func (r *fakeSessions) FindUser(ctx context.Context, token string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.FindUser"); err != nil {
		return nil, err
	}
	id, ok := r.s.sessions[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *fakeSessions) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("sessions.Delete"); err != nil {
		return err
	}
	delete(r.s.sessions, token)
	return nil
}

type fakeResetTokens struct{ s *memStore }

func (r *fakeResetTokens) Create(ctx context.Context, userID, token string, at time.Time) (*models.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("resettokens.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.s.resets[token]; ok {
		return nil, conflict("password_reset_tokens_token_key")
	}
	t := models.PasswordResetToken{ID: uuid.NewString(), UserID: userID, Token: token, CreatedAt: at}
	r.s.resets[token] = t
	return &t, nil
}

func (r *fakeResetTokens) Find(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("resettokens.Find"); err != nil {
		return nil, err
	}
	t, ok := r.s.resets[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *fakeResetTokens) Delete(ctx context.Context, token string) (bool, error) {
	if r.s.onResetDelete != nil {
		r.s.onResetDelete(token)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("resettokens.Delete"); err != nil {
		return false, err
	}
	_, ok := r.s.resets[token]
	delete(r.s.resets, token)
	return ok, nil
}

type fakeGroups struct{ s *memStore }

func (r *fakeGroups) Create(ctx context.Context, g *models.Group) (*models.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("groups.Create"); err != nil {
		return nil, err
	}
	g.ID = uuid.NewString()
	g.CreatedAt = time.Now()
	r.s.groups[g.ID] = *g
	return g, nil
}

func (r *fakeGroups) GetByID(ctx context.Context, id string) (*models.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("groups.GetByID"); err != nil {
		return nil, err
	}
	g, ok := r.s.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &g, nil
}

func (r *fakeGroups) AddPlayer(ctx context.Context, groupID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("groups.AddPlayer"); err != nil {
		return err
	}
	if r.s.players[groupID] == nil {
		r.s.players[groupID] = map[string]bool{}
	}
	if r.s.players[groupID][userID] {
		return conflict("group_players_pkey")
	}
	r.s.players[groupID][userID] = true
	return nil
}

func (r *fakeGroups) ListPlayers(ctx context.Context, groupID string) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("groups.ListPlayers"); err != nil {
		return nil, err
	}
	out := []models.User{}
	for id := range r.s.players[groupID] {
		u := r.s.users[id]
		u.PasswordHash = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeGroups) IsPlayer(ctx context.Context, groupID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("groups.IsPlayer"); err != nil {
		return false, err
	}
	return r.s.players[groupID][userID], nil
}

type fakeGroupRequests struct{ s *memStore }

func (r *fakeGroupRequests) Create(ctx context.Context, userID, groupID string) (*models.GroupRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("grouprequests.Create"); err != nil {
		return nil, err
	}
	for _, gr := range r.s.requests {
		if gr.UserID == userID && gr.GroupID == groupID {
			return nil, conflict("group_requests_user_id_group_id_key")
		}
	}
	gr := models.GroupRequest{
		ID: uuid.NewString(), UserID: userID, GroupID: groupID, Status: models.RequestPending, CreatedAt: time.Now(),
	}
	r.s.requests = append(r.s.requests, gr)
	return &gr, nil
}

func (r *fakeGroupRequests) Exists(ctx context.Context, userID, groupID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("grouprequests.Exists"); err != nil {
		return false, err
	}
	for _, gr := range r.s.requests {
		if gr.UserID == userID && gr.GroupID == groupID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeGroupRequests) ListByGroup(ctx context.Context, groupID string, status models.RequestStatus) ([]models.GroupRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("grouprequests.ListByGroup"); err != nil {
		return nil, err
	}
	out := []models.GroupRequest{}
	for _, gr := range r.s.requests {
		if gr.GroupID == groupID && (status == "" || gr.Status == status) {
			out = append(out, gr)
		}
	}
	return out, nil
}

// fakeRepoManager vends memStore-backed repositories regardless of the DBTX.
type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return &fakeUsers{m.s} }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return &fakeSessions{m.s} }
func (m *fakeRepoManager) ResetTokens(dbx.DBTX) resettokens.Repository  { return &fakeResetTokens{m.s} }
func (m *fakeRepoManager) Groups(dbx.DBTX) groups.Repository            { return &fakeGroups{m.s} }
func (m *fakeRepoManager) GroupRequests(dbx.DBTX) grouprequests.Repository {
	return &fakeGroupRequests{m.s}
}

// fakeSender records sent mail.
type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}
