package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/roleplay/internal/dbx"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/grouprequests"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/groups"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx, so
// services can run the same code inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Groups(db dbx.DBTX) groups.Repository
	GroupRequests(db dbx.DBTX) grouprequests.Repository
}
