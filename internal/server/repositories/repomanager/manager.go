package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/strongholder/internal/dbx"
	"github.com/dmitrijs2005/strongholder/internal/server/repositories/credentials"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Credentials(db dbx.DBTX) credentials.Repository
}
