package credentials

import (
	"context"

	"github.com/dmitrijs2005/strongholder/internal/server/models"
)

type Repository interface {
	// Create inserts c and fills CreatedAt. A taken username or id yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, c *models.Credential) (*models.Credential, error)
	ExistsByUsername(ctx context.Context, userName string) (bool, error)
	// FindByUsername returns the single record for userName. No record is
	// common.ErrorNotFound; more than one is common.ErrStorageIntegrity.
	FindByUsername(ctx context.Context, userName string) (*models.Credential, error)
	GetByID(ctx context.Context, id string) (*models.Credential, error)
}
