// Package users implements the credential store: persistence of user
// identities and their password hashes.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	SetPasswordHash(ctx context.Context, id string, hash string, at time.Time) error
}
