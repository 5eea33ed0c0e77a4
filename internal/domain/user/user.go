package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// DisplayInfo is the public slice of an account shown next to a profile.
type DisplayInfo struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

type Repository interface {
	FindDisplayInfo(ctx context.Context, id uuid.UUID) (*DisplayInfo, error)
	// FindDisplayInfos skips ids without an account.
	FindDisplayInfos(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]DisplayInfo, error)
	// DeleteAccount removes the account and everything it owns. No-op when absent.
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}
