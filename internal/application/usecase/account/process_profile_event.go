package account

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/logger"
)

// ProcessProfileEventUseCase finishes account removal after a profile.deleted event.
type ProcessProfileEventUseCase struct {
	profileRepo profile.Repository
	userRepo    user.Repository
	logger      logger.Logger
}

func NewProcessProfileEventUseCase(pr profile.Repository, ur user.Repository, log logger.Logger) *ProcessProfileEventUseCase {
	return &ProcessProfileEventUseCase{profileRepo: pr, userRepo: ur, logger: log}
}

func (uc *ProcessProfileEventUseCase) Execute(ctx context.Context, payload event.ProfileEventPayload) error {
	log := uc.logger.With(
		zap.String("event_type", string(payload.EventType)),
		zap.String("owner_id", payload.OwnerID.String()))

	if payload.EventType != event.ProfileEventTypeDeleted {
		log.Debug("Ignoring profile event")
		return nil
	}

	// A profile written after the delete means the event is stale.
	_, err := uc.profileRepo.FindByOwner(ctx, payload.OwnerID)
	switch {
	case err == nil:
		log.Warn("Profile exists again, skip account removal")
		return nil
	case !errors.Is(err, profile.ErrProfileNotFound):
		return fmt.Errorf("check profile failed: %w", err)
	}

	if err := uc.userRepo.DeleteAccount(ctx, payload.OwnerID); err != nil {
		return fmt.Errorf("delete account failed: %w", err)
	}
	log.Info("Account removed after profile deletion")
	return nil
}
