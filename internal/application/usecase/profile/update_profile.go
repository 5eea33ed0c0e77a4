package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type CreateOrUpdateProfileInput struct {
	OwnerID uuid.UUID
	Fields  profile.FieldSet
}

// CreateOrUpdateProfile inserts the owner's profile on first call and merges the
// submitted fields over the stored one afterwards.
func (uc *ProfileUseCase) CreateOrUpdateProfile(ctx context.Context, input CreateOrUpdateProfileInput) (*profile.Profile, error) {
	ctx, span := tracer.Start(ctx, "CreateOrUpdateProfile", trace.WithAttributes(attribute.String("owner_id", input.OwnerID.String())))
	defer span.End()

	if err := input.Fields.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	unlock, err := uc.lockOwner(ctx, input.OwnerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		current, err := uc.profileRepo.FindByOwner(ctx, input.OwnerID)
		if err != nil && !errors.Is(err, profile.ErrProfileNotFound) {
			err = storageFault("failed to load profile", err)
			span.RecordError(err)
			return nil, err
		}
		if err != nil {
			current = nil
		}

		next := profile.ApplyFieldUpdate(current, input.OwnerID, input.Fields, uc.now())

		eventType := event.ProfileEventTypeUpdated
		if current == nil {
			eventType = event.ProfileEventTypeCreated
			err = uc.profileRepo.Insert(ctx, next)
		} else {
			err = uc.profileRepo.Replace(ctx, next)
		}

		if errors.Is(err, profile.ErrVersionConflict) {
			span.AddEvent("version conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
			continue
		}
		if err != nil {
			err = storageFault("failed to save profile", err)
			span.RecordError(err)
			return nil, err
		}

		uc.publish(eventType, input.OwnerID)
		return next, nil
	}

	err = apperror.NewConflict("profile", "owner", input.OwnerID.String())
	span.RecordError(err)
	return nil, err
}

// DeleteProfile removes the owner's profile. Deleting twice is not an error.
// Removal of the account and its posts follows asynchronously via the profile.deleted event.
func (uc *ProfileUseCase) DeleteProfile(ctx context.Context, ownerID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "DeleteProfile", trace.WithAttributes(attribute.String("owner_id", ownerID.String())))
	defer span.End()

	unlock, err := uc.lockOwner(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer unlock()

	if err := uc.profileRepo.DeleteByOwner(ctx, ownerID); err != nil {
		err = storageFault("failed to delete profile", err)
		span.RecordError(err)
		return err
	}

	uc.publish(event.ProfileEventTypeDeleted, ownerID)
	return nil
}
