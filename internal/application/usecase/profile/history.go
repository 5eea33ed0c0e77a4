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

type AddExperienceInput struct {
	OwnerID    uuid.UUID
	Experience profile.Experience
}

type AddEducationInput struct {
	OwnerID   uuid.UUID
	Education profile.Education
}

func (uc *ProfileUseCase) AddExperience(ctx context.Context, input AddExperienceInput) (*profile.Profile, error) {
	return uc.mutateHistory(ctx, "AddExperience", input.OwnerID, func(p *profile.Profile) (bool, error) {
		if _, err := p.AppendExperience(input.Experience); err != nil {
			return false, toValidationError(err)
		}
		return true, nil
	})
}

// RemoveExperience drops one entry. An unknown entry id leaves the profile as it is.
func (uc *ProfileUseCase) RemoveExperience(ctx context.Context, ownerID, experienceID uuid.UUID) (*profile.Profile, error) {
	return uc.mutateHistory(ctx, "RemoveExperience", ownerID, func(p *profile.Profile) (bool, error) {
		return p.RemoveExperience(experienceID), nil
	})
}

func (uc *ProfileUseCase) AddEducation(ctx context.Context, input AddEducationInput) (*profile.Profile, error) {
	return uc.mutateHistory(ctx, "AddEducation", input.OwnerID, func(p *profile.Profile) (bool, error) {
		if _, err := p.AppendEducation(input.Education); err != nil {
			return false, toValidationError(err)
		}
		return true, nil
	})
}

func (uc *ProfileUseCase) RemoveEducation(ctx context.Context, ownerID, educationID uuid.UUID) (*profile.Profile, error) {
	return uc.mutateHistory(ctx, "RemoveEducation", ownerID, func(p *profile.Profile) (bool, error) {
		return p.RemoveEducation(educationID), nil
	})
}

// mutateHistory runs load-mutate-persist on an existing profile. apply reports whether it
// changed anything; unchanged profiles are returned without a write.
func (uc *ProfileUseCase) mutateHistory(ctx context.Context, op string, ownerID uuid.UUID, apply func(*profile.Profile) (bool, error)) (*profile.Profile, error) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("owner_id", ownerID.String())))
	defer span.End()

	unlock, err := uc.lockOwner(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		current, err := uc.profileRepo.FindByOwner(ctx, ownerID)
		if err != nil {
			if errors.Is(err, profile.ErrProfileNotFound) {
				return nil, apperror.NewNotFound("profile", ownerID.String())
			}
			err = storageFault("failed to load profile", err)
			span.RecordError(err)
			return nil, err
		}

		next := current.Clone()
		changed, err := apply(next)
		if err != nil {
			return nil, err
		}
		if !changed {
			return current, nil
		}
		next.Touch(uc.now())

		err = uc.profileRepo.Replace(ctx, next)
		if errors.Is(err, profile.ErrVersionConflict) {
			span.AddEvent("version conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
			continue
		}
		if err != nil {
			err = storageFault("failed to save profile", err)
			span.RecordError(err)
			return nil, err
		}

		uc.publish(event.ProfileEventTypeUpdated, ownerID)
		return next, nil
	}

	err = apperror.NewConflict("profile", "owner", ownerID.String())
	span.RecordError(err)
	return nil, err
}
