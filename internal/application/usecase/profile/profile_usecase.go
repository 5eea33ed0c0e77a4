package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

// maxWriteAttempts bounds reload-and-reapply after a lost conditional write.
const maxWriteAttempts = 3

var tracer = otel.Tracer("profile_usecase")

type ProfileUseCase struct {
	profileRepo   profile.Repository
	userRepo      user.Repository
	repoLookup    service.RepositoryLookup
	locker        service.Locker
	publisher     service.ProfileEventPublisher
	lookupTimeout time.Duration
	logger        logger.Logger
	now           func() time.Time
}

func NewProfileUseCase(
	profileRepo profile.Repository,
	userRepo user.Repository,
	repoLookup service.RepositoryLookup,
	locker service.Locker,
	publisher service.ProfileEventPublisher,
	lookupTimeout time.Duration,
	log logger.Logger,
) *ProfileUseCase {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &ProfileUseCase{
		profileRepo:   profileRepo,
		userRepo:      userRepo,
		repoLookup:    repoLookup,
		locker:        locker,
		publisher:     publisher,
		lookupTimeout: lookupTimeout,
		logger:        log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ProfileView is a profile joined with its owner's display info.
type ProfileView struct {
	Profile *profile.Profile
	Owner   user.DisplayInfo
}

func (uc *ProfileUseCase) GetOwnProfile(ctx context.Context, ownerID uuid.UUID) (*ProfileView, error) {
	ctx, span := tracer.Start(ctx, "GetOwnProfile", trace.WithAttributes(attribute.String("owner_id", ownerID.String())))
	defer span.End()

	view, err := uc.loadView(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return view, nil
}

// GetProfileByUserID is the public lookup. An id that does not parse is reported as not found.
func (uc *ProfileUseCase) GetProfileByUserID(ctx context.Context, rawUserID string) (*ProfileView, error) {
	ctx, span := tracer.Start(ctx, "GetProfileByUserID")
	defer span.End()

	ownerID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, apperror.NewNotFound("profile", rawUserID)
	}

	view, err := uc.loadView(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return view, nil
}

func (uc *ProfileUseCase) GetAllProfiles(ctx context.Context) ([]ProfileView, error) {
	ctx, span := tracer.Start(ctx, "GetAllProfiles")
	defer span.End()

	profiles, err := uc.profileRepo.FindAll(ctx)
	if err != nil {
		err = storageFault("failed to list profiles", err)
		span.RecordError(err)
		return nil, err
	}

	ids := make([]uuid.UUID, len(profiles))
	for i, p := range profiles {
		ids[i] = p.OwnerID
	}
	infos, err := uc.userRepo.FindDisplayInfos(ctx, ids)
	if err != nil {
		err = storageFault("failed to load profile owners", err)
		span.RecordError(err)
		return nil, err
	}

	views := make([]ProfileView, len(profiles))
	for i, p := range profiles {
		info, ok := infos[p.OwnerID]
		if !ok {
			info = user.DisplayInfo{ID: p.OwnerID}
		}
		views[i] = ProfileView{Profile: p, Owner: info}
	}
	span.SetAttributes(attribute.Int("profile_count", len(views)))
	return views, nil
}

func (uc *ProfileUseCase) loadView(ctx context.Context, ownerID uuid.UUID) (*ProfileView, error) {
	p, err := uc.profileRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, apperror.NewNotFound("profile", ownerID.String())
		}
		return nil, storageFault("failed to load profile", err)
	}

	info, err := uc.userRepo.FindDisplayInfo(ctx, ownerID)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		uc.logger.Warn("Profile owner has no account", zap.String("owner_id", ownerID.String()))
		info = &user.DisplayInfo{ID: ownerID}
	case err != nil:
		return nil, storageFault("failed to load profile owner", err)
	}

	return &ProfileView{Profile: p, Owner: *info}, nil
}

// lockOwner serializes writers of one owner's profile.
func (uc *ProfileUseCase) lockOwner(ctx context.Context, ownerID uuid.UUID) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}
	unlock, err := uc.locker.Lock(ctx, "profile:"+ownerID.String())
	if err != nil {
		return nil, apperror.NewInternal("failed to acquire profile lock", err)
	}
	return unlock, nil
}

func (uc *ProfileUseCase) publish(eventType event.ProfileEventType, ownerID uuid.UUID) {
	payload := event.ProfileEventPayload{
		EventType:  eventType,
		OwnerID:    ownerID,
		OccurredAt: uc.now(),
	}
	go func() {
		if err := uc.publisher.PublishProfileEvent(context.Background(), payload); err != nil {
			uc.logger.Error("Failed to publish profile event", err,
				zap.String("event_type", string(eventType)),
				zap.String("owner_id", ownerID.String()))
		}
	}()
}

// storageFault keeps AppErrors raised by adapters and wraps anything else as internal.
func storageFault(details string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.NewInternal(details, err)
}

func toValidationError(err error) error {
	var v *profile.ValidationError
	if !errors.As(err, &v) {
		return apperror.NewInvalidInput("validation failed", err)
	}
	fields := make([]apperror.FieldError, len(v.Violations))
	for i, viol := range v.Violations {
		fields[i] = apperror.FieldError{Param: viol.Field, Msg: viol.Message}
	}
	return apperror.NewValidation(fields...)
}
