package service

import (
	"context"

	"github.com/khoahotran/devconnector/adapters/event"
)

type ProfileEventPublisher interface {
	PublishProfileEvent(ctx context.Context, payload event.ProfileEventPayload) error
}
