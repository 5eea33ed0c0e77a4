package profile

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

// FetchRemoteRepositories lists username's public repositories on GitHub, bounded by the
// configured lookup timeout.
func (uc *ProfileUseCase) FetchRemoteRepositories(ctx context.Context, username string) ([]service.RepositorySummary, error) {
	ctx, span := tracer.Start(ctx, "FetchRemoteRepositories", trace.WithAttributes(attribute.String("username", username)))
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.NewValidation(apperror.FieldError{Param: "username", Msg: "Username is required"})
	}

	if uc.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.lookupTimeout)
		defer cancel()
	}

	repos, err := uc.repoLookup.ListRepositories(ctx, username)
	if err != nil {
		if !errors.Is(err, apperror.ErrRemoteNotFound) && !errors.Is(err, apperror.ErrRemoteUnavailable) {
			err = apperror.NewRemoteUnavailable("repository lookup failed", err)
		}
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("repo_count", len(repos)))
	return repos, nil
}
