package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const defaultPerPage = 5

type githubLookupAdapter struct {
	client  *github.Client
	perPage int
	log     logger.Logger
}

// NewGitHubLookupAdapter builds the repository lookup from the github.* settings.
// httpClient may be nil.
func NewGitHubLookupAdapter(cfg config.Config, httpClient *http.Client, log logger.Logger) (service.RepositoryLookup, error) {
	client := github.NewClient(httpClient)
	if cfg.GitHub.Token != "" {
		client = client.WithAuthToken(cfg.GitHub.Token)
	}

	if cfg.GitHub.BaseURL != "" {
		base := cfg.GitHub.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", cfg.GitHub.BaseURL, err)
		}
		client.BaseURL = u
	}

	perPage := cfg.GitHub.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	log.Info("GitHub lookup adapter initialized", zap.String("base_url", client.BaseURL.String()))
	return &githubLookupAdapter{client: client, perPage: perPage, log: log}, nil
}

func (a *githubLookupAdapter) ListRepositories(ctx context.Context, username string) ([]service.RepositorySummary, error) {
	opts := &github.RepositoryListByUserOptions{
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: a.perPage},
	}

	repos, _, err := a.client.Repositories.ListByUser(ctx, username, opts)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) {
			status := 0
			if errResp.Response != nil {
				status = errResp.Response.StatusCode
			}
			a.log.Warn("GitHub answered with non-success status",
				zap.String("username", username), zap.Int("status", status))
			if status >= http.StatusInternalServerError {
				return nil, apperror.NewRemoteUnavailable(fmt.Sprintf("github answered %d", status), err)
			}
			return nil, apperror.NewRemoteNotFound("Github profile", username)
		}
		a.log.Error("GitHub request failed", err, zap.String("username", username))
		return nil, apperror.NewRemoteUnavailable("github request failed", err)
	}

	out := make([]service.RepositorySummary, 0, len(repos))
	for _, r := range repos {
		out = append(out, service.RepositorySummary{
			ID:          r.GetID(),
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			Description: r.GetDescription(),
			HTMLURL:     r.GetHTMLURL(),
			Language:    r.GetLanguage(),
			Stars:       r.GetStargazersCount(),
			Watchers:    r.GetWatchersCount(),
			Forks:       r.GetForksCount(),
			CreatedAt:   r.GetCreatedAt().Time,
		})
	}
	return out, nil
}
