package service

import (
	"context"
	"time"
)

// RepositorySummary is the subset of a remote repository returned to callers.
type RepositorySummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Watchers    int       `json:"watchers_count"`
	Forks       int       `json:"forks_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// RepositoryLookup lists a user's public repositories on the source-control host.
// Implementations return apperror.ErrRemoteNotFound or apperror.ErrRemoteUnavailable.
type RepositoryLookup interface {
	ListRepositories(ctx context.Context, username string) ([]RepositorySummary, error)
}
