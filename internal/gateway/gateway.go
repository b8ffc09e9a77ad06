// Package gateway talks to the remote job store.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"jobboard-engine/internal/domain"
)

// Gateway is the remote job store contract. Every call is independent;
// callers must not rely on completion order.
type Gateway interface {
	ListJobs(ctx context.Context) ([]domain.Job, error)
	CreateJob(ctx context.Context, in domain.JobInput) (domain.Job, error)
	UpdateJobStatus(ctx context.Context, id string, status domain.Stage, position *int) error
	UpdateJobFields(ctx context.Context, id string, patch domain.JobPatch) error
	DeleteJob(ctx context.Context, id string) error
}

// TokenSource supplies the bearer credential. It is owned by the auth
// collaborator, which also handles renewal.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource for a fixed credential.
type StaticToken string

func (s StaticToken) Token() (string, error) { return string(s), nil }

// AuthError means the credential was missing, invalid or expired.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: unauthorized (status %d)", e.Status)
	}
	return fmt.Sprintf("gateway: unauthorized (status %d): %s", e.Status, e.Message)
}

// NetworkError covers transport failures and non-auth error responses.
type NetworkError struct {
	Op      string
	Status  int
	Problem *Problem
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Problem != nil:
		return fmt.Sprintf("gateway: %s: status %d: %s", e.Op, e.Status, e.Problem.Title)
	case e.Err != nil:
		return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("gateway: %s: status %d", e.Op, e.Status)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Problem is the error document the job store returns, in the shape of
// the HTTP problem draft.
type Problem struct {
	Title    string `json:"title"`
	ID       string `json:"id,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Type     string `json:"type,omitempty"`
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
