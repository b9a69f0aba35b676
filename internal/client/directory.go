package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/internal/models"
	"github.com/devbuild/doctorate-api/pkg/config"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

// Directory resolves a candidate id against the external user service.
type Directory interface {
	Lookup(ctx context.Context, id string) (*models.DirectoryUser, error)
}

// userEnvelope mirrors the user service's response wrapper.
type userEnvelope struct {
	Success bool                 `json:"success"`
	Data    models.DirectoryUser `json:"data"`
}

// HTTPDirectory calls the user service over HTTP. Transient failures are
// retried with exponential backoff behind a circuit breaker; callers decide
// what the degraded fallback looks like.
type HTTPDirectory struct {
	baseURL    string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries uint64
	logger     *zap.Logger
}

// NewHTTPDirectory constructs the client from configuration.
func NewHTTPDirectory(cfg config.DirectoryConfig, logger *zap.Logger) *HTTPDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "user-directory",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("directory breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &HTTPDirectory{
		baseURL:    cfg.BaseURL,
		client:     &http.Client{Timeout: timeout},
		breaker:    breaker,
		maxRetries: uint64(maxRetries),
		logger:     logger,
	}
}

// Lookup fetches a user record by id. A missing user is reported as
// NotFound without consuming retries; transport failures are retried and
// counted against the breaker.
func (d *HTTPDirectory) Lookup(ctx context.Context, id string) (*models.DirectoryUser, error) {
	result, err := d.breaker.Execute(func() (interface{}, error) {
		var user *models.DirectoryUser
		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.maxRetries), ctx)
		err := backoff.Retry(func() error {
			var retryErr error
			user, retryErr = d.fetch(ctx, id)
			return retryErr
		}, policy)
		return user, err
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, appErrors.Wrap(err, appErrors.ErrCollaboratorDown.Code, appErrors.ErrCollaboratorDown.Status, "user directory circuit open")
		}
		return nil, err
	}
	return result.(*models.DirectoryUser), nil
}

func (d *HTTPDirectory) fetch(ctx context.Context, id string) (*models.DirectoryUser, error) {
	url := fmt.Sprintf("%s/api/users/%s", d.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(appErrors.Clone(appErrors.ErrNotFound, "user not found in directory"))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("directory responded %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("directory responded %d", resp.StatusCode))
	}

	var envelope userEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}
	if !envelope.Success {
		return nil, backoff.Permanent(appErrors.Clone(appErrors.ErrNotFound, "user not found in directory"))
	}
	user := envelope.Data
	return &user, nil
}
