package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/italolelis/debrid_console/internal/debrid/realdebrid"
	"github.com/italolelis/debrid_console/internal/logctx"
	"github.com/italolelis/debrid_console/internal/storage"
	"github.com/italolelis/debrid_console/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// clientName labels debrid API metrics.
const clientName = "realdebrid"

// Console owns the API credential and the debrid client built from it. The
// client is replaced wholesale whenever the credential changes, so requests
// already in flight finish with the client they started with.
type Console struct {
	base      *realdebrid.Client
	store     storage.CredentialRepository
	telemetry *telemetry.Telemetry

	mu     sync.RWMutex
	client debrid.Client
}

// New creates a Console. base carries the API root and transport; its
// credential is ignored in favour of the stored one.
func New(base *realdebrid.Client, store storage.CredentialRepository, tel *telemetry.Telemetry) *Console {
	return &Console{
		base:      base,
		store:     store,
		telemetry: tel,
	}
}

// Load reads the stored credential once at startup. When nothing is stored
// and seed is non-empty, seed is persisted and used.
func (c *Console) Load(ctx context.Context, seed string) error {
	logger := logctx.LoggerFromContext(ctx)

	token, err := c.store.GetCredential(ctx, storage.APIKeyCredential)
	switch {
	case errors.Is(err, storage.ErrCredentialNotFound):
		seed = strings.TrimSpace(seed)
		if seed == "" {
			logger.InfoContext(ctx, "no API key configured; waiting for one to be set")

			return nil
		}

		logger.InfoContext(ctx, "seeding API key from environment")

		return c.SetCredential(ctx, seed)
	case err != nil:
		c.telemetry.RecordCredentialOperation(ctx, "load", "error")

		return fmt.Errorf("failed to load credential: %w", err)
	}

	c.swap(token)
	c.telemetry.RecordCredentialOperation(ctx, "load", "success")

	logger.InfoContext(ctx, "API key loaded")

	return nil
}

// SetCredential stores token and switches to a client using it. The token is
// not validated remotely; a bad token surfaces on the next call.
func (c *Console) SetCredential(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: API key must not be empty", debrid.ErrInvalidInput)
	}

	if err := c.store.SaveCredential(ctx, storage.APIKeyCredential, token); err != nil {
		c.telemetry.RecordCredentialOperation(ctx, "set", "error")

		return fmt.Errorf("failed to save credential: %w", err)
	}

	c.swap(token)
	c.telemetry.RecordCredentialOperation(ctx, "set", "success")

	return nil
}

// ClearCredential forgets the stored credential. Later calls fail with
// debrid.ErrMissingCredential until a new one is set.
func (c *Console) ClearCredential(ctx context.Context) error {
	if err := c.store.DeleteCredential(ctx, storage.APIKeyCredential); err != nil {
		c.telemetry.RecordCredentialOperation(ctx, "clear", "error")

		return fmt.Errorf("failed to delete credential: %w", err)
	}

	c.mu.Lock()
	c.client = nil
	c.mu.Unlock()

	c.telemetry.RecordCredentialOperation(ctx, "clear", "success")

	return nil
}

// HasCredential reports whether a credential is configured.
func (c *Console) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client != nil
}

// Client returns the client for the current credential.
func (c *Console) Client() (debrid.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.client == nil {
		return nil, debrid.ErrMissingCredential
	}

	return c.client, nil
}

func (c *Console) swap(token string) {
	client := debrid.NewInstrumentedClient(c.base.WithToken(token), c.telemetry, clientName)

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
}

// Dashboard is the account overview: profile and traffic quota.
type Dashboard struct {
	User        *debrid.User   `json:"user"`
	PremiumDays int            `json:"premium_days"`
	Traffic     debrid.Traffic `json:"traffic"`
}

// Dashboard fetches the profile and the traffic quota concurrently. Each
// result is stored in its own field, so completion order does not matter.
func (c *Console) Dashboard(ctx context.Context) (*Dashboard, error) {
	client, err := c.Client()
	if err != nil {
		return nil, err
	}

	var dashboard Dashboard

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := client.User(gctx)
		if err != nil {
			return err
		}

		dashboard.User = user

		return nil
	})

	g.Go(func() error {
		traffic, err := client.Traffic(gctx)
		if err != nil {
			return err
		}

		dashboard.Traffic = traffic

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dashboard.PremiumDays = dashboard.User.PremiumDays()

	return &dashboard, nil
}
