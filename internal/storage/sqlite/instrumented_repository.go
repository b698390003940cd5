package sqlite

import (
	"context"
	"database/sql"

	"github.com/italolelis/debrid_console/internal/storage"
	"github.com/italolelis/debrid_console/internal/telemetry"
)

// InstrumentedCredentialRepository wraps CredentialRepository with telemetry.
type InstrumentedCredentialRepository struct {
	repo      *CredentialRepository
	telemetry *telemetry.Telemetry
}

var _ storage.CredentialRepository = (*InstrumentedCredentialRepository)(nil)

// NewInstrumentedCredentialRepository creates a new instrumented credential repository.
func NewInstrumentedCredentialRepository(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedCredentialRepository {
	return &InstrumentedCredentialRepository{
		repo:      NewCredentialRepository(dbConn),
		telemetry: tel,
	}
}

// GetCredential retrieves a credential with telemetry. A missing credential
// is reported to the caller but not counted as a failed operation.
func (r *InstrumentedCredentialRepository) GetCredential(ctx context.Context, key string) (string, error) {
	var (
		result   string
		notFound bool
	)

	instrumentedErr := r.telemetry.InstrumentDBOperation(ctx, "get_credential", func(ctx context.Context) error {
		var err error

		result, err = r.repo.GetCredential(ctx, key)
		if err == storage.ErrCredentialNotFound {
			notFound = true

			return nil
		}

		return err
	})

	if instrumentedErr != nil {
		return "", instrumentedErr
	}

	if notFound {
		return "", storage.ErrCredentialNotFound
	}

	return result, nil
}

// SaveCredential stores a credential with telemetry.
func (r *InstrumentedCredentialRepository) SaveCredential(ctx context.Context, key, value string) error {
	return r.telemetry.InstrumentDBOperation(ctx, "save_credential", func(ctx context.Context) error {
		return r.repo.SaveCredential(ctx, key, value)
	})
}

// DeleteCredential removes a credential with telemetry.
func (r *InstrumentedCredentialRepository) DeleteCredential(ctx context.Context, key string) error {
	return r.telemetry.InstrumentDBOperation(ctx, "delete_credential", func(ctx context.Context) error {
		return r.repo.DeleteCredential(ctx, key)
	})
}
