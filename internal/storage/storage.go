package storage

import (
	"context"
	"errors"
)

// APIKeyCredential is the key the debrid API token is stored under.
const APIKeyCredential = "rd_api_key"

// ErrCredentialNotFound is returned when no value is stored under a key.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialRepository persists single string values under fixed keys. Values
// are stored as given; there is no encryption or rotation.
type CredentialRepository interface {
	GetCredential(ctx context.Context, key string) (string, error)
	SaveCredential(ctx context.Context, key, value string) error
	DeleteCredential(ctx context.Context, key string) error
}
