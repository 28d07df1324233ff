package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/errors"
	"github.com/skillsenselab/registry/logger"
)

// Directory owns the service records: listing is open, mutation requires an
// authorized identity.
type Directory struct {
	store  *Store
	hasher auth.Hasher
	log    *logger.Logger

	// passwordBytes is the entropy (in bytes) of generated service passwords.
	passwordBytes int
}

// Registration is the one-time result of registering a service. The
// plaintext password is never retrievable again.
type Registration struct {
	ID       string
	Password string
}

// NewDirectory creates a directory service over the given store.
func NewDirectory(store *Store, hasher auth.Hasher, log *logger.Logger) *Directory {
	return &Directory{
		store:         store,
		hasher:        hasher,
		log:           log.WithComponent("directory"),
		passwordBytes: 32,
	}
}

// List returns all current service records.
func (d *Directory) List(ctx context.Context) ([]ServiceRecord, error) {
	return d.store.ListServices(ctx)
}

// Register creates a service record with a fresh UUID plus a SELF credential
// carrying a fresh high-entropy password, both stored atomically. Requires
// ADMIN access.
func (d *Directory) Register(ctx context.Context, caller auth.Identity, name, description, url string) (*Registration, error) {
	if !caller.CanRegister() {
		d.log.Warn("register denied", map[string]interface{}{
			"caller": caller.Username,
			"access": string(caller.Access),
		})
		return nil, errors.Forbidden("Only admin may register services.")
	}
	if name == "" {
		return nil, errors.MissingField("name")
	}
	if url == "" {
		return nil, errors.MissingField("url")
	}

	password, err := auth.GeneratePassword(d.passwordBytes)
	if err != nil {
		return nil, errors.Internal(err)
	}
	hash, err := d.hasher.Hash(password)
	if err != nil {
		return nil, errors.Internal(err)
	}

	record := ServiceRecord{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		URL:         url,
	}
	if err := d.store.CreateService(ctx, record, hash, auth.AccessSelf); err != nil {
		return nil, err
	}

	d.log.Info("service registered", map[string]interface{}{
		"id":   record.ID,
		"name": record.Name,
		"url":  record.URL,
	})
	return &Registration{ID: record.ID, Password: password}, nil
}

// Deregister deletes a service record and its credential. Requires ADMIN, or
// SELF access where the caller's username equals the target id. Deleting an
// already-removed id returns NOT_FOUND, which callers may treat as success.
func (d *Directory) Deregister(ctx context.Context, caller auth.Identity, id string) error {
	if id == "" {
		return errors.MissingField("id")
	}
	if !caller.CanDeregister(id) {
		d.log.Warn("deregister denied", map[string]interface{}{
			"caller": caller.Username,
			"access": string(caller.Access),
			"target": id,
		})
		return errors.Forbidden("Not allowed to deregister this service.")
	}

	if err := d.store.DeleteService(ctx, id); err != nil {
		return err
	}

	d.log.Info("service deregistered", map[string]interface{}{
		"id":     id,
		"caller": caller.Username,
	})
	return nil
}

// EnsureAdmin bootstraps the fixed admin credential if it is absent. The
// password arrives already hashed; an existing credential is left untouched.
func (d *Directory) EnsureAdmin(ctx context.Context, username, passwordHash string) error {
	if username == "" || passwordHash == "" {
		return nil
	}
	return d.store.EnsureCredential(ctx, username, passwordHash, auth.AccessAdmin)
}
