package registry

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/database"
	"github.com/skillsenselab/registry/errors"
)

// Store persists service records and their credentials. A record and its
// credential are written and deleted in the same transaction so the pair
// always exists or is absent together.
type Store struct {
	db *database.DB
}

// NewStore creates a store on top of an open database handle and migrates the
// schema.
func NewStore(db *database.DB) (*Store, error) {
	if err := db.AutoMigrate(&ServiceRecord{}, &Credential{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// ListServices returns all current service records in a single query, so the
// caller sees a consistent snapshot.
func (s *Store) ListServices(ctx context.Context) ([]ServiceRecord, error) {
	var records []ServiceRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&records).Error; err != nil {
		return nil, errors.Storage(err)
	}
	return records, nil
}

// FindCredential looks up a credential by username.
func (s *Store) FindCredential(ctx context.Context, username string) (*auth.Credential, error) {
	var cred Credential
	err := s.db.WithContext(ctx).First(&cred, "username = ?", username).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("credential", username)
		}
		return nil, errors.Storage(err)
	}
	return &auth.Credential{
		Username:     cred.Username,
		PasswordHash: cred.PasswordHash,
		Access:       auth.AccessLevel(cred.Access),
	}, nil
}

// CreateService inserts a service record and its credential atomically.
func (s *Store) CreateService(ctx context.Context, record ServiceRecord, passwordHash string, access auth.AccessLevel) error {
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		cred := Credential{
			Username:     record.ID,
			PasswordHash: passwordHash,
			Access:       string(access),
		}
		return tx.Create(&cred).Error
	})
	if err != nil {
		return errors.Storage(err)
	}
	return nil
}

// DeleteService removes a service record and its credential atomically.
// Deleting an absent id reports NOT_FOUND; callers racing each other treat
// that as an acceptable outcome.
func (s *Store) DeleteService(ctx context.Context, id string) error {
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&ServiceRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&Credential{}, "username = ?", id).Error
	})
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("service", id)
		}
		return errors.Storage(err)
	}
	return nil
}

// EnsureCredential creates the credential row if it does not exist yet. Used
// to bootstrap the fixed admin identity at startup.
func (s *Store) EnsureCredential(ctx context.Context, username, passwordHash string, access auth.AccessLevel) error {
	cred := Credential{
		Username:     username,
		PasswordHash: passwordHash,
		Access:       string(access),
	}
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		FirstOrCreate(&cred).Error
	if err != nil {
		return errors.Storage(err)
	}
	return nil
}

var _ auth.CredentialSource = (*Store)(nil)
