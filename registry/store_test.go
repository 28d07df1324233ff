package registry_test

import (
	"context"
	"testing"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/errors"
	"github.com/skillsenselab/registry/registry"
)

func TestStore_CreateServiceStoresRecordAndCredential(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := registry.ServiceRecord{
		ID:          "svc-1",
		Name:        "payments",
		Description: "payment processing",
		URL:         "http://payments:8080",
	}
	if err := store.CreateService(ctx, record, "hash", auth.AccessSelf); err != nil {
		t.Fatalf("CreateService: %v", err)
	}

	records, err := store.ListServices(ctx)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(records) != 1 || records[0].ID != "svc-1" {
		t.Fatalf("unexpected records: %+v", records)
	}

	cred, err := store.FindCredential(ctx, "svc-1")
	if err != nil {
		t.Fatalf("FindCredential: %v", err)
	}
	if cred.Access != auth.AccessSelf {
		t.Fatalf("expected SELF access, got %s", cred.Access)
	}
}

func TestStore_DeleteServiceRemovesBothRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := registry.ServiceRecord{ID: "svc-1", Name: "payments", URL: "http://payments:8080"}
	if err := store.CreateService(ctx, record, "hash", auth.AccessSelf); err != nil {
		t.Fatalf("CreateService: %v", err)
	}

	if err := store.DeleteService(ctx, "svc-1"); err != nil {
		t.Fatalf("DeleteService: %v", err)
	}

	records, err := store.ListServices(ctx)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %+v", records)
	}
	if _, err := store.FindCredential(ctx, "svc-1"); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND for deleted credential, got %v", err)
	}
}

func TestStore_DeleteAbsentServiceIsNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteService(context.Background(), "no-such-id")
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestStore_ListServicesOrdersByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, svc := range []struct{ id, name string }{
		{"svc-b", "zeta"},
		{"svc-a", "alpha"},
	} {
		record := registry.ServiceRecord{ID: svc.id, Name: svc.name, URL: "http://" + svc.name}
		if err := store.CreateService(ctx, record, "hash", auth.AccessSelf); err != nil {
			t.Fatalf("CreateService(%s): %v", svc.id, err)
		}
	}

	records, err := store.ListServices(ctx)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(records) != 2 || records[0].Name != "alpha" || records[1].Name != "zeta" {
		t.Fatalf("expected alphabetical order, got %+v", records)
	}
}

func TestStore_EnsureCredentialIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.EnsureCredential(ctx, "admin", "hash-1", auth.AccessAdmin); err != nil {
		t.Fatalf("EnsureCredential: %v", err)
	}
	// Second call with a different hash must not overwrite the first.
	if err := store.EnsureCredential(ctx, "admin", "hash-2", auth.AccessAdmin); err != nil {
		t.Fatalf("EnsureCredential (second): %v", err)
	}

	cred, err := store.FindCredential(ctx, "admin")
	if err != nil {
		t.Fatalf("FindCredential: %v", err)
	}
	if cred.PasswordHash != "hash-1" {
		t.Fatalf("expected original hash to survive, got %s", cred.PasswordHash)
	}
}
