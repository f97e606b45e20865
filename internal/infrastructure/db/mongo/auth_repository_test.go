package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/bgi/launchpad-auth/internal/core/domain"
)

func TestCredentialStore_Save(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts and returns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := NewCredentialStore(mt.DB)

		dept := int64(3)
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		saved, err := store.Save(context.Background(), &domain.User{
			Name:         "Alice",
			Email:        "alice@x.edu",
			PasswordHash: "$2a$10$hash",
			Role:         domain.RoleStudent,
			DepartmentID: &dept,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, err := primitive.ObjectIDFromHex(saved.ID); err != nil {
			t.Fatalf("expected ObjectID hex id, got %q", saved.ID)
		}
		if !saved.CreatedAt.Equal(now) {
			t.Fatalf("unexpected created_at: %s", saved.CreatedAt)
		}
	})

	mt.Run("duplicate email is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: launchpad.users index: uk_email",
		}))
		store := NewCredentialStore(mt.DB)

		_, err := store.Save(context.Background(), &domain.User{Email: "alice@x.edu", Role: domain.RoleStudent})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})
}

func TestCredentialStore_FindByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "launchpad.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Alice"},
			{Key: "email", Value: "alice@x.edu"},
			{Key: "password_hash", Value: "$2a$10$hash"},
			{Key: "role", Value: "FACULTY"},
			{Key: "department_id", Value: int64(7)},
			{Key: "is_active", Value: true},
			{Key: "created_at", Value: int64(1772355600)},
			{Key: "updated_at", Value: int64(1772355600)},
		}))
		store := NewCredentialStore(mt.DB)

		u, err := store.FindByEmail(context.Background(), "alice@x.edu")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if u.ID != id.Hex() || u.Name != "Alice" || u.Role != domain.RoleFaculty || !u.Active {
			t.Fatalf("unexpected user: %+v", u)
		}
		if u.DepartmentID == nil || *u.DepartmentID != 7 {
			t.Fatalf("unexpected department: %v", u.DepartmentID)
		}
		if u.PasswordHash != "$2a$10$hash" {
			t.Fatalf("password hash not loaded")
		}
		if u.CreatedAt.Unix() != 1772355600 {
			t.Fatalf("unexpected created_at: %s", u.CreatedAt)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "launchpad.users", mtest.FirstBatch))
		store := NewCredentialStore(mt.DB)

		if _, err := store.FindByEmail(context.Background(), "ghost@x.edu"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestCredentialStore_ExistsByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("exists", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "launchpad.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: 1},
			{Key: "n", Value: int32(1)},
		}))
		store := NewCredentialStore(mt.DB)

		ok, err := store.ExistsByEmail(context.Background(), "alice@x.edu")
		if err != nil || !ok {
			t.Fatalf("expected true, got %v %v", ok, err)
		}
	})

	mt.Run("absent", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "launchpad.users", mtest.FirstBatch))
		store := NewCredentialStore(mt.DB)

		ok, err := store.ExistsByEmail(context.Background(), "ghost@x.edu")
		if err != nil || ok {
			t.Fatalf("expected false, got %v %v", ok, err)
		}
	})
}

func TestCredentialStore_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates unique email index", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := NewCredentialStore(mt.DB)

		if err := store.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("ensure indexes: %v", err)
		}
	})

	mt.Run("surfaces server errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    85,
			Name:    "IndexOptionsConflict",
			Message: "index already exists with different options",
		}))
		store := NewCredentialStore(mt.DB)

		if err := store.EnsureIndexes(context.Background()); err == nil {
			t.Fatalf("expected error")
		}
	})
}
