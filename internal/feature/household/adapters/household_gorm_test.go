package adapters

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshreceipt_backend/internal/feature/household/domain/entity"
	"freshreceipt_backend/internal/feature/household/usecase"
	"freshreceipt_backend/internal/platform/db"
	"freshreceipt_backend/internal/platform/db/dbtest"
)

type fixture struct {
	repo  *householdGorm
	owner uuid.UUID
	email string
}

func setup(t *testing.T) fixture {
	t.Helper()
	gdb := dbtest.Setup(t)
	email := dbtest.UniqueEmail("owner")
	return fixture{
		repo:  NewHouseholdGorm(db.NewRLSExecutor(gdb, dbtest.RequestRole)),
		owner: dbtest.SeedUser(t, gdb, email),
		email: email,
	}
}

func seedUser(t *testing.T, prefix string) (uuid.UUID, string) {
	t.Helper()
	email := dbtest.UniqueEmail(prefix)
	return dbtest.SeedUser(t, dbtest.Setup(t), email), email
}

func TestHouseholdGorm_CreateAndList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	h, err := f.repo.Create(ctx, f.owner, "Home")
	require.NoError(t, err)
	assert.Equal(t, "Home", h.Name)
	assert.Equal(t, f.owner, h.CreatedBy)
	assert.Equal(t, entity.RoleOwner, h.Role)

	list, err := f.repo.List(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, h.ID, list[0].ID)
	assert.Equal(t, entity.RoleOwner, list[0].Role)

	stranger, _ := seedUser(t, "stranger")
	list, err = f.repo.List(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHouseholdGorm_Bootstrap(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	h, err := f.repo.Bootstrap(ctx, f.owner, f.email, "")
	require.NoError(t, err)
	assert.Equal(t, f.email+"'s Household", h.Name)
	assert.Equal(t, entity.RoleOwner, h.Role)

	members, err := f.repo.ListMembers(ctx, f.owner, h.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, f.owner, members[0].UserID)
	assert.Equal(t, entity.RoleOwner, members[0].Role)

	_, err = f.repo.Bootstrap(ctx, f.owner, f.email, "Second")
	assert.ErrorIs(t, err, usecase.ErrAlreadyOwnsHousehold)

	list, err := f.repo.List(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, list, 1, "failed bootstrap leaves no partial household")
}

func TestHouseholdGorm_Bootstrap_NoIdentity(t *testing.T) {
	f := setup(t)

	_, err := f.repo.Bootstrap(context.Background(), uuid.Nil, f.email, "")
	assert.ErrorIs(t, err, usecase.ErrTransactionFailure)
}

func TestHouseholdGorm_GetIsUniformForNonMembers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h, err := f.repo.Create(ctx, f.owner, "Private")
	require.NoError(t, err)
	stranger, _ := seedUser(t, "stranger")

	_, errHidden := f.repo.Get(ctx, stranger, h.ID)
	_, errMissing := f.repo.Get(ctx, stranger, uuid.New())

	assert.ErrorIs(t, errHidden, usecase.ErrNotFound)
	assert.ErrorIs(t, errMissing, usecase.ErrNotFound)

	_, err = f.repo.ListMembers(ctx, stranger, h.ID)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestHouseholdGorm_RenameRequiresAdmin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h, err := f.repo.Create(ctx, f.owner, "Home")
	require.NoError(t, err)
	member, memberEmail := seedUser(t, "member")
	admin, adminEmail := seedUser(t, "admin")
	_, err = f.repo.AddMember(ctx, f.owner, h.ID, memberEmail, entity.RoleMember)
	require.NoError(t, err)
	_, err = f.repo.AddMember(ctx, f.owner, h.ID, adminEmail, entity.RoleAdmin)
	require.NoError(t, err)

	_, err = f.repo.Rename(ctx, member, h.ID, "Mine")
	assert.ErrorIs(t, err, usecase.ErrForbidden)

	renamed, err := f.repo.Rename(ctx, admin, h.ID, "Ours")
	require.NoError(t, err)
	assert.Equal(t, "Ours", renamed.Name)
	assert.Equal(t, entity.RoleAdmin, renamed.Role)
	assert.False(t, renamed.UpdatedAt.Before(renamed.CreatedAt))
}

func TestHouseholdGorm_DeleteRequiresOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h, err := f.repo.Create(ctx, f.owner, "Home")
	require.NoError(t, err)
	admin, adminEmail := seedUser(t, "admin")
	_, err = f.repo.AddMember(ctx, f.owner, h.ID, adminEmail, entity.RoleAdmin)
	require.NoError(t, err)

	assert.ErrorIs(t, f.repo.Delete(ctx, admin, h.ID), usecase.ErrForbidden)
	require.NoError(t, f.repo.Delete(ctx, f.owner, h.ID))

	_, err = f.repo.Get(ctx, f.owner, h.ID)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
	_, err = f.repo.MemberRole(ctx, admin, h.ID)
	assert.ErrorIs(t, err, usecase.ErrNotFound, "memberships cascade")
}

func TestHouseholdGorm_AddMember(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h, err := f.repo.Create(ctx, f.owner, "Home")
	require.NoError(t, err)
	bob, bobEmail := seedUser(t, "bob")

	m, err := f.repo.AddMember(ctx, f.owner, h.ID, bobEmail, entity.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, bob, m.UserID)
	assert.Equal(t, h.ID, m.HouseholdID)

	_, err = f.repo.AddMember(ctx, f.owner, h.ID, bobEmail, entity.RoleMember)
	assert.ErrorIs(t, err, usecase.ErrAlreadyMember)

	_, err = f.repo.AddMember(ctx, f.owner, h.ID, dbtest.UniqueEmail("nobody"), entity.RoleMember)
	assert.ErrorIs(t, err, usecase.ErrUserNotFound)

	_, carolEmail := seedUser(t, "carol")
	_, err = f.repo.AddMember(ctx, bob, h.ID, carolEmail, entity.RoleMember)
	assert.ErrorIs(t, err, usecase.ErrForbidden)

	role, err := f.repo.MemberRole(ctx, bob, h.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, role)
}

func TestHouseholdGorm_RemoveMember(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	h, err := f.repo.Create(ctx, f.owner, "Home")
	require.NoError(t, err)
	bob, bobEmail := seedUser(t, "bob")
	_, err = f.repo.AddMember(ctx, f.owner, h.ID, bobEmail, entity.RoleMember)
	require.NoError(t, err)

	assert.ErrorIs(t, f.repo.RemoveMember(ctx, bob, h.ID, f.owner), usecase.ErrForbidden)
	assert.ErrorIs(t, f.repo.RemoveMember(ctx, f.owner, h.ID, f.owner), usecase.ErrLastOwner)
	assert.ErrorIs(t, f.repo.RemoveMember(ctx, f.owner, h.ID, uuid.New()), usecase.ErrMemberNotFound)

	require.NoError(t, f.repo.RemoveMember(ctx, bob, h.ID, bob), "members may leave")
	_, err = f.repo.MemberRole(ctx, bob, h.ID)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
	assert.ErrorIs(t, f.repo.RemoveMember(ctx, bob, h.ID, bob), usecase.ErrNotFound)
}
