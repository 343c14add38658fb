package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshreceipt_backend/internal/feature/household/domain/entity"
	"freshreceipt_backend/internal/feature/household/usecase"
)

type mockHouseholdRepository struct {
	ListFunc         func(ctx context.Context, userID uuid.UUID) ([]entity.Household, error)
	CreateFunc       func(ctx context.Context, userID uuid.UUID, name string) (*entity.Household, error)
	BootstrapFunc    func(ctx context.Context, userID uuid.UUID, email, name string) (*entity.Household, error)
	GetFunc          func(ctx context.Context, userID, householdID uuid.UUID) (*entity.Household, error)
	RenameFunc       func(ctx context.Context, userID, householdID uuid.UUID, name string) (*entity.Household, error)
	DeleteFunc       func(ctx context.Context, userID, householdID uuid.UUID) error
	ListMembersFunc  func(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Member, error)
	AddMemberFunc    func(ctx context.Context, userID, householdID uuid.UUID, email, role string) (*entity.Member, error)
	RemoveMemberFunc func(ctx context.Context, userID, householdID, memberUserID uuid.UUID) error
	MemberRoleFunc   func(ctx context.Context, userID, householdID uuid.UUID) (string, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockHouseholdRepository) List(ctx context.Context, userID uuid.UUID) ([]entity.Household, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockHouseholdRepository) Create(ctx context.Context, userID uuid.UUID, name string) (*entity.Household, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, name)
	}
	return nil, errNotImplemented
}

func (m *mockHouseholdRepository) Bootstrap(ctx context.Context, userID uuid.UUID, email, name string) (*entity.Household, error) {
	if m.BootstrapFunc != nil {
		return m.BootstrapFunc(ctx, userID, email, name)
	}
	return nil, errNotImplemented
}

func (m *mockHouseholdRepository) Get(ctx context.Context, userID, householdID uuid.UUID) (*entity.Household, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, householdID)
	}
	return nil, errNotImplemented
}

func (m *mockHouseholdRepository) Rename(ctx context.Context, userID, householdID uuid.UUID, name string) (*entity.Household, error) {
	if m.RenameFunc != nil {
		return m.RenameFunc(ctx, userID, householdID, name)
	}
	return nil, errNotImplemented
}

func (m *mockHouseholdRepository) Delete(ctx context.Context, userID, householdID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, householdID)
	}
	return errNotImplemented
}

func (m *mockHouseholdRepository) ListMembers(ctx context.Context, userID, householdID uuid.UUID) ([]entity.Member, error) {
	if m.ListMembersFunc != nil {
		return m.ListMembersFunc(ctx, userID, householdID)
	}
	return nil, errNotImplemented
}

func (m *mockHouseholdRepository) AddMember(ctx context.Context, userID, householdID uuid.UUID, email, role string) (*entity.Member, error) {
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, userID, householdID, email, role)
	}
	return nil, errNotImplemented
}

func (m *mockHouseholdRepository) RemoveMember(ctx context.Context, userID, householdID, memberUserID uuid.UUID) error {
	if m.RemoveMemberFunc != nil {
		return m.RemoveMemberFunc(ctx, userID, householdID, memberUserID)
	}
	return errNotImplemented
}

func (m *mockHouseholdRepository) MemberRole(ctx context.Context, userID, householdID uuid.UUID) (string, error) {
	if m.MemberRoleFunc != nil {
		return m.MemberRoleFunc(ctx, userID, householdID)
	}
	return "", errNotImplemented
}

func TestHouseholdUsecase_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  error
	}{
		{name: "trims whitespace", input: "  Home  ", wantName: "Home"},
		{name: "empty name", input: "   ", wantErr: usecase.ErrInvalidName},
		{name: "too long", input: strings.Repeat("a", usecase.MaxNameLength+1), wantErr: usecase.ErrInvalidName},
		{name: "multibyte at limit", input: strings.Repeat("家", usecase.MaxNameLength), wantName: strings.Repeat("家", usecase.MaxNameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotName string
			repo := &mockHouseholdRepository{
				CreateFunc: func(ctx context.Context, userID uuid.UUID, name string) (*entity.Household, error) {
					gotName = name
					return &entity.Household{ID: uuid.New(), Name: name, Role: entity.RoleOwner}, nil
				},
			}

			h, err := usecase.NewHouseholdUsecase(repo).Create(context.Background(), uuid.New(), tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, gotName, "repository must not be called")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, gotName)
			assert.Equal(t, entity.RoleOwner, h.Role)
		})
	}
}

func TestHouseholdUsecase_Bootstrap(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var gotEmail, gotName string
	repo := &mockHouseholdRepository{
		BootstrapFunc: func(ctx context.Context, id uuid.UUID, email, name string) (*entity.Household, error) {
			assert.Equal(t, userID, id)
			gotEmail, gotName = email, name
			return &entity.Household{ID: uuid.New(), Name: email + "'s Household"}, nil
		},
	}
	uc := usecase.NewHouseholdUsecase(repo)

	h, err := uc.Bootstrap(context.Background(), userID, "jane@example.com", "  ")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", gotEmail)
	assert.Empty(t, gotName, "blank name falls back to the default")
	assert.Equal(t, "jane@example.com's Household", h.Name)

	_, err = uc.Bootstrap(context.Background(), userID, "jane@example.com", strings.Repeat("x", 300))
	assert.ErrorIs(t, err, usecase.ErrInvalidName)
}

func TestHouseholdUsecase_Bootstrap_PropagatesRepositoryError(t *testing.T) {
	t.Parallel()

	repo := &mockHouseholdRepository{
		BootstrapFunc: func(ctx context.Context, id uuid.UUID, email, name string) (*entity.Household, error) {
			return nil, usecase.ErrAlreadyOwnsHousehold
		},
	}

	_, err := usecase.NewHouseholdUsecase(repo).Bootstrap(context.Background(), uuid.New(), "a@b.c", "")
	assert.ErrorIs(t, err, usecase.ErrAlreadyOwnsHousehold)
}

func TestHouseholdUsecase_Invite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		email     string
		role      string
		wantRole  string
		wantEmail string
		wantErr   error
	}{
		{name: "defaults to member", email: "Bob@Example.com ", role: "", wantRole: entity.RoleMember, wantEmail: "bob@example.com"},
		{name: "admin", email: "bob@example.com", role: entity.RoleAdmin, wantRole: entity.RoleAdmin, wantEmail: "bob@example.com"},
		{name: "owner cannot be invited", email: "bob@example.com", role: entity.RoleOwner, wantErr: usecase.ErrInvalidRole},
		{name: "unknown role", email: "bob@example.com", role: "guest", wantErr: usecase.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			repo := &mockHouseholdRepository{
				AddMemberFunc: func(ctx context.Context, userID, householdID uuid.UUID, email, role string) (*entity.Member, error) {
					called = true
					assert.Equal(t, tt.wantEmail, email)
					assert.Equal(t, tt.wantRole, role)
					return &entity.Member{Email: email, Role: role}, nil
				},
			}

			_, err := usecase.NewHouseholdUsecase(repo).Invite(context.Background(), uuid.New(), uuid.New(), tt.email, tt.role)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, called)
				return
			}
			assert.NoError(t, err)
			assert.True(t, called)
		})
	}
}

func TestHouseholdUsecase_Rename(t *testing.T) {
	t.Parallel()

	repo := &mockHouseholdRepository{
		RenameFunc: func(ctx context.Context, userID, householdID uuid.UUID, name string) (*entity.Household, error) {
			return nil, usecase.ErrForbidden
		},
	}
	uc := usecase.NewHouseholdUsecase(repo)

	_, err := uc.Rename(context.Background(), uuid.New(), uuid.New(), "New name")
	assert.ErrorIs(t, err, usecase.ErrForbidden)

	_, err = uc.Rename(context.Background(), uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, usecase.ErrInvalidName)
}

func TestHouseholdUsecase_PassThrough(t *testing.T) {
	t.Parallel()

	userID, householdID, memberID := uuid.New(), uuid.New(), uuid.New()
	repo := &mockHouseholdRepository{
		ListFunc: func(ctx context.Context, id uuid.UUID) ([]entity.Household, error) {
			return []entity.Household{{ID: householdID, Role: entity.RoleAdmin}}, nil
		},
		GetFunc: func(ctx context.Context, uid, hid uuid.UUID) (*entity.Household, error) {
			return nil, usecase.ErrNotFound
		},
		DeleteFunc: func(ctx context.Context, uid, hid uuid.UUID) error { return usecase.ErrForbidden },
		ListMembersFunc: func(ctx context.Context, uid, hid uuid.UUID) ([]entity.Member, error) {
			return []entity.Member{{UserID: uid}}, nil
		},
		RemoveMemberFunc: func(ctx context.Context, uid, hid, mid uuid.UUID) error {
			assert.Equal(t, memberID, mid)
			return usecase.ErrLastOwner
		},
		MemberRoleFunc: func(ctx context.Context, uid, hid uuid.UUID) (string, error) {
			return entity.RoleMember, nil
		},
	}
	uc := usecase.NewHouseholdUsecase(repo)
	ctx := context.Background()

	list, err := uc.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = uc.Get(ctx, userID, householdID)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, userID, householdID), usecase.ErrForbidden)

	members, err := uc.Members(ctx, userID, householdID)
	require.NoError(t, err)
	assert.Equal(t, userID, members[0].UserID)

	assert.ErrorIs(t, uc.RemoveMember(ctx, userID, householdID, memberID), usecase.ErrLastOwner)

	role, err := uc.MemberRole(ctx, userID, householdID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, role)
}
