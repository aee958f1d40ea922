package authz_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
)

func newOccupant(t *testing.T, tenantID uuid.UUID) *domain.Actor {
	t.Helper()
	a, err := domain.NewActor(tenantID, domain.RoleOccupant, "occ@example.com", "Occupant", nil)
	require.NoError(t, err)
	return a
}

func newAdmin(t *testing.T, tenantID uuid.UUID) *domain.Actor {
	t.Helper()
	a, err := domain.NewActor(tenantID, domain.RoleAdmin, "admin@example.com", "Admin", nil)
	require.NoError(t, err)
	return a
}

func newProperty(t *testing.T, tenantID uuid.UUID) *domain.Property {
	t.Helper()
	p, err := domain.NewProperty(tenantID, nil, "Vilniaus g. 1-2", 54.3)
	require.NoError(t, err)
	return p
}

func TestValidateAssignment(t *testing.T) {
	t.Parallel()

	t.Run("same partition passes", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		err := authz.ValidateAssignment(newAdmin(t, tid), newOccupant(t, tid), newProperty(t, tid))
		assert.NoError(t, err)
	})

	t.Run("cross-tenant property rejected", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		err := authz.ValidateAssignment(newAdmin(t, tid), newOccupant(t, tid), newProperty(t, uuid.New()))
		require.ErrorIs(t, err, domain.ErrInvalidPropertyAssignment)
	})

	t.Run("occupant from another partition rejected", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		err := authz.ValidateAssignment(newAdmin(t, tid), newOccupant(t, uuid.New()), newProperty(t, tid))
		require.ErrorIs(t, err, domain.ErrInvalidPropertyAssignment)
	})

	t.Run("non-occupant target rejected", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		manager, err := domain.NewActor(tid, domain.RoleManager, "m@example.com", "M", nil)
		require.NoError(t, err)

		err = authz.ValidateAssignment(newAdmin(t, tid), manager, newProperty(t, tid))
		require.ErrorIs(t, err, domain.ErrInvalidPropertyAssignment)
	})

	t.Run("superadmin may assign within any single partition", func(t *testing.T) {
		t.Parallel()

		super, err := domain.NewActor(uuid.Nil, domain.RoleSuperadmin, "root@example.com", "Root", nil)
		require.NoError(t, err)

		tid := uuid.New()
		assert.NoError(t, authz.ValidateAssignment(super, newOccupant(t, tid), newProperty(t, tid)))

		// But never across partitions.
		err = authz.ValidateAssignment(super, newOccupant(t, tid), newProperty(t, uuid.New()))
		require.ErrorIs(t, err, domain.ErrInvalidPropertyAssignment)
	})

	t.Run("nil inputs fail closed", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		require.ErrorIs(t, authz.ValidateAssignment(nil, newOccupant(t, tid), newProperty(t, tid)), domain.ErrInvalidPropertyAssignment)
		require.ErrorIs(t, authz.ValidateAssignment(newAdmin(t, tid), nil, newProperty(t, tid)), domain.ErrInvalidPropertyAssignment)
		require.ErrorIs(t, authz.ValidateAssignment(newAdmin(t, tid), newOccupant(t, tid), nil), domain.ErrInvalidPropertyAssignment)
	})
}
