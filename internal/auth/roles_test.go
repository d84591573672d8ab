package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/model"
	"github.com/dutch3883/th-stray-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOverrideRepo(t *testing.T) repository.RoleOverrideRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.RoleOverrideModel{}))
	return repository.NewRoleOverrideRepository(db)
}

func TestRoleResolver_OverrideBeatsClaim(t *testing.T) {
	overrides := setupOverrideRepo(t)
	require.NoError(t, overrides.Save(context.Background(), &model.RoleOverrideModel{
		Email:     "vet@example.com",
		Role:      "rescuer",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}))

	resolver := auth.NewRoleResolver(overrides)

	// Override wins even when the token claims a different role.
	role, err := resolver.Resolve(context.Background(), "user-001", "vet@example.com", auth.RoleReporter)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleRescuer, role)
}

func TestRoleResolver_ClaimWhenNoOverride(t *testing.T) {
	resolver := auth.NewRoleResolver(setupOverrideRepo(t))

	role, err := resolver.Resolve(context.Background(), "user-001", "nobody@example.com", auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, role)
}

func TestRoleResolver_FallbackToReporter(t *testing.T) {
	resolver := auth.NewRoleResolver(setupOverrideRepo(t))

	// No override, no claim: default reporter.
	role, err := resolver.Resolve(context.Background(), "user-001", "nobody@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleReporter, role)

	// Garbage claims also fall through to reporter.
	role, err = resolver.Resolve(context.Background(), "user-001", "nobody@example.com", auth.Role("superuser"))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleReporter, role)
}

func TestRoleResolver_EmptyEmailSkipsOverrideLookup(t *testing.T) {
	resolver := auth.NewRoleResolver(setupOverrideRepo(t))

	role, err := resolver.Resolve(context.Background(), "user-001", "", auth.RoleRescuer)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleRescuer, role)
}

func TestRoleResolver_MissingSubjectRejected(t *testing.T) {
	resolver := auth.NewRoleResolver(setupOverrideRepo(t))

	_, err := resolver.Resolve(context.Background(), "", "vet@example.com", auth.RoleAdmin)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestRoleResolver_CorruptOverrideRejected(t *testing.T) {
	overrides := setupOverrideRepo(t)
	require.NoError(t, overrides.Save(context.Background(), &model.RoleOverrideModel{
		Email:     "broken@example.com",
		Role:      "superuser",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}))

	resolver := auth.NewRoleResolver(overrides)

	_, err := resolver.Resolve(context.Background(), "user-001", "broken@example.com", auth.RoleReporter)
	assert.Error(t, err)
}
