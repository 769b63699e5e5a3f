package seed

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/hash"
)

func TestRun_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	gdb, err := db.OpenSQLite(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(ctx))

	require.NoError(t, Run(ctx, r))
	require.NoError(t, Run(ctx, r))

	total, _, err := r.ListProducts(ctx, 0, 100)
	require.NoError(t, err)
	assert.EqualValues(t, len(Products), total)

	admin, err := r.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, hash.CheckPassword(admin.PasswordHash, "admin123"))

	p, err := r.GetProductBySlug(ctx, "fit-pants")
	require.NoError(t, err)
	assert.Zero(t, p.CountInStock)
}
