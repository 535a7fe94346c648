//go:build integration

package tenant

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/expensetracker/backend/internal/infrastructure/persistence/pgtest"
	"github.com/expensetracker/backend/internal/infrastructure/reqctx"
	"github.com/expensetracker/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestIntegration_ParallelCreateSchemaIfAbsent(t *testing.T) {
	tdb := pgtest.New(t)
	p, err := NewProvisioner(tdb.DB, migrations.Tenant(), "migration_ledger", nil, zap.NewNop())
	require.NoError(t, err)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.CreateSchemaIfAbsent(context.Background(), "group_race")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	var n int64
	require.NoError(t, tdb.DB.Raw("SELECT count(*) FROM information_schema.schemata WHERE schema_name = ?", "group_race").Scan(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestIntegration_ConcurrentMigrateAppliesOnce(t *testing.T) {
	tdb := pgtest.New(t)
	ctx := context.Background()

	// two provisioners stand in for two processes sharing one database
	a, err := NewProvisioner(tdb.DB, migrations.Tenant(), "migration_ledger", nil, zap.NewNop())
	require.NoError(t, err)
	b, err := NewProvisioner(tdb.DB, migrations.Tenant(), "migration_ledger", nil, zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, p := range []*Provisioner{a, b, a, b} {
		wg.Add(1)
		go func(p *Provisioner) {
			defer wg.Done()
			assert.NoError(t, p.Provision(ctx, "group_same"))
		}(p)
	}
	wg.Wait()

	var versions []int64
	require.NoError(t, tdb.DB.Raw(`SELECT version FROM "group_same"."migration_ledger" ORDER BY version`).Scan(&versions).Error)
	require.Len(t, versions, len(a.scripts))

	n, err := a.Migrate(ctx, "group_same")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIntegration_RouterNoStaleSchema(t *testing.T) {
	tdb := pgtest.New(t)
	ctx := context.Background()

	// one connection forces every checkout to reuse the same session
	tdb.SqlDB.SetMaxOpenConns(1)

	p, err := NewProvisioner(tdb.DB, migrations.Tenant(), "migration_ledger", nil, zap.NewNop())
	require.NoError(t, err)
	for _, s := range []string{"group_t1", "group_t2"} {
		require.NoError(t, p.Provision(ctx, s))
	}

	router, err := NewRouter(tdb.DB, "public")
	require.NoError(t, err)

	for i, schema := range []string{"group_t1", "group_t2", "group_t1", ""} {
		reqCtx := ctx
		want := "public"
		if schema != "" {
			reqCtx = reqctx.WithTenant(ctx, schema)
			want = schema
		}
		err := router.Conn(reqCtx, func(tx *gorm.DB) error {
			var got string
			if err := tx.Raw("SELECT current_schema()").Scan(&got).Error; err != nil {
				return err
			}
			assert.Equal(t, want, got, fmt.Sprintf("checkout %d", i))
			return nil
		})
		require.NoError(t, err)
	}
}
