package reqctx

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPrincipal(t *testing.T) {
	ctx := context.Background()

	_, ok := Principal(ctx)
	assert.False(t, ok)

	id := uuid.New()
	got, ok := Principal(WithPrincipal(ctx, id))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = Principal(WithPrincipal(ctx, uuid.Nil))
	assert.False(t, ok, "nil principal is treated as absent")
}

func TestTenant(t *testing.T) {
	ctx := context.Background()

	_, ok := Tenant(ctx)
	assert.False(t, ok)

	got, ok := Tenant(WithTenant(ctx, "group_abc"))
	assert.True(t, ok)
	assert.Equal(t, "group_abc", got)

	_, ok = Tenant(WithTenant(ctx, ""))
	assert.False(t, ok)
}

func TestInternal(t *testing.T) {
	assert.False(t, IsInternal(context.Background()))
	assert.True(t, IsInternal(WithInternal(context.Background())))
}

func TestConcurrentRequestsDoNotShareIdentity(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup
	errs := make(chan string, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			schema := "group_" + id.String()[:8]
			ctx := WithTenant(WithPrincipal(base, id), schema)

			gotID, _ := Principal(ctx)
			gotSchema, _ := Tenant(ctx)
			if gotID != id || gotSchema != schema {
				errs <- schema
			}
		}()
	}
	wg.Wait()
	close(errs)

	assert.Empty(t, errs)
	_, ok := Tenant(base)
	assert.False(t, ok)
}
