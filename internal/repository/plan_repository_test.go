package repository

import (
	"context"
	"testing"

	"github.com/jbweber/homelab/samba/internal/domain"
	"github.com/jbweber/homelab/samba/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlanRepo(t *testing.T) PlanRepository {
	t.Helper()
	db, cleanup := testutil.SetupTestDBWithMigrations(t, t.Name())
	repo := NewPlanRepository(db)
	t.Cleanup(func() {
		assert.NoError(t, repo.Close())
		cleanup()
	})
	return repo
}

func samplePlan(vm string) domain.PlanRecord {
	return domain.PlanRecord{
		Environment: "dev",
		VMName:      vm,
		VMID:        101,
		FQDN:        vm + ".erx.box",
		Document:    `{"environment":"dev"}`,
	}
}

func TestPlanRepository_Save(t *testing.T) {
	repo := newPlanRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, samplePlan("k8s-master"))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "k8s-master", saved.VMName)
	assert.Equal(t, 101, saved.VMID)
	assert.Equal(t, "k8s-master.erx.box", saved.FQDN)
	assert.Equal(t, `{"environment":"dev"}`, saved.Document)
	assert.NotEmpty(t, saved.CreatedAt)

	second, err := repo.Save(ctx, samplePlan("k8s-master"))
	require.NoError(t, err)
	assert.Greater(t, second.ID, saved.ID)
}

func TestPlanRepository_Save_Rejected(t *testing.T) {
	repo := newPlanRepo(t)
	ctx := context.Background()

	existing := samplePlan("k8s-master")
	existing.ID = 7
	_, err := repo.Save(ctx, existing)
	assert.ErrorIs(t, err, ErrOperationNotSupported)

	for name, mutate := range map[string]func(*domain.PlanRecord){
		"no vm name":  func(p *domain.PlanRecord) { p.VMName = "" },
		"bad vm id":   func(p *domain.PlanRecord) { p.VMID = 0 },
		"no document": func(p *domain.PlanRecord) { p.Document = "" },
	} {
		p := samplePlan("k8s-master")
		mutate(&p)
		_, err := repo.Save(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidEntity, name)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPlanRepository_FindByID(t *testing.T) {
	repo := newPlanRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, samplePlan("k8s-master"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, found)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlanRepository_FindAll(t *testing.T) {
	repo := newPlanRepo(t)
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	for _, vm := range []string{"a", "b", "c"} {
		_, err := repo.Save(ctx, samplePlan(vm))
		require.NoError(t, err)
	}

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].VMName)
	assert.Equal(t, "c", all[2].VMName)
}

func TestPlanRepository_DeleteByID(t *testing.T) {
	repo := newPlanRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, samplePlan("k8s-master"))
	require.NoError(t, err)

	exists, err := repo.ExistsByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))

	exists, err = repo.ExistsByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, repo.DeleteByID(ctx, saved.ID), ErrNotFound)
}

func TestPlanRepository_FindLatestByVM(t *testing.T) {
	repo := newPlanRepo(t)
	ctx := context.Background()

	_, err := repo.FindLatestByVM(ctx, "k8s-master")
	assert.ErrorIs(t, err, ErrNotFound)

	first := samplePlan("k8s-master")
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	other, err := repo.Save(ctx, samplePlan("other"))
	require.NoError(t, err)

	latest := samplePlan("k8s-master")
	latest.Environment = "prod"
	saved, err := repo.Save(ctx, latest)
	require.NoError(t, err)

	found, err := repo.FindLatestByVM(ctx, "k8s-master")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, "prod", found.Environment)

	found, err = repo.FindLatestByVM(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, other.ID, found.ID)
}

func TestPreparedStatementCache(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, t.Name())
	defer cleanup()
	ctx := context.Background()

	cache := NewPreparedStatementCache(db)
	first, err := cache.Get(ctx, planByID)
	require.NoError(t, err)
	again, err := cache.Get(ctx, planByID)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, cache.Size())

	_, err = cache.Get(ctx, planAll)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Size())

	require.NoError(t, cache.Close())
	assert.Equal(t, 0, cache.Size())
	assert.NoError(t, cache.Close())

	_, err = cache.Get(ctx, planByID)
	assert.ErrorIs(t, err, ErrClosed)
}
