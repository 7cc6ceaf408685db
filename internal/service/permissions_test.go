package service

import (
	"context"
	"testing"
	"time"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupMembers(t *testing.T, repo *memstore.Store, xmlID string) []int64 {
	t.Helper()
	ctx := context.Background()
	group, err := repo.FindGroup(ctx, xmlID)
	require.NoError(t, err)
	require.NotNil(t, group)
	users, err := repo.ListGroupUsers(ctx, group.ID)
	require.NoError(t, err)
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func TestRestoreIsIdempotent(t *testing.T) {
	repo := memstore.New()
	cashier := addUser(repo, "cashier")

	restorer := NewPermissionRestorer(repo, "admin")
	restorer.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	granted, err := restorer.Restore(context.Background())
	require.NoError(t, err)
	// admin: manager, pos user, sales; cashier: pos user
	assert.Equal(t, 4, granted)

	assert.Equal(t, []int64{1}, groupMembers(t, repo, models.GroupPosManager))
	assert.Equal(t, []int64{1, cashier.ID}, groupMembers(t, repo, models.GroupPosUser))
	assert.Equal(t, []int64{1}, groupMembers(t, repo, models.GroupSaleSalesman))

	value, found, err := repo.GetParam(context.Background(), models.ParamLastPermissionRestore)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2024-05-01T12:00:00Z", value)

	granted, err = restorer.Restore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, granted)
}

func TestRestoreWithoutManagerGroupIsNoop(t *testing.T) {
	repo := memstore.NewEmpty()

	granted, err := NewPermissionRestorer(repo, "admin").Restore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, granted)

	_, found, err := repo.GetParam(context.Background(), models.ParamLastPermissionRestore)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAutoAssignGrantsEveryInternalUser(t *testing.T) {
	repo := memstore.New()
	cashier := addUser(repo, "cashier")

	restorer := NewPermissionRestorer(repo, "admin")
	granted, err := restorer.AutoAssign(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, granted)
	assert.Equal(t, []int64{1, cashier.ID}, groupMembers(t, repo, models.GroupPosUser))
	assert.Equal(t, []int64{1, cashier.ID}, groupMembers(t, repo, models.GroupSaleSalesman))
	assert.Empty(t, groupMembers(t, repo, models.GroupPosManager))

	granted, err = restorer.AutoAssign(context.Background())
	require.NoError(t, err)
	assert.Zero(t, granted)
}

func TestAutoAssignHonoursParameter(t *testing.T) {
	repo := memstore.New()
	addUser(repo, "cashier")
	require.NoError(t, repo.SetParam(context.Background(), models.ParamAutoAssignGroups, "False"))

	granted, err := NewPermissionRestorer(repo, "admin").AutoAssign(context.Background())
	require.NoError(t, err)
	assert.Zero(t, granted)
	assert.Empty(t, groupMembers(t, repo, models.GroupPosUser))
}
