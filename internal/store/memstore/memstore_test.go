package memstore

import (
	"context"
	"errors"
	"testing"

	"pos-order-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Execute(ctx, func(ctx context.Context) error {
		require.NoError(t, s.CreatePartner(ctx, &models.Partner{Name: "Temp"}))
		return errors.New("boom")
	})
	assert.Error(t, err)

	partner, err := s.GetPartner(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, partner)
}

func TestSavepointKeepsOuterWork(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Execute(ctx, func(ctx context.Context) error {
		require.NoError(t, s.CreateCategory(ctx, &models.Category{Name: "Kept"}))
		spErr := s.Savepoint(ctx, "inner", func(ctx context.Context) error {
			require.NoError(t, s.CreateCategory(ctx, &models.Category{Name: "Dropped"}))
			return errors.New("boom")
		})
		assert.Error(t, spErr)
		return nil
	})
	require.NoError(t, err)

	kept, _ := s.FindCategoryByName(ctx, "Kept")
	dropped, _ := s.FindCategoryByName(ctx, "Dropped")
	assert.NotNil(t, kept)
	assert.Nil(t, dropped)
}

func TestCreateOrderAssignsReferenceAndLineIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	order := &models.Order{Lines: []models.OrderLine{{ProductID: 1}, {ProductID: 1}}}
	require.NoError(t, s.CreateOrder(ctx, order))
	assert.Equal(t, "ORD-1", order.PosReference)
	assert.Equal(t, order.ID, order.Lines[1].OrderID)
	assert.NotEqual(t, order.Lines[0].ID, order.Lines[1].ID)

	stored, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 2)
}

func TestSeedMatchesSchema(t *testing.T) {
	ctx := context.Background()
	s := New()

	admin, err := s.FindUserByLogin(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.Internal())

	customer, err := s.FindEligibleCustomer(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), customer.ID)

	value, found, err := s.GetParam(ctx, models.ParamAutoAssignGroups)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "True", value)

	for _, xmlID := range []string{models.GroupPosManager, models.GroupPosUser, models.GroupSaleSalesman, models.GroupSystem} {
		g, err := s.FindGroup(ctx, xmlID)
		require.NoError(t, err)
		assert.NotNil(t, g, xmlID)
	}
}

func TestAddGroupMembersSkipsExisting(t *testing.T) {
	ctx := context.Background()
	s := New()

	n, err := s.AddGroupMembers(ctx, 1, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.AddGroupMembers(ctx, 1, []int64{1})
	require.NoError(t, err)
	assert.Zero(t, n)
}
