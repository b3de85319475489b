package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
)

func (e *testEnv) ingredient(t *testing.T, name, stock, min string) *models.Ingredient {
	t.Helper()
	ing, err := e.inventory.CreateIngredient(context.Background(), services.IngredientInput{
		Name:         name,
		Unit:         "kg",
		CostPerUnit:  dec("2.5"),
		CurrentStock: dec(stock),
		MinStock:     dec(min),
	}, "test")
	require.NoError(t, err)
	return ing
}

func TestAdjustStockFloorsAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ing := env.ingredient(t, "Tomato", "5", "2")

	res, err := env.inventory.AdjustStock(ctx, services.StockAdjustment{
		IngredientID: ing.ID,
		Delta:        dec("-10"),
		Reason:       "spoiled crate",
	})
	require.NoError(t, err)

	assertDecimal(t, "0", res.Ingredient.CurrentStock)
	assertDecimal(t, "-5", res.Movement.Quantity)
	assertDecimal(t, "-10", res.Movement.RequestedQuantity)
	assertDecimal(t, "0", res.Movement.StockAfter)
	assert.Equal(t, models.MovementOut, res.Movement.MovementType)

	assert.Len(t, env.events.OfType(events.OutOfStock), 1)
	assert.Len(t, env.events.OfType(events.LowStock), 1)

	// already empty, nothing crosses again
	_, err = env.inventory.AdjustStock(ctx, services.StockAdjustment{IngredientID: ing.ID, Delta: dec("-1")})
	require.NoError(t, err)
	assert.Len(t, env.events.OfType(events.OutOfStock), 1)
	assert.Len(t, env.events.OfType(events.LowStock), 1)
}

func TestLowStockOnlyOnCrossing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ing := env.ingredient(t, "Flour", "10", "5")

	steps := []struct {
		delta string
		low   int
	}{
		{"-3", 0},
		{"-3", 1},
		{"-1", 1},
		{"10", 1},
		{"-9", 2},
	}
	for _, st := range steps {
		_, err := env.inventory.AdjustStock(ctx, services.StockAdjustment{IngredientID: ing.ID, Delta: dec(st.delta)})
		require.NoError(t, err)
		assert.Len(t, env.events.OfType(events.LowStock), st.low, "after %s", st.delta)
	}
	assert.Empty(t, env.events.OfType(events.OutOfStock))
}

func TestAdjustStockUnknownIngredient(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.inventory.AdjustStock(context.Background(), services.StockAdjustment{IngredientID: 77, Delta: dec("1")})
	assert.ErrorIs(t, err, services.ErrIngredientNotFound)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAdjustStockValidation(t *testing.T) {
	env := newTestEnv(t)
	ing := env.ingredient(t, "Salt", "3", "1")

	tests := []struct {
		name  string
		delta string
		mt    models.MovementType
	}{
		{"zero", "0", ""},
		{"unknown type", "1", "gift"},
		{"negative in", "-1", models.MovementIn},
		{"positive waste", "2", models.MovementWaste},
		{"positive out", "2", models.MovementOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.inventory.AdjustStock(context.Background(), services.StockAdjustment{
				IngredientID: ing.ID,
				Delta:        dec(tt.delta),
				MovementType: tt.mt,
			})
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	got, err := env.inventory.GetIngredient(context.Background(), ing.ID)
	require.NoError(t, err)
	assertDecimal(t, "3", got.CurrentStock)
}

func TestLedgerMatchesStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ing := env.ingredient(t, "Rice", "4.5", "1")

	for _, d := range []string{"2.25", "-1.5", "-20", "7", "-0.125"} {
		_, err := env.inventory.AdjustStock(ctx, services.StockAdjustment{IngredientID: ing.ID, Delta: dec(d)})
		require.NoError(t, err)
	}
	_, err := env.inventory.AdjustStock(ctx, services.StockAdjustment{
		IngredientID: ing.ID,
		Delta:        dec("-0.375"),
		MovementType: models.MovementWaste,
	})
	require.NoError(t, err)

	got, err := env.inventory.GetIngredient(ctx, ing.ID)
	require.NoError(t, err)
	assertDecimal(t, "6.5", got.CurrentStock)

	moves, err := env.inventory.Movements(ctx, ing.ID, 0)
	require.NoError(t, err)
	require.Len(t, moves, 7)

	sum := decimal.Zero
	for _, m := range moves {
		sum = sum.Add(m.Quantity)
	}
	assertDecimal(t, got.CurrentStock.String(), sum)
	assertDecimal(t, "6.5", moves[0].StockAfter)
	assert.Equal(t, models.MovementWaste, moves[0].MovementType)
}

func TestIngredientCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ing := env.ingredient(t, "Basil", "0", "0.5")

	_, err := env.inventory.CreateIngredient(ctx, services.IngredientInput{Name: "Basil", Unit: "kg"}, "test")
	assert.ErrorIs(t, err, services.ErrConflict)

	low, err := env.inventory.ListIngredients(ctx, true)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Basil", low[0].Name)

	minStock := dec("0")
	supplier := "Herb Farm"
	updated, err := env.inventory.UpdateIngredient(ctx, ing.ID, services.IngredientUpdate{MinStock: &minStock, Supplier: &supplier})
	require.NoError(t, err)
	assert.Equal(t, "Herb Farm", updated.Supplier)
	assert.Equal(t, 2, updated.Version)

	require.NoError(t, env.inventory.DeleteIngredient(ctx, ing.ID))
	_, err = env.inventory.GetIngredient(ctx, ing.ID)
	assert.ErrorIs(t, err, services.ErrIngredientNotFound)
	assert.ErrorIs(t, env.inventory.DeleteIngredient(ctx, ing.ID), services.ErrNotFound)
}

func TestDeleteIngredientKeepsLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ing := env.ingredient(t, "Cilantro", "3", "1")

	err := env.inventory.DeleteIngredient(ctx, ing.ID)
	assert.ErrorIs(t, err, services.ErrConflict)

	moves, err := env.inventory.Movements(ctx, ing.ID, 0)
	require.NoError(t, err)
	assert.Len(t, moves, 1)

	off := false
	retired, err := env.inventory.UpdateIngredient(ctx, ing.ID, services.IngredientUpdate{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, retired.IsActive)
}
