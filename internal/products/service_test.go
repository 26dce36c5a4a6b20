package products

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLifecycle(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	pizza, err := svc.Create(ctx, "b1", Input{Name: " Muzzarella ", Price: 8500.456, Category: "Pizzas"})
	require.NoError(t, err)
	assert.True(t, pizza.IsAvailable)
	assert.Equal(t, "Muzzarella", pizza.Name)
	assert.InDelta(t, 8500.46, pizza.Price, 0.001)

	_, err = svc.Create(ctx, "b1", Input{Name: "Coca", Price: 1500, Category: "Bebidas"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "b1", Input{Name: "Fugazza", Price: 9000, Category: "Pizzas"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "b1", ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Coca", "Fugazza", "Muzzarella"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, []string{"Bebidas", "Pizzas"}, Categories(list))

	require.NoError(t, svc.SetAvailability(ctx, "b1", pizza.ID, false))
	available, err := svc.List(ctx, "b1", ListFilter{OnlyAvailable: true, Category: "Pizzas"})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "Fugazza", available[0].Name)

	assert.ErrorIs(t, svc.Delete(ctx, "b2", pizza.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "b1", pizza.ID))
	_, err = svc.Get(ctx, "b1", pizza.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.Create(context.Background(), "b1", Input{Name: "x", Price: -1})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "gte", verrs[0].Tag())
}
