package checkout_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shopishop/client-go/internal/cart"
	"github.com/shopishop/client-go/internal/checkout"
	"github.com/shopishop/client-go/internal/clienterr"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/shoptest"
)

func newFlow(t *testing.T, env *shoptest.Env) (*checkout.Flow, *cart.Synchronizer) {
	t.Helper()
	c := cart.NewSynchronizer(env.API, env.Sessions, env.Store, nil, env.Logger)
	return checkout.NewFlow(env.API, env.Sessions, c, env.Store, env.Logger), c
}

func seedCartFor(t *testing.T, env *shoptest.Env, email string) models.Product {
	t.Helper()
	p := models.Product{
		ID:       uuid.New(),
		Name:     "boots",
		Price:    decimal.RequireFromString("59.90"),
		Quantity: 5,
	}
	env.Server.SeedProduct(p)
	env.Server.SeedCart(email, p.ID, 2)
	return p
}

func validDraft() models.OrderDraft {
	return models.OrderDraft{
		Address1:      "12 Main St",
		ZipCode:       "1000",
		Country:       "BE",
		City:          "Brussels",
		ContactNumber: "+32400000000",
	}
}

func TestSubmitSucceeds(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)
	flow, c := newFlow(t, env)
	p := seedCartFor(t, env, "alice@example.com")

	result, err := flow.Submit(context.Background(), validDraft())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, result.OrderID)
	require.Equal(t, checkout.StateSucceeded, flow.State())
	require.NoError(t, flow.LastError())

	orders := env.Server.Orders()
	require.Len(t, orders, 1)
	require.Equal(t, "12 Main St", orders[0].ShippingAddress)
	require.Equal(t, "Brussels", orders[0].City)
	require.Len(t, orders[0].Cart, 1)
	require.Equal(t, p.ID, orders[0].Cart[0].ProductID)

	// The backend clears the cart; the next fetch mirrors that.
	items, err := c.FetchCart(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)

	latest, ok, err := flow.LatestOrder()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, result.OrderID, latest.OrderID)
}

func TestSubmitValidatesBeforeNetwork(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)
	flow, _ := newFlow(t, env)

	for _, draft := range []models.OrderDraft{
		{ZipCode: "1000", Country: "BE", City: "Brussels"},
		{Address1: "12 Main St", Country: "BE", City: "Brussels"},
		{Address1: "12 Main St", ZipCode: "1000", City: "Brussels"},
		{Address1: "12 Main St", ZipCode: "1000", Country: "BE"},
	} {
		before := env.Server.Requests()
		_, err := flow.Submit(context.Background(), draft)
		require.ErrorIs(t, err, clienterr.ErrValidation)
		require.Equal(t, before, env.Server.Requests())
		require.Equal(t, checkout.StateEditing, flow.State())
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)
	flow, _ := newFlow(t, env)

	_, err := flow.Submit(context.Background(), validDraft())
	require.ErrorIs(t, err, clienterr.ErrValidation)
	require.Equal(t, checkout.StateFailed, flow.State())
}

func TestFailedSubmitIsRetryable(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)
	flow, _ := newFlow(t, env)
	seedCartFor(t, env, "alice@example.com")

	env.Server.FailWith("POST", "/customer/orders/checkout", 500)
	_, err := flow.Submit(context.Background(), validDraft())
	require.Error(t, err)
	require.Equal(t, checkout.StateFailed, flow.State())
	require.Error(t, flow.LastError())

	// The cart on the server is untouched by the failed attempt.
	require.Len(t, env.Server.CartOf("alice@example.com"), 1)

	env.Server.ClearFailures()
	result, err := flow.Submit(context.Background(), validDraft())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, result.OrderID)
	require.Equal(t, checkout.StateSucceeded, flow.State())
}

func TestSucceededIsTerminal(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "alice@example.com", models.RoleCustomer)
	flow, _ := newFlow(t, env)
	seedCartFor(t, env, "alice@example.com")

	_, err := flow.Submit(context.Background(), validDraft())
	require.NoError(t, err)

	_, err = flow.Submit(context.Background(), validDraft())
	require.Error(t, err)
	require.Equal(t, checkout.StateSucceeded, flow.State())

	flow.Reset()
	require.Equal(t, checkout.StateEditing, flow.State())
}

func TestSubmitRequiresToken(t *testing.T) {
	env := shoptest.NewEnv(t)
	flow, _ := newFlow(t, env)

	_, err := flow.Submit(context.Background(), validDraft())
	require.ErrorIs(t, err, clienterr.ErrUnauthenticated)
	require.Equal(t, checkout.StateFailed, flow.State())
}
