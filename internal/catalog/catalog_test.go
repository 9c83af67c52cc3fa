package catalog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/shopishop/client-go/internal/catalog"
	"github.com/shopishop/client-go/internal/clienterr"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/shoptest"
)

func newCatalog(t *testing.T, env *shoptest.Env) *catalog.Service {
	t.Helper()
	return catalog.New(env.API, env.Sessions, env.Logger)
}

func TestProductsArePublic(t *testing.T) {
	env := shoptest.NewEnv(t)
	svc := newCatalog(t, env)

	p := models.Product{ID: uuid.New(), Name: "boots", Price: decimal.RequireFromString("59.90"), Quantity: 5}
	env.Server.SeedProduct(p)

	// No login needed for the read surface.
	products, err := svc.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, p.ID, products[0].ID)

	got, err := svc.Product(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.True(t, got.Price.Equal(p.Price))
}

func TestProductNotFound(t *testing.T) {
	env := shoptest.NewEnv(t)
	svc := newCatalog(t, env)

	_, err := svc.Product(context.Background(), uuid.New())
	require.ErrorIs(t, err, clienterr.ErrNotFound)
}

func TestMutationsNeedMerchantRole(t *testing.T) {
	env := shoptest.NewEnv(t)
	svc := newCatalog(t, env)
	product := models.Product{Name: "boots", Price: decimal.RequireFromString("59.90")}

	// Guest and customer are rejected locally, before any request is sent.
	before := env.Server.Requests()
	_, err := svc.CreateProduct(context.Background(), product)
	require.ErrorIs(t, err, clienterr.ErrUnauthenticated)
	require.Equal(t, before, env.Server.Requests())

	env.LoginAs(t, "alice@example.com", models.RoleCustomer)
	before = env.Server.Requests()
	_, err = svc.CreateProduct(context.Background(), product)
	require.ErrorIs(t, err, clienterr.ErrUnauthenticated)
	require.Equal(t, before, env.Server.Requests())
}

func TestMerchantProductLifecycle(t *testing.T) {
	env := shoptest.NewEnv(t)
	env.LoginAs(t, "bob@example.com", models.RoleMerchant)
	svc := newCatalog(t, env)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, models.Product{
		Name:     "boots",
		Price:    decimal.RequireFromString("59.90"),
		Quantity: 5,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	require.NoError(t, svc.UpdateQuantity(ctx, created.ID, 12))
	got, err := svc.Product(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, uint(12), got.Quantity)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	_, err = svc.Product(ctx, created.ID)
	require.ErrorIs(t, err, clienterr.ErrNotFound)
}
