package cart

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"robohub/internal/apiclient"
	"robohub/internal/backendtest"
	"robohub/internal/domain"
	"robohub/internal/pricing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var p1 = domain.Product{ID: "P1", Name: "P1", Price: decimal.NewFromInt(100), StockQuantity: 5}

type fixture struct {
	backend *backendtest.Backend
	srvURL  string
	userID  string
	manager *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, srv := backendtest.NewServer(t)
	backend.SetProducts(append(backendtest.SampleProducts(), p1)...)
	user, token := backend.SeedUser("ada@example.com", "s3cret-pass", "Ada Lovelace")
	client := apiclient.New(srv.URL, apiclient.StaticToken(token), nil)
	return &fixture{
		backend: backend,
		srvURL:  srv.URL,
		userID:  user.ID,
		manager: NewManager(client, pricing.DefaultRates, nil),
	}
}

func TestAddThenStockCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.AddOrIncrement(ctx, "P1", 1))
	assert.Equal(t, "93.00", f.manager.Summary().Total.StringFixed(2))

	require.NoError(t, f.manager.SetQuantity(ctx, "P1", 5))
	assert.Equal(t, 5, f.manager.Cart().Quantity("P1"))

	err := f.manager.SetQuantity(ctx, "P1", 6)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.True(t, IsStockExceeded(err))

	assert.Equal(t, 5, f.manager.Cart().Quantity("P1"))
	backendCart := f.backend.CartOf(f.userID)
	assert.Equal(t, 5, backendCart.Quantity("P1"))
}

func TestAddOrIncrementRespectsStockInclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.AddOrIncrement(ctx, "P1", 3))
	require.NoError(t, f.manager.AddOrIncrement(ctx, "P1", 2))

	err := f.manager.AddOrIncrement(ctx, "P1", 1)
	assert.True(t, IsStockExceeded(err))
	assert.Equal(t, 5, f.manager.Cart().Quantity("P1"))
	assert.Equal(t, 2, f.backend.Calls(http.MethodPost, "/api/cart/add"))
}

func TestAddOrIncrementRejectsNonPositiveDelta(t *testing.T) {
	f := newFixture(t)

	err := f.manager.AddOrIncrement(context.Background(), "P1", 0)

	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, f.backend.TotalCalls())
}

func TestFailedMutationLeavesMirrorUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.SetCart(f.userID, domain.CartItem{ProductID: "P1", Quantity: 2})
	require.NoError(t, f.manager.Load(ctx))
	before := f.manager.Cart()

	f.backend.FailNext(http.MethodPost, "/api/cart/add", http.StatusInternalServerError)
	err := f.manager.SetQuantity(ctx, "P1", 4)
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, before.Items, f.manager.Cart().Items)

	f.backend.FailNext(http.MethodDelete, "/api/cart/remove", 0)
	err = f.manager.RemoveItem(ctx, "P1")
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, before.Items, f.manager.Cart().Items)
}

func TestGetCartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.SetCart(f.userID,
		domain.CartItem{ProductID: "robovac-pro-x1", Quantity: 1},
		domain.CartItem{ProductID: "P1", Quantity: 2},
	)

	first, err := f.manager.GetCart(ctx)
	require.NoError(t, err)
	second, err := f.manager.GetCart(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestUnknownProductsAreDroppedFromTotals(t *testing.T) {
	f := newFixture(t)
	f.backend.SetCart(f.userID,
		domain.CartItem{ProductID: "P1", Quantity: 1},
		domain.CartItem{ProductID: "discontinued", Quantity: 3},
	)

	require.NoError(t, f.manager.Load(context.Background()))

	assert.NotContains(t, f.manager.Products(), "discontinued")
	assert.Len(t, f.manager.Lines(), 1)
	assert.Equal(t, "100.00", f.manager.Summary().Subtotal.StringFixed(2))
	assert.Len(t, f.manager.Cart().Items, 2)
}

func TestLoadFailsOnProductOutage(t *testing.T) {
	f := newFixture(t)
	f.backend.SetCart(f.userID, domain.CartItem{ProductID: "P1", Quantity: 1})
	f.backend.FailNext(http.MethodGet, "/api/products/P1", http.StatusBadGateway)

	err := f.manager.Load(context.Background())

	assert.True(t, domain.IsNetwork(err))
	assert.Nil(t, f.manager.Cart())
}

func TestViewCountsUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.AddOrIncrement(ctx, "P1", 2))
	require.NoError(t, f.manager.AddOrIncrement(ctx, "edubot-learning-kit", 1))

	view := f.manager.View()

	assert.Equal(t, 3, view.ItemCount)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "200.00", view.Items[0].Total.StringFixed(2))
	assert.False(t, f.manager.IsEmpty())
}

func TestProperty_SetQuantityNonPositiveIsRemove(t *testing.T) {
	backend, srv := backendtest.NewServer(t)
	backend.SetProducts(p1)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	n := 0
	properties.Property("setQuantity(q<=0) matches removeItem", prop.ForAll(
		func(start, q int) bool {
			n++
			userA, tokenA := backend.SeedUser(fmt.Sprintf("a%d@example.com", n), "pw", "A")
			userB, tokenB := backend.SeedUser(fmt.Sprintf("b%d@example.com", n), "pw", "B")
			backend.SetCart(userA.ID, domain.CartItem{ProductID: "P1", Quantity: start})
			backend.SetCart(userB.ID, domain.CartItem{ProductID: "P1", Quantity: start})

			a := NewManager(apiclient.New(srv.URL, apiclient.StaticToken(tokenA), nil), pricing.DefaultRates, nil)
			b := NewManager(apiclient.New(srv.URL, apiclient.StaticToken(tokenB), nil), pricing.DefaultRates, nil)
			ctx := context.Background()
			if a.Load(ctx) != nil || b.Load(ctx) != nil {
				return false
			}

			if a.SetQuantity(ctx, "P1", q) != nil || b.RemoveItem(ctx, "P1") != nil {
				return false
			}

			return len(a.Cart().Items) == 0 &&
				len(b.Cart().Items) == 0 &&
				len(backend.CartOf(userA.ID).Items) == len(backend.CartOf(userB.ID).Items)
		},
		gen.IntRange(1, 5),
		gen.IntRange(-10, 0),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
