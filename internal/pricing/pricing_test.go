package pricing

import (
	"fmt"
	"reflect"
	"testing"

	"robohub/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func product(id, price string) domain.Product {
	return domain.Product{ID: id, Name: id, Price: decimal.RequireFromString(price), StockQuantity: 5}
}

func TestCartSummarySingleItem(t *testing.T) {
	products := map[string]domain.Product{"P1": product("P1", "100")}
	items := []domain.CartItem{{ProductID: "P1", Quantity: 1}}

	summary := DefaultRates.ForCart(items, products)

	assert.Equal(t, "100.00", summary.Subtotal.StringFixed(2))
	assert.Equal(t, "15.00", summary.Savings.StringFixed(2))
	assert.Equal(t, "8.00", summary.Tax.StringFixed(2))
	assert.Equal(t, "93.00", summary.Total.StringFixed(2))
}

func TestCheckoutSummaryHasNoSavings(t *testing.T) {
	products := map[string]domain.Product{
		"robovac-pro-x1":      product("robovac-pro-x1", "599.99"),
		"edubot-learning-kit": product("edubot-learning-kit", "199.99"),
	}
	items := []domain.CartItem{
		{ProductID: "robovac-pro-x1", Quantity: 1},
		{ProductID: "edubot-learning-kit", Quantity: 2},
	}

	summary := DefaultRates.ForCheckout(items, products)

	assert.Equal(t, "999.97", summary.Subtotal.StringFixed(2))
	assert.Equal(t, "80.00", summary.Tax.StringFixed(2))
	assert.True(t, summary.Shipping.IsZero())
	assert.Equal(t, "1079.97", summary.Total.StringFixed(2))
}

func TestMissingProductsAreExcluded(t *testing.T) {
	products := map[string]domain.Product{"P1": product("P1", "10")}
	items := []domain.CartItem{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "gone", Quantity: 7},
	}

	assert.Equal(t, "20", Subtotal(items, products).String())
	assert.Len(t, Lines(items, products), 1)
}

func TestConfiguredRates(t *testing.T) {
	products := map[string]domain.Product{"P1": product("P1", "100")}
	items := []domain.CartItem{{ProductID: "P1", Quantity: 1}}

	summary := NewRates(0, 0.1).ForCart(items, products)

	assert.True(t, summary.Savings.IsZero())
	assert.Equal(t, "110.00", summary.Total.StringFixed(2))
}

// genCart produces a product map and a cart that references some products
// outside the map.
func genCart() gopter.Gen {
	return gen.SliceOf(gen.IntRange(1, 9)).FlatMap(func(v interface{}) gopter.Gen {
		quantities := v.([]int)
		return gen.SliceOfN(len(quantities), gen.IntRange(0, 99999)).Map(func(cents []int) cartCase {
			c := cartCase{products: map[string]domain.Product{}}
			for i, q := range quantities {
				id := fmt.Sprintf("p%d", i)
				c.items = append(c.items, domain.CartItem{ProductID: id, Quantity: q})
				if i%3 != 2 {
					c.products[id] = domain.Product{ID: id, Price: decimal.New(int64(cents[i]), -2)}
				}
			}
			return c
		})
	}, reflect.TypeOf(cartCase{}))
}

type cartCase struct {
	items    []domain.CartItem
	products map[string]domain.Product
}

func TestProperty_SubtotalSumsKnownProducts(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("subtotal is the sum of price × quantity over known products", prop.ForAll(
		func(c cartCase) bool {
			want := decimal.Zero
			for _, item := range c.items {
				if p, ok := c.products[item.ProductID]; ok {
					want = want.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
				}
			}
			return Subtotal(c.items, c.products).Equal(want)
		},
		genCart(),
	))

	properties.Property("cart total is subtotal − savings + tax", prop.ForAll(
		func(c cartCase) bool {
			s := DefaultRates.ForCart(c.items, c.products)
			sub := Subtotal(c.items, c.products)
			want := sub.Sub(sub.Mul(DefaultRates.Savings)).Add(sub.Mul(DefaultRates.Tax)).Round(2)
			return s.Total.Equal(want)
		},
		genCart(),
	))

	properties.Property("checkout total is subtotal + tax", prop.ForAll(
		func(c cartCase) bool {
			s := DefaultRates.ForCheckout(c.items, c.products)
			sub := Subtotal(c.items, c.products)
			return s.Total.Equal(sub.Add(sub.Mul(DefaultRates.Tax)).Round(2)) && s.Shipping.IsZero()
		},
		genCart(),
	))

	properties.Property("summaries are idempotent", prop.ForAll(
		func(c cartCase) bool {
			a := DefaultRates.ForCart(c.items, c.products)
			b := DefaultRates.ForCart(c.items, c.products)
			return a.Subtotal.Equal(b.Subtotal) && a.Savings.Equal(b.Savings) &&
				a.Tax.Equal(b.Tax) && a.Total.Equal(b.Total)
		},
		genCart(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
