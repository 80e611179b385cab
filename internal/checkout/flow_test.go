package checkout

import (
	"context"
	"net/http"
	"testing"
	"time"

	"robohub/internal/apiclient"
	"robohub/internal/backendtest"
	"robohub/internal/cart"
	"robohub/internal/domain"
	"robohub/internal/pricing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:     "Ada Lovelace",
		AddressLine1: "12 Analytical Engine Rd",
		City:         "Lahore",
		State:        "Punjab",
		PostalCode:   "54000",
		Phone:        "+92 300 1234567",
	}
}

type fixture struct {
	backend *backendtest.Backend
	userID  string
	cart    *cart.Manager
	flow    *Flow
	states  []State
}

func newFixture(t *testing.T, items ...domain.CartItem) *fixture {
	t.Helper()
	backend, srv := backendtest.NewServer(t)
	user, token := backend.SeedUser("ada@example.com", "s3cret-pass", "Ada Lovelace")
	backend.SetCart(user.ID, items...)

	client := apiclient.New(srv.URL, apiclient.StaticToken(token), nil)
	manager := cart.NewManager(client, pricing.DefaultRates, nil)
	require.NoError(t, manager.Load(context.Background()))

	f := &fixture{backend: backend, userID: user.ID, cart: manager}
	f.flow = NewFlow(client, manager, pricing.DefaultRates, nil)
	f.flow.OnTransition(func(from, to State) { f.states = append(f.states, to) })
	return f
}

func TestSubmitTwoItemOrder(t *testing.T) {
	f := newFixture(t,
		domain.CartItem{ProductID: "robovac-pro-x1", Quantity: 1},
		domain.CartItem{ProductID: "edubot-learning-kit", Quantity: 2},
	)

	result, err := f.flow.Submit(context.Background(), validAddress(), "cod")
	require.NoError(t, err)

	assert.Len(t, result.Order.Items, 2)
	assert.Equal(t, "1079.97", result.Summary.Total.StringFixed(2))
	assert.True(t, result.Order.TotalAmount.Equal(result.Summary.Subtotal.Add(result.Summary.Tax)))
	assert.Equal(t, "/profile", result.Redirect)
	assert.Equal(t, "Order placed successfully!", result.Message)
	assert.Equal(t, "Pakistan", result.Order.ShippingAddress.Country)

	assert.Equal(t, Success, f.flow.State())
	assert.Equal(t, []State{Validating, Submitting, Success}, f.states)
	assert.Empty(t, f.backend.CartOf(f.userID).Items)
}

func TestMissingAddressLineIsRejectedWithoutNetwork(t *testing.T) {
	f := newFixture(t, domain.CartItem{ProductID: "robovac-pro-x1", Quantity: 1})
	calls := f.backend.TotalCalls()

	_, err := f.flow.Submit(context.Background(), domain.ShippingAddress{
		FullName: "A", AddressLine1: "", City: "X", State: "Y", PostalCode: "Z", Phone: "1",
	}, "cod")

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "address_line_1", ve.Fields[0].Field)

	assert.Equal(t, calls, f.backend.TotalCalls())
	assert.Equal(t, Idle, f.flow.State())
	assert.Equal(t, []State{Validating, Idle}, f.states)
}

func TestEmptyCartIsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.flow.Submit(context.Background(), validAddress(), "cod")

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("items"))
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Zero(t, f.backend.Calls(http.MethodPost, "/api/orders"))
}

func TestDisabledPaymentMethodIsRejected(t *testing.T) {
	f := newFixture(t, domain.CartItem{ProductID: "robovac-pro-x1", Quantity: 1})

	for _, method := range []string{"card", "mobile", "bitcoin"} {
		_, err := f.flow.Submit(context.Background(), validAddress(), method)

		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve, method)
		assert.True(t, ve.Has("payment_method"))
	}
	assert.Zero(t, f.backend.Calls(http.MethodPost, "/api/orders"))
}

func TestFailedSubmissionIsRetryable(t *testing.T) {
	f := newFixture(t, domain.CartItem{ProductID: "robovac-pro-x1", Quantity: 1})
	f.backend.FailNext(http.MethodPost, "/api/orders", http.StatusInternalServerError)

	_, err := f.flow.Submit(context.Background(), validAddress(), "cod")

	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, FailureMessage, err.Error())
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, Idle, f.flow.State())
	assert.Equal(t, []State{Validating, Submitting, Failed, Idle}, f.states)

	result, err := f.flow.Submit(context.Background(), validAddress(), "cod")
	require.NoError(t, err)
	assert.Len(t, result.Order.Items, 1)
}

func TestObserverMayReadStateDuringSubmit(t *testing.T) {
	f := newFixture(t, domain.CartItem{ProductID: "robovac-pro-x1", Quantity: 1})

	var seen []State
	f.flow.OnTransition(func(_, to State) {
		assert.Equal(t, to, f.flow.State())
		seen = append(seen, f.flow.State())
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.flow.Submit(context.Background(), validAddress(), "cod")
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submit blocked while the observer read the flow state")
	}
	assert.Equal(t, []State{Validating, Submitting, Success}, seen)
}

func TestPaymentMethods(t *testing.T) {
	methods := PaymentMethods()

	require.Len(t, methods, 3)
	enabled := 0
	for _, m := range methods {
		if m.Enabled {
			enabled++
			assert.Equal(t, "cod", m.ID)
		}
	}
	assert.Equal(t, 1, enabled)
}

func TestProperty_AddressRejectedIffFieldEmpty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	field := gen.OneConstOf("", " ", "x", "Lahore")
	properties.Property("rejected iff a required field is blank", prop.ForAll(
		func(name, line1, city, state, postal, phone string) bool {
			addr := domain.ShippingAddress{
				FullName: name, AddressLine1: line1, City: city,
				State: state, PostalCode: postal, Phone: phone,
			}
			err := ValidateAddress(normalize(addr))

			anyBlank := false
			for _, v := range []string{name, line1, city, state, postal, phone} {
				if v == "" || v == " " {
					anyBlank = true
				}
			}
			return (err != nil) == anyBlank
		},
		field, field, field, field, field, field,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
