package main

import (
	"fmt"

	"robohub/internal/checkout"
	"robohub/internal/domain"
	"robohub/internal/orders"
	"robohub/internal/view"

	"github.com/spf13/cobra"
)

func newCheckoutCmd(a *app) *cobra.Command {
	var (
		addr    domain.ShippingAddress
		payment string
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.cartManager(cmd)
			if err != nil {
				return err
			}
			if m.IsEmpty() {
				return domain.NewValidationError("Your cart is empty")
			}

			flow := checkout.NewFlow(a.deps.API, m, a.deps.Rates, a.logger)
			result, err := flow.Submit(cmd.Context(), addr, payment)
			if err != nil {
				return err
			}

			notify(cmd, view.Success(result.Message))
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Order:\t%s\n", result.Order.ID)
			fmt.Fprintf(tw, "Status:\t%s\n", orders.BadgeFor(result.Order.Status).Label)
			fmt.Fprintf(tw, "Payment:\t%s\n", orders.PaymentLabel(result.Order.PaymentMethod))
			fmt.Fprintf(tw, "Total:\t%s\n", money(result.Order.TotalAmount))
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr.FullName, "full-name", "", "recipient name")
	f.StringVar(&addr.AddressLine1, "address-line-1", "", "street address")
	f.StringVar(&addr.AddressLine2, "address-line-2", "", "apartment, suite, etc.")
	f.StringVar(&addr.City, "city", "", "city")
	f.StringVar(&addr.State, "state", "", "state or province")
	f.StringVar(&addr.PostalCode, "postal-code", "", "postal code")
	f.StringVar(&addr.Country, "country", checkout.DefaultCountry, "country")
	f.StringVar(&addr.Phone, "phone", "", "contact phone")
	f.StringVar(&payment, "payment", domain.PaymentMethodCOD, "payment method")
	return cmd
}

func newOrdersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, user, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			profile, err := orders.NewReader(deps.API, a.logger).Profile(cmd.Context(), *user)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(profile.Orders) == 0 {
				fmt.Fprintln(out, "No orders yet")
				return nil
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "ORDER\tPLACED\tSTATUS\tPAYMENT\tITEMS\tTOTAL")
			for _, o := range profile.Orders {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					o.ID, o.PlacedAt, o.Badge.Label, o.PaymentLabel, len(o.Items), money(o.TotalAmount))
			}
			return tw.Flush()
		},
	}
}
