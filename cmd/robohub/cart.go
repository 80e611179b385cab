package main

import (
	"fmt"
	"strconv"

	"robohub/internal/cart"
	"robohub/internal/view"

	"github.com/spf13/cobra"
)

func (a *app) cartManager(cmd *cobra.Command) (*cart.Manager, error) {
	deps, _, err := a.signedIn(cmd.Context())
	if err != nil {
		return nil, err
	}
	m := cart.NewManager(deps.API, deps.Rates, a.logger)
	if err := m.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return m, nil
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.cartManager(cmd)
			if err != nil {
				return err
			}
			return printCart(cmd, m)
		},
	}
	cmd.AddCommand(newCartAddCmd(a), newCartSetCmd(a), newCartRemoveCmd(a))
	return cmd
}

func newCartAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity := 1
			if len(args) == 2 {
				q, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				quantity = q
			}

			m, err := a.cartManager(cmd)
			if err != nil {
				return err
			}
			if err := m.AddOrIncrement(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			name := args[0]
			if p, ok := m.Products()[args[0]]; ok {
				name = p.Name
			}
			notify(cmd, view.Success(fmt.Sprintf("Added %d %s(s) to cart!", quantity, name)))
			return printCart(cmd, m)
		},
	}
}

func newCartSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a cart item; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			m, err := a.cartManager(cmd)
			if err != nil {
				return err
			}
			if err := m.SetQuantity(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			if quantity <= 0 {
				notify(cmd, view.Success("Item removed from cart"))
			}
			return printCart(cmd, m)
		},
	}
}

func newCartRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.cartManager(cmd)
			if err != nil {
				return err
			}
			if err := m.RemoveItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			notify(cmd, view.Success("Item removed from cart"))
			return printCart(cmd, m)
		},
	}
}

func printCart(cmd *cobra.Command, m *cart.Manager) error {
	out := cmd.OutOrStdout()
	v := m.View()
	if v.ItemCount == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return nil
	}
	if err := printLines(out, v.Items); err != nil {
		return err
	}
	tw := newTable(out)
	fmt.Fprintf(tw, "Items:\t%d\n", v.ItemCount)
	fmt.Fprintf(tw, "Subtotal:\t%s\n", money(v.Summary.Subtotal))
	fmt.Fprintf(tw, "Savings:\t-%s\n", money(v.Summary.Savings))
	fmt.Fprintf(tw, "Tax:\t%s\n", money(v.Summary.Tax))
	fmt.Fprintf(tw, "Total:\t%s\n", money(v.Summary.Total))
	return tw.Flush()
}
