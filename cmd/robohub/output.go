package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"robohub/internal/pricing"
	"robohub/internal/view"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// notify writes a notice to stderr so stdout only carries results.
func notify(cmd *cobra.Command, n *view.Notice) {
	if n == nil {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), n.Message)
}

func printLines(w io.Writer, lines []pricing.Line) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tPRICE\tQTY\tTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.Product.ID, l.Product.Name, money(l.Product.Price), l.Quantity, money(l.Total))
	}
	return tw.Flush()
}
