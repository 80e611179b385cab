package main

import (
	"fmt"
	"strconv"

	"robohub/internal/catalog"
	"robohub/internal/domain"

	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	var (
		category, search, featured string
		sortKey                    string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := catalog.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			filter := domain.ProductFilter{Category: category, Search: search}
			if featured != "" {
				v, err := strconv.ParseBool(featured)
				if err != nil {
					return fmt.Errorf("invalid --featured value %q: %w", featured, err)
				}
				filter.Featured = &v
			}

			deps, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			listing, err := catalog.NewReader(deps.API, a.logger).Listing(cmd.Context(), filter, key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d)\n", listing.Title, len(listing.Products))
			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
			for _, p := range listing.Products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name,
					catalog.CategoryName(listing.Categories, p.Category), money(p.Price), catalog.StockStatus(p))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&search, "search", "", "search text")
	cmd.Flags().StringVar(&featured, "featured", "", "true or false")
	cmd.Flags().StringVar(&sortKey, "sort", string(catalog.SortName), "name, price_low or price_high")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			categories, err := catalog.NewReader(deps.API, a.logger).ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, c := range categories {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return tw.Flush()
		},
	}
}

func newProductCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			product, err := catalog.NewReader(deps.API, a.logger).GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			detail := catalog.NewDetail(*product)

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Name:\t%s\n", detail.Product.Name)
			fmt.Fprintf(tw, "Price:\t%s\n", money(detail.Product.Price))
			fmt.Fprintf(tw, "Stock:\t%s\n", detail.StockStatus)
			fmt.Fprintf(tw, "Description:\t%s\n", detail.Product.Description)
			for _, s := range detail.Specs {
				fmt.Fprintf(tw, "%s:\t%s\n", s.Label, s.Value)
			}
			return tw.Flush()
		},
	}
}
