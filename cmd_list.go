// cmd_list.go - Read-only product and order listings for the terminal

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"kkmt-store/models"
)

var (
	// list flags
	listSearch string
	listLimit  int
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Inspect the catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every product, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		products, err := models.NewProductsRepository(db).All(cmd.Context())
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		printProducts(cmd.OutOrStdout(), filterRows(products, listSearch, func(p models.Product) []string {
			sku := ""
			if p.SKU != nil {
				sku = *p.SKU
			}
			return []string{p.Name, p.BrandName, sku}
		}), listLimit)
		return nil
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect placed orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every order, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		orders, err := models.NewOrdersRepository(db, cfg.Store.OrderPrefix).All(cmd.Context())
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		printOrders(cmd.OutOrStdout(), filterRows(orders, listSearch, func(o models.Order) []string {
			return []string{o.Code, o.CustomerName, o.CustomerEmail}
		}), listLimit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(productsCmd, ordersCmd)
	productsCmd.AddCommand(productsListCmd)
	ordersCmd.AddCommand(ordersListCmd)

	for _, c := range []*cobra.Command{productsListCmd, ordersListCmd} {
		c.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive text filter")
		c.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum rows to print (0 prints all)")
	}
}

// filterRows keeps rows where any field contains search, ignoring case.
func filterRows[T any](rows []T, search string, fields func(T) []string) []T {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return rows
	}
	var out []T
	for _, row := range rows {
		for _, f := range fields(row) {
			if strings.Contains(strings.ToLower(f), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func printProducts(w io.Writer, products []models.Product, limit int) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Brand", "SKU", "Price", "Stock", "Status", "Featured"})
	for i, p := range products {
		if limit > 0 && i >= limit {
			break
		}
		sku := "-"
		if p.SKU != nil {
			sku = *p.SKU
		}
		status := "active"
		if !p.IsActive {
			status = "inactive"
		}
		featured := ""
		if p.IsFeatured {
			featured = "yes"
		}
		t.AppendRow(table.Row{p.ID, p.Name, p.BrandName, sku, models.FormatPeso(p.Price), p.Stock, status, featured})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d products", len(products))})
	t.Render()
}

func printOrders(w io.Writer, orders []models.Order, limit int) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Order", "Customer", "Email", "Items", "Total", "Placed"})
	for i := range orders {
		if limit > 0 && i >= limit {
			break
		}
		o := &orders[i]
		t.AppendRow(table.Row{o.Code, o.CustomerName, o.CustomerEmail, o.ItemCount(), models.FormatPeso(o.Total), o.CreatedAt.Format("2006-01-02 15:04")})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d orders", len(orders))})
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
	})
	return t
}
