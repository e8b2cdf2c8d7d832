package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/prn-tf/product-manager/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printTableHeader(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func formatPrice(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

func printUser(w io.Writer, u *domain.User) {
	fmt.Fprintf(w, "ID:        %s\n", u.ID)
	fmt.Fprintf(w, "Email:     %s\n", u.Email)
	fmt.Fprintf(w, "Username:  %s\n", u.Username)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created:   %s\n", u.CreatedAt.Local().Format(timeLayout))
	}
	if u.LastLoginAt != nil {
		fmt.Fprintf(w, "Last login: %s\n", u.LastLoginAt.Local().Format(timeLayout))
	}
}

func printProduct(w io.Writer, p *domain.Product) {
	fmt.Fprintf(w, "ID:          %s\n", p.ID)
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(w, "Price:       %s\n", formatPrice(p.Price))
	fmt.Fprintf(w, "Category:    %s\n", p.Category)
	if p.SKU != "" {
		fmt.Fprintf(w, "SKU:         %s\n", p.SKU)
	}
	if p.ImageURL != "" {
		fmt.Fprintf(w, "Image:       %s\n", p.ImageURL)
	}
	fmt.Fprintf(w, "Stock:       %d\n", p.Stock)
	fmt.Fprintf(w, "Active:      %t\n", p.IsActive)
	fmt.Fprintf(w, "Created:     %s\n", p.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "Updated:     %s\n", p.UpdatedAt.Local().Format(timeLayout))
}

func printProducts(w io.Writer, products []*domain.Product) error {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found")
		return nil
	}

	tw := newTable(w)
	printTableHeader(tw, "ID", "NAME", "PRICE", "CATEGORY", "STOCK", "ACTIVE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\n",
			p.ID,
			truncate(p.Name, 40),
			formatPrice(p.Price),
			p.Category,
			p.Stock,
			p.IsActive,
		)
	}
	return tw.Flush()
}

func printStats(w io.Writer, s *domain.ProductStats) error {
	fmt.Fprintf(w, "Products:      %d\n", s.TotalProducts)
	fmt.Fprintf(w, "Total value:   %s\n", formatPrice(s.TotalValue))
	fmt.Fprintf(w, "Average price: %s\n", formatPrice(s.AveragePrice))
	if len(s.Categories) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w)
	tw := newTable(w)
	printTableHeader(tw, "CATEGORY", "COUNT")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%d\n", name, s.Categories[name])
	}
	return tw.Flush()
}
