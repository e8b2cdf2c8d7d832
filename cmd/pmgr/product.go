package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/prn-tf/product-manager/internal/domain"
)

func (c *cli) productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "product",
		Aliases: []string{"products", "p"},
		Short:   "Manage your products",
		Long: `Product commands act on the products of the logged-in user only.

Examples:
  pmgr product create --name "Desk Lamp" --price 29.99 --stock 4
  pmgr product list
  pmgr product update product_... --price 24.99
  pmgr product search lamp
  pmgr product stats`,
	}

	cmd.AddCommand(
		c.productCreateCmd(),
		c.productListCmd(),
		c.productGetCmd(),
		c.productUpdateCmd(),
		c.productDeleteCmd(),
		c.productSearchCmd(),
		c.productStatsCmd(),
		c.productClearCmd(),
	)
	return cmd
}

// addProductFlags registers the editable product fields.
func addProductFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "product name (1-100 characters)")
	fs.String("description", "", "description (up to 500 characters)")
	fs.Float64("price", 0, "unit price, greater than 0 with at most 2 decimals")
	fs.String("category", "", "category (default General)")
	fs.String("image-url", "", "image URL")
	fs.String("sku", "", "stock keeping unit")
	fs.Int("stock", 0, "units in stock")
	fs.Bool("active", true, "whether the product is active")
}

// productInputFromFlags builds an input holding only the flags that were set.
func productInputFromFlags(fs *pflag.FlagSet) (domain.ProductInput, error) {
	var in domain.ProductInput

	str := func(name string, dst **string) error {
		if !fs.Changed(name) {
			return nil
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}

	for name, dst := range map[string]**string{
		"name":        &in.Name,
		"description": &in.Description,
		"category":    &in.Category,
		"image-url":   &in.ImageURL,
		"sku":         &in.SKU,
	} {
		if err := str(name, dst); err != nil {
			return in, err
		}
	}

	if fs.Changed("price") {
		v, err := fs.GetFloat64("price")
		if err != nil {
			return in, err
		}
		in.Price = &v
	}
	if fs.Changed("stock") {
		v, err := fs.GetInt("stock")
		if err != nil {
			return in, err
		}
		in.Stock = &v
	}
	if fs.Changed("active") {
		v, err := fs.GetBool("active")
		if err != nil {
			return in, err
		}
		in.IsActive = &v
	}
	return in, nil
}

func (c *cli) printProductResult(p *domain.Product, verb string) error {
	if c.jsonOut {
		return printJSON(c.out, p)
	}
	if verb != "" {
		fmt.Fprintf(c.out, "%s product %s\n\n", verb, p.ID)
	}
	printProduct(c.out, p)
	return nil
}

func (c *cli) productCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := productInputFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			p, err := c.app.Products.CreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.printProductResult(p, "Created")
		},
	}
	addProductFlags(cmd.Flags())
	return cmd
}

func (c *cli) productListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your products",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := c.app.Products.GetProducts(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, map[string]any{
					"products": products,
					"count":    len(products),
				})
			}
			return printProducts(c.out, products)
		},
	}
}

func (c *cli) productGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Products.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrProductNotFound
			}
			return c.printProductResult(p, "")
		},
	}
}

func (c *cli) productUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a product",
		Long: `Change fields of a product. Only the flags given are applied; the
resulting product must still satisfy every product rule.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := productInputFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			p, err := c.app.Products.UpdateProduct(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return c.printProductResult(p, "Updated")
		},
	}
	addProductFlags(cmd.Flags())
	return cmd
}

func (c *cli) productDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a product",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Products.DeleteProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(c.out, "Deleted product %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) productSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search name, description, category and SKU",
		Long: `Search your products by a case-insensitive substring of the name,
description, category or SKU. Without a query every product is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			products, err := c.app.Products.SearchProducts(cmd.Context(), &query)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, map[string]any{
					"query":    query,
					"products": products,
					"count":    len(products),
				})
			}
			return printProducts(c.out, products)
		},
	}
}

func (c *cli) productStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize your products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.app.Products.GetProductStats(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, stats)
			}
			return printStats(c.out, stats)
		},
	}
}

func (c *cli) productClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all of your products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := c.confirm("Delete all of your products?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(c.out, "Aborted")
					return nil
				}
			}

			n, err := c.app.Products.ClearAllProducts(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, map[string]int{"deleted": n})
			}
			fmt.Fprintf(c.out, "Deleted %d products\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	return cmd
}
