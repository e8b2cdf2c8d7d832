package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:         "up",
		Short:       "Apply pending migrations",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationMigrate: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Storage.Migrate(cmd.Context()); err != nil {
				return err
			}
			return c.printHealth(cmd, "Migrations applied")
		},
	}

	status := &cobra.Command{
		Use:         "status",
		Short:       "Show the schema version and backend state",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationMigrate: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printHealth(cmd, "")
		},
	}

	cmd.AddCommand(up, status)
	return cmd
}

func (c *cli) printHealth(cmd *cobra.Command, headline string) error {
	health, err := c.app.Storage.Health(cmd.Context())
	if err != nil {
		return err
	}
	if c.jsonOut {
		return printJSON(c.out, health)
	}

	if headline != "" {
		fmt.Fprintln(c.out, headline)
	}
	fmt.Fprintf(c.out, "KV backend:     %s\n", health.KVBackend)
	fmt.Fprintf(c.out, "Indexed store:  %s\n", health.IndexedDriver)
	if health.IndexedDriver != "none" {
		fmt.Fprintf(c.out, "Ready:          %t\n", health.IndexedReady)
		fmt.Fprintf(c.out, "Schema version: %d\n", health.SchemaVersion)
	}
	return nil
}

func (c *cli) resetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every user, product and session",
		Long: `Delete every user, product and session from all configured stores and
log out. This cannot be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := c.confirm("Delete ALL users, products and sessions?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(c.out, "Aborted")
					return nil
				}
			}

			if err := c.app.Reset(cmd.Context()); err != nil {
				return err
			}
			if c.jsonOut {
				return printJSON(c.out, map[string]bool{"reset": true})
			}
			fmt.Fprintln(c.out, "All data cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.jsonOut {
				return printJSON(c.out, map[string]string{
					"version":   Version,
					"buildTime": BuildTime,
					"gitCommit": GitCommit,
				})
			}
			fmt.Fprintf(c.out, "pmgr %s\n", Version)
			fmt.Fprintf(c.out, "Build Time: %s\n", BuildTime)
			fmt.Fprintf(c.out, "Git Commit: %s\n", GitCommit)
			return nil
		},
	}
}
