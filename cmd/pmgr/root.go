package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/prn-tf/product-manager/internal/app"
	"github.com/prn-tf/product-manager/internal/config"
)

// Command annotations read by setup.
const (
	// annotationNoApp marks commands that run without opening the stores.
	annotationNoApp = "pmgr/no-app"

	// annotationMigrate marks commands that manage the schema themselves.
	annotationMigrate = "pmgr/migrate"
)

// appOpener builds the application for a command run.
type appOpener func(ctx context.Context, configPath string, autoMigrate bool) (*app.App, func() error, error)

// cli carries the state shared by every command of one invocation.
type cli struct {
	configPath string
	jsonOut    bool

	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
	terminal bool

	openApp appOpener

	app      *app.App
	closeApp func() error
}

// openApp loads the configuration and opens the stores and services.
func openApp(ctx context.Context, configPath string, autoMigrate bool) (*app.App, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if !autoMigrate {
		cfg.Database.AutoMigrate = false
	}

	logger, closeLog, err := app.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}

	return a, func() error {
		return errors.Join(a.Close(), closeLog())
	}, nil
}

// execute runs the command line and releases the stores afterwards.
func execute(ctx context.Context, c *cli, args []string) error {
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetIn(c.in)

	err := root.ExecuteContext(ctx)
	if c.closeApp != nil {
		err = errors.Join(err, c.closeApp())
		c.closeApp = nil
	}
	return err
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "pmgr",
		Short: "Manage your product inventory",
		Long: `pmgr keeps a local user account and the products it owns.

Sign up or log in once; the session is persisted and restored on the next run
until it expires or you log out.

Examples:
  pmgr signup --email me@example.com
  pmgr login --email me@example.com --remember
  pmgr product create --name "Desk Lamp" --price 29.99 --category Lighting
  pmgr product list
  pmgr product search lamp`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./config.yaml, then the user config dir)")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		c.signupCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.passwdCmd(),
		c.productCmd(),
		c.migrateCmd(),
		c.resetCmd(),
		c.versionCmd(),
	)
	return root
}

// setup opens the application and restores the persisted session before a
// command runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoApp] == "true" {
		return nil
	}
	migrating := cmd.Annotations[annotationMigrate] == "true"

	a, closeFn, err := c.openApp(cmd.Context(), c.configPath, !migrating)
	if err != nil {
		return err
	}
	c.app = a
	c.closeApp = closeFn

	if migrating {
		return nil
	}
	if _, err := a.Restore(cmd.Context()); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	return nil
}
