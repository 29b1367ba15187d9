// Package main provides the burgerapi server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"burgerapi/pkg/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title Burger API
// @version 1.0
// @description CRUD API for burgers
// @host localhost:8080
// @BasePath /
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	configFile string
	jsonOutput bool
	baseURL    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "burgerapi",
		Short:         "Burger API server and client",
		Long:          `burgerapi serves the burger CRUD API and talks to a running instance.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (YAML); BURGERS_* environment variables override it")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newBurgersCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}
