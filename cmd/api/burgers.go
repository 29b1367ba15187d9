package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"burgerapi/pkg/burger"
	"burgerapi/pkg/client"
)

var (
	idColor    = color.New(color.FgCyan, color.Bold).SprintFunc()
	priceColor = color.New(color.FgGreen).SprintFunc()
	dimColor   = color.New(color.Faint).SprintFunc()
)

func newBurgersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burgers",
		Short: "Manage burgers on a running server",
		Long: `Burgers talks to a running burgerapi server over HTTP.

Example:
  burgerapi burgers create --name Classic --price 5.99
  burgerapi burgers list --json`,
	}
	cmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output as JSON")
	cmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "server URL (default: client.base_url from config)")

	cmd.AddCommand(
		newBurgersListCmd(a),
		newBurgersGetCmd(a),
		newBurgersCreateCmd(a),
		newBurgersUpdateCmd(a),
		newBurgersDeleteCmd(a),
	)
	return cmd
}

func (a *app) client() (*client.Client, error) {
	base := a.baseURL
	if base == "" {
		base = a.cfg.Client.BaseURL
	}
	return client.New(client.Config{BaseURL: base, Timeout: a.cfg.Client.Timeout})
}

func newBurgersListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all burgers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			burgers, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return writeJSON(out, burgers)
			}
			if len(burgers) == 0 {
				fmt.Fprintln(out, dimColor("no burgers"))
				return nil
			}
			lo.ForEach(burgers, func(b burger.Burger, _ int) { printBurger(out, b) })
			return nil
		},
	}
}

func newBurgersGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a burger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			b, etag, err := c.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return writeJSON(out, b)
			}
			printBurger(out, b)
			fmt.Fprintln(out, dimColor("etag "+etag))
			return nil
		},
	}
}

type burgerFlags struct {
	name        string
	description string
	price       float64
}

func (f *burgerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "burger name")
	cmd.Flags().StringVar(&f.description, "description", "", "burger description")
	cmd.Flags().Float64Var(&f.price, "price", 0, "burger price")
}

func newBurgersCreateCmd(a *app) *cobra.Command {
	var f burgerFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a burger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			b, _, err := c.Create(cmd.Context(), burger.Burger{Name: f.name, Description: f.description, Price: f.price})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return writeJSON(out, b)
			}
			fmt.Fprintf(out, "created %s\n", idColor("#"+strconv.FormatInt(b.ID, 10)))
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBurgersUpdateCmd(a *app) *cobra.Command {
	var (
		f       burgerFlags
		ifMatch string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a burger",
		Long: `Update replaces every field of the burger. Unset flags keep their current value.

Pass --if-match with an ETag from "burgers get" to fail when someone else changed it first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cur, etag, err := c.Get(ctx, id)
			if err != nil {
				return err
			}
			if ifMatch != "" {
				etag = ifMatch
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				cur.Name = f.name
			}
			if flags.Changed("description") {
				cur.Description = f.description
			}
			if flags.Changed("price") {
				cur.Price = f.price
			}

			next, err := c.Update(ctx, cur, etag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return writeJSON(out, map[string]any{"burger": cur, "etag": next})
			}
			fmt.Fprintf(out, "updated %s %s\n", idColor("#"+strconv.FormatInt(id, 10)), dimColor(next))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&ifMatch, "if-match", "", "expected ETag (default: the one just read)")
	return cmd
}

func newBurgersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a burger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			b, err := c.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return writeJSON(out, b)
			}
			fmt.Fprintf(out, "deleted %s %s\n", idColor("#"+strconv.FormatInt(b.ID, 10)), b.Name)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid burger id %q", s)
	}
	return id, nil
}

func printBurger(w io.Writer, b burger.Burger) {
	fmt.Fprintf(w, "%s  %-24s %s", idColor(fmt.Sprintf("#%-4d", b.ID)), b.Name, priceColor(fmt.Sprintf("%8.2f", b.Price)))
	if b.Description != "" {
		fmt.Fprintf(w, "  %s", dimColor(b.Description))
	}
	fmt.Fprintln(w)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
