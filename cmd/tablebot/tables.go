package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/tablebot/internal/render"
	"github.com/matsen/tablebot/internal/session"
	"github.com/matsen/tablebot/internal/table"
)

var (
	tablesShowPage  int
	tablesDeleteYes bool
)

func init() {
	rootCmd.AddCommand(tablesCmd)
	tablesCmd.AddCommand(tablesListCmd)
	tablesCmd.AddCommand(tablesShowCmd)
	tablesCmd.AddCommand(tablesDeleteCmd)

	tablesShowCmd.Flags().IntVarP(&tablesShowPage, "page", "p", 1, "Page to show (20 rows per page)")
	tablesDeleteCmd.Flags().BoolVarP(&tablesDeleteYes, "yes", "y", false, "Delete without asking")
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect and maintain stored tables",
	Long: `Inspect and maintain stored tables without connecting to Discord.

A scope is the Discord server ID the tables belong to.`,
}

var tablesListCmd = &cobra.Command{
	Use:   "list <scope>",
	Short: "List the tables in a scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runTablesList,
}

var tablesShowCmd = &cobra.Command{
	Use:   "show <scope> <name>",
	Short: "Show one page of a table",
	Args:  cobra.ExactArgs(2),
	RunE:  runTablesShow,
}

var tablesDeleteCmd = &cobra.Command{
	Use:   "delete <scope> <name>",
	Short: "Delete a table",
	Long: `Delete a table permanently.

Without --yes the command asks for confirmation on stdin and deletes only
on an explicit yes.`,
	Args: cobra.ExactArgs(2),
	RunE: runTablesDelete,
}

func runTablesList(cmd *cobra.Command, args []string) error {
	scope := args[0]
	_, registry, closeStore := mustOpenRegistry(mustLoadConfig())
	defer closeStore()

	names, err := registry.List(context.Background(), scope)
	if err != nil {
		exitWithError(ExitError, "listing tables: %v", err)
	}

	if humanOutput {
		if len(names) == 0 {
			fmt.Println("No tables found.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}
	if names == nil {
		names = []string{}
	}
	return outputJSON(TableListResponse{Scope: scope, Tables: names})
}

func runTablesShow(cmd *cobra.Command, args []string) error {
	scope, name := args[0], args[1]
	ctx := context.Background()
	_, registry, closeStore := mustOpenRegistry(mustLoadConfig())
	defer closeStore()

	snap := mustSnapshot(ctx, registry, scope, name)
	p, err := pagerAt(name, snap, tablesShowPage)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("%s - Page %d/%d\n", name, p.Page(), p.TotalPages())
		fmt.Print(render.Table(snap.Columns, p.Rows()))
		return nil
	}
	return outputJSON(TablePageResponse{
		Scope:      scope,
		Table:      name,
		Page:       p.Page(),
		TotalPages: p.TotalPages(),
		Columns:    snap.Columns,
		Rows:       p.Rows(),
	})
}

func runTablesDelete(cmd *cobra.Command, args []string) error {
	scope, name := args[0], args[1]
	ctx := context.Background()
	_, registry, closeStore := mustOpenRegistry(mustLoadConfig())
	defer closeStore()

	// Fail before prompting if there is nothing to delete.
	mustSnapshot(ctx, registry, scope, name)

	confirmed := tablesDeleteYes
	if !confirmed {
		fmt.Fprintf(os.Stderr, "Permanently delete table %q in scope %s? [y/N]: ", name, scope)
		confirmed = readYes(os.Stdin)
	}

	outcome, err := deleteTable(ctx, registry, scope, name, confirmed)
	if err != nil {
		closeStore()
		exitWithError(ExitError, "deleting table: %v", err)
	}

	if humanOutput {
		if outcome == session.Confirmed {
			fmt.Printf("Deleted table '%s'\n", name)
		} else {
			fmt.Println("Deletion cancelled.")
		}
	} else {
		outputJSON(TableDeleteResponse{Scope: scope, Table: name, Outcome: outcome.String()})
	}
	if outcome != session.Confirmed {
		return errCancelled
	}
	return nil
}

// deleteTable runs the deletion behind a gate that confirmed resolves.
func deleteTable(ctx context.Context, registry *table.Registry, scope, name string, confirmed bool) (session.Outcome, error) {
	gate := session.NewGate(func(ctx context.Context) error {
		return registry.Delete(ctx, scope, name)
	})
	if !confirmed {
		gate.Cancel()
		return gate.Outcome(), nil
	}
	_, err := gate.Confirm(ctx)
	return gate.Outcome(), err
}

// mustSnapshot reads a table, exits on error.
func mustSnapshot(ctx context.Context, registry *table.Registry, scope, name string) table.Table {
	h, err := registry.Get(ctx, scope, name)
	if err != nil {
		if table.IsNotFound(err) {
			exitWithError(ExitNotFound, "table %q not found in scope %s", name, scope)
		}
		exitWithError(ExitError, "reading table: %v", err)
	}
	snap, err := h.Snapshot(ctx)
	if err != nil {
		exitWithError(ExitError, "reading table: %v", err)
	}
	return snap
}

// pagerAt returns a pager over t positioned at page.
func pagerAt(name string, t table.Table, page int) (*session.Pager, error) {
	p := session.NewPager(name, t)
	if page < 1 || page > p.TotalPages() {
		return nil, fmt.Errorf("page %d out of range (table has %d pages)", page, p.TotalPages())
	}
	for p.Page() < page {
		p.Next()
	}
	return p, nil
}

// readYes reads one line and reports whether it is an explicit yes.
func readYes(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
