package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/infrastructure/history"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(getContainer ContainerFunc) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded agent runs",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(getContainer),
		newHistoryShowCommand(getContainer),
		newHistoryClearCommand(getContainer),
		newHistoryExportCommand(getContainer),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(getContainer ContainerFunc) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), getContainer, func(store *history.SQLiteStore) error {
				return listRuns(cmd.Context(), cmd.OutOrStdout(), store, limit)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max runs to show")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its transcript (id prefixes accepted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), getContainer, func(store *history.SQLiteStore) error {
				return showRun(cmd.Context(), cmd.OutOrStdout(), store, args[0])
			})
		},
	}
}

// newHistoryClearCommand creates the 'history clear' subcommand
func newHistoryClearCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), getContainer, func(store *history.SQLiteStore) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("failed to clear history: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
				return nil
			})
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(getContainer ContainerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export runs to a JSONL file (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), getContainer, func(store *history.SQLiteStore) error {
				return exportRuns(cmd.Context(), cmd.OutOrStdout(), store, args[0])
			})
		},
	}
}

func withHistory(ctx context.Context, getContainer ContainerFunc, fn func(*history.SQLiteStore) error) error {
	container, err := getContainer()
	if err != nil {
		return err
	}
	store, err := container.OpenHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func listRuns(ctx context.Context, out io.Writer, store *history.SQLiteStore, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be >= 1")
	}
	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %-7s  %-14s  %s\n",
			shortID(run.ID),
			runStatus(run),
			humanize.Time(run.StartedAt),
			truncate(run.Query, queryPreviewWidth))
	}
	return nil
}

func showRun(ctx context.Context, out io.Writer, store *history.SQLiteStore, id string) error {
	run, err := store.Run(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", id, err)
	}
	fmt.Fprint(out, buildRunTree(run).String())
	return nil
}

func buildRunTree(run domain.RunRecord) treeprint.Tree {
	tree := treeprint.NewWithRoot("run " + run.ID)
	tree.AddNode("query: " + run.Query)
	tree.AddNode("model: " + run.Model)
	tree.AddNode("status: " + runStatus(run))
	tree.AddNode(fmt.Sprintf("turns: %d", run.Turns))
	tree.AddNode(fmt.Sprintf("started: %s (%s)", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt)))
	tree.AddNode("duration: " + run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String())
	if run.Output != "" {
		tree.AddNode("output: " + truncate(run.Output, messagePreviewWidth))
	}
	if run.Error != "" {
		tree.AddNode("error: " + run.Error)
	}

	transcript := tree.AddBranch(fmt.Sprintf("messages (%d)", len(run.Messages)))
	for i, msg := range run.Messages {
		transcript.AddNode(fmt.Sprintf("%02d %s: %s", i, msg.Role, truncate(msg.Content, messagePreviewWidth)))
	}
	return tree
}

func exportRuns(ctx context.Context, out io.Writer, store *history.SQLiteStore, path string) error {
	if path == "-" {
		_, err := store.ExportJSON(ctx, out)
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	n, err := store.ExportJSON(ctx, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}
	fmt.Fprintf(out, "Exported %s to %s\n", humanize.Comma(int64(n))+" runs", path)
	return nil
}

func runStatus(run domain.RunRecord) string {
	if run.State == domain.StateAborted && run.AbortReason != domain.AbortNone {
		return string(run.AbortReason)
	}
	return string(run.State)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate collapses whitespace and cuts s to width runes.
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
