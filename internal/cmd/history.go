package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/db"
	"github.com/quantmind-br/debinstall/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// selectInstall is swapped out by tests
var selectInstall = ui.SelectPromptDetailed

// NewHistoryCmd creates the history command
func NewHistoryCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput bool
		status     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List recorded installations",
		Long:  `List installations recorded by debinstall, newest first. The optional query is fuzzy-matched against package names and versions.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			database, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			installs, err := database.List(ctx)
			if err != nil {
				ui.PrintError("failed to list history: %v", err)
				return fmt.Errorf("list installs: %w", err)
			}

			var query string
			if len(args) == 1 {
				query = args[0]
			}
			filtered := filterInstalls(installs, query, status, limit)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}

			if len(filtered) == 0 {
				if query != "" || status != "" {
					ui.PrintWarning("No installations found matching filters")
				} else {
					ui.PrintInfo("No installations recorded")
				}
				return nil
			}

			printHistoryTable(cmd.OutOrStdout(), filtered)
			log.Debug().Int("count", len(filtered)).Msg("listed history")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (succeeded, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries (0 for all)")

	cmd.AddCommand(newHistoryShowCmd(cfg, log))
	cmd.AddCommand(newHistoryDeleteCmd(cfg, log))

	return cmd
}

func newHistoryShowCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show [install-id]",
		Short: "Show one installation and its dpkg log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			database, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			install, err := resolveInstall(ctx, database, args)
			if err != nil {
				return err
			}

			ui.PrintHeader(fmt.Sprintf("%s %s", install.Package, install.Version))
			ui.PrintKeyValue("Install ID", install.InstallID)
			ui.PrintKeyValue("File", install.PackageFile)
			ui.PrintKeyValue("Status", ui.ColorizeStatus(install.Status))
			ui.PrintKeyValue("Exit code", fmt.Sprintf("%d", install.ExitCode))
			ui.PrintKeyValue("Date", install.InstallDate.Format("2006-01-02 15:04:05"))
			ui.PrintKeyValue("Duration", install.Duration.String())
			for _, key := range []string{"maintainer", "homepage", "installed_size"} {
				if v := install.Metadata[key]; v != "" {
					ui.PrintKeyValue(key, v)
				}
			}

			if install.Log != "" {
				ui.PrintHeader("dpkg output")
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(install.Log, "\n"))
			}

			log.Debug().Str("install_id", install.InstallID).Msg("showed history entry")
			return nil
		},
	}
}

func newHistoryDeleteCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <install-id>",
		Short: "Remove an installation from the history",
		Long:  `Remove a history record. The package itself stays installed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()

			database, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Delete(ctx, args[0]); err != nil {
				ui.PrintError("%v", err)
				return err
			}

			ui.PrintSuccess("Removed %s from history", args[0])
			log.Info().Str("install_id", args[0]).Msg("deleted history entry")
			return nil
		},
	}
}

func openHistory(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := db.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		ui.PrintError("failed to open database: %v", err)
		return nil, fmt.Errorf("%w: %w", errDatabase, err)
	}
	return database, nil
}

// resolveInstall finds the record named by args, or lets the user pick one
func resolveInstall(ctx context.Context, database *db.DB, args []string) (*db.Install, error) {
	if len(args) == 1 {
		install, err := database.Get(ctx, args[0])
		if err != nil {
			ui.PrintError("%v", err)
			return nil, err
		}
		return install, nil
	}

	installs, err := database.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installs: %w", err)
	}
	if len(installs) == 0 {
		ui.PrintInfo("No installations recorded")
		return nil, db.ErrNotFound
	}

	options := make([]ui.SelectOption, len(installs))
	for i, install := range installs {
		options[i] = ui.SelectOption{
			Label:  fmt.Sprintf("%s %s", install.Package, install.Version),
			Detail: fmt.Sprintf("%s, %s", install.Status, install.InstallDate.Format("2006-01-02 15:04")),
			Value:  install.InstallID,
		}
	}

	idx, _, err := selectInstall("Select installation", options)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil, err
		}
		return nil, fmt.Errorf("select installation: %w", err)
	}
	return &installs[idx], nil
}

// filterInstalls applies the fuzzy query, the status filter, and the limit
func filterInstalls(installs []db.Install, query, status string, limit int) []db.Install {
	filtered := make([]db.Install, 0, len(installs))

	for _, install := range installs {
		if status != "" && !strings.EqualFold(install.Status, status) {
			continue
		}
		if !ui.FuzzyMatch(query, install.Package+" "+install.Version) {
			continue
		}
		filtered = append(filtered, install)
		if limit > 0 && len(filtered) == limit {
			break
		}
	}

	return filtered
}

func printHistoryTable(w io.Writer, installs []db.Install) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Package", "Version", "Status", "Date", "Install ID"}),
		tablewriter.WithAlignment(tw.MakeAlign(5, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleLight)),
	)

	for _, install := range installs {
		table.Append(
			install.Package,
			orDash(install.Version),
			ui.ColorizeStatus(install.Status),
			install.InstallDate.Format("2006-01-02 15:04"),
			install.InstallID,
		)
	}

	table.Render()
}
