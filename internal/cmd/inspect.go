package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/session"
	"github.com/quantmind-br/debinstall/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// inspectReport is the JSON shape of inspect's output
type inspectReport struct {
	File              string            `json:"file"`
	Valid             bool              `json:"valid"`
	CanInstall        bool              `json:"can_install"`
	Package           *core.PackageInfo `json:"package,omitempty"`
	IsInstalled       bool              `json:"is_installed"`
	InstalledVersion  string            `json:"installed_version,omitempty"`
	PreInstallMessage string            `json:"pre_install_message,omitempty"`
}

// NewInspectCmd creates the inspect command
func NewInspectCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput  bool
		timeoutSecs int
	)

	cmd := &cobra.Command{
		Use:   "inspect <package.deb>",
		Short: "Show package metadata and installability",
		Long:  `Read the control fields of a .deb archive, look up the installed version, and dry-run dpkg to report whether it can be installed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeoutSecs)*time.Second)
			defer cancel()

			sess, cleanup, err := newSession(cfg, log)
			if err != nil {
				ui.PrintError("%v", err)
				return err
			}
			defer cleanup()

			state, err := loadPackage(ctx, sess, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(newInspectReport(state)); err != nil {
					return err
				}
			} else {
				printPackageState(state)
			}

			if !state.Valid {
				return rejectionError(state)
			}
			return nil
		},
	}

	cmd.ValidArgsFunction = completeDebFiles

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 60, "inspection timeout in seconds")

	return cmd
}

// loadPackage selects the archive and waits for the pre-install checks
func loadPackage(ctx context.Context, sess *session.Session, path string) (session.State, error) {
	if err := sess.SetFileName(ctx, path); err != nil {
		ui.PrintError("%v", err)
		return session.State{}, err
	}
	if err := sess.WaitChecks(ctx); err != nil {
		ui.PrintError("pre-install checks did not finish: %v", err)
		return session.State{}, fmt.Errorf("wait for checks: %w", err)
	}
	return sess.Snapshot(), nil
}

func newInspectReport(state session.State) inspectReport {
	report := inspectReport{
		File:              state.FileName,
		Valid:             state.Valid,
		CanInstall:        state.CanInstall,
		IsInstalled:       state.IsInstalled,
		InstalledVersion:  state.InstalledVersion,
		PreInstallMessage: state.PreInstallMessage,
	}
	if state.Valid {
		pkg := state.Package
		report.Package = &pkg
	}
	return report
}

func printPackageState(state session.State) {
	ui.PrintHeader("Package")
	ui.PrintKeyValue("File", state.FileName)

	if !state.Valid {
		ui.PrintError("%s", trimErrorPrefix(state.PreInstallMessage))
		return
	}

	pkg := state.Package
	ui.PrintKeyValueColor("Name", pkg.Name, ui.Highlight)
	ui.PrintKeyValue("Version", orDash(pkg.Version))
	ui.PrintKeyValue("Maintainer", orDash(pkg.Maintainer))
	ui.PrintKeyValue("Description", orDash(pkg.Description))
	ui.PrintKeyValue("Homepage", orDash(pkg.Homepage))
	ui.PrintKeyValue("Installed-Size", orDash(pkg.InstalledSize))

	ui.PrintHeader("System")
	ui.PrintKeyValue("Installed", ui.ColorizeBool(state.IsInstalled))
	if state.IsInstalled {
		ui.PrintKeyValue("Installed version", orDash(state.InstalledVersion))
	}
	ui.PrintKeyValue("Can install", ui.ColorizeBool(state.CanInstall))
	if !state.CanInstall && state.PreInstallMessage != "" {
		ui.PrintError("%s", trimErrorPrefix(state.PreInstallMessage))
	}
}

func rejectionError(state session.State) error {
	switch {
	case state.PreInstallMessage == core.MsgNotDebianPackage:
		return fmt.Errorf("%s: %w", state.FileName, core.ErrNotDebianPackage)
	case !state.Valid:
		return fmt.Errorf("%s: %w", state.FileName, core.ErrInvalidPackage)
	default:
		return fmt.Errorf("%s: %w", state.Package.Name, core.ErrNotInstallable)
	}
}

// trimErrorPrefix drops the "Error: " prefix already printed by ui.PrintError
func trimErrorPrefix(msg string) string {
	return strings.TrimPrefix(msg, "Error: ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
