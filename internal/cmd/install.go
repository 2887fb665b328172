package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/db"
	"github.com/quantmind-br/debinstall/internal/helpers"
	"github.com/quantmind-br/debinstall/internal/session"
	"github.com/quantmind-br/debinstall/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// confirmInstall is swapped out by tests
var confirmInstall = ui.ConfirmInstall

// NewInstallCmd creates the install command
func NewInstallCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		yes         bool
		quiet       bool
		noHistory   bool
		timeoutSecs int
	)

	cmd := &cobra.Command{
		Use:   "install <package.deb>",
		Short: "Install a package",
		Long:  `Check a .deb archive with a dpkg dry run and install it with dpkg -i, relaying dpkg's output as it runs.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			sess, cleanup, err := newSession(cfg, log)
			if err != nil {
				ui.PrintError("%v", err)
				return err
			}
			defer cleanup()

			checkCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSecs)*time.Second)
			defer cancel()

			ui.PrintInfo("Checking %s...", args[0])
			state, err := loadPackage(checkCtx, sess, args[0])
			if err != nil {
				return err
			}
			printPackageState(state)

			if !state.Valid || !state.CanInstall {
				return rejectionError(state)
			}

			if state.IsInstalled && state.InstalledVersion == state.Package.Version {
				ui.PrintWarning("%s %s is already installed, it will be reinstalled", state.Package.Name, state.InstalledVersion)
			}

			if !yes {
				ok, err := confirmInstall(state.Package.Name, state.Package.Version)
				if err != nil {
					return err
				}
				if !ok {
					ui.PrintInfo("Installation cancelled")
					return ui.ErrCancelled
				}
			}

			events, unsubscribe := sess.Subscribe()
			defer unsubscribe()

			log.Info().
				Str("package", state.Package.Name).
				Str("version", state.Package.Version).
				Msg("starting installation")

			if !sess.Install(ctx) {
				return fmt.Errorf("%s: %w", state.Package.Name, core.ErrNotInstallable)
			}

			var spinner *ui.Spinner
			if quiet {
				spinner = ui.NewSpinner(core.MsgStartingInstall)
			}
			if err := relayInstall(ctx, cmd.OutOrStdout(), events, spinner); err != nil {
				ui.PrintWarning("stopped following dpkg output: %v", err)
				return err
			}
			if spinner != nil {
				spinner.Finish()
			}

			result, err := sess.WaitInstall(ctx)
			if err != nil {
				return err
			}
			final := sess.Snapshot()

			if !noHistory {
				recordInstall(ctx, cfg, log, final, result)
			}

			if final.Status != core.StatusSucceeded {
				ui.PrintError("%s", final.StatusMessage)
				// The spinner swallowed the log
				if quiet && final.StatusDetails != "" {
					io.WriteString(cmd.ErrOrStderr(), final.StatusDetails)
				}
				return fmt.Errorf("%s: %w", final.Package.Name, core.ErrInstallFailed)
			}

			ui.PrintSuccess("%s", final.StatusMessage)
			ui.PrintKeyValue("Package", final.Package.Name)
			ui.PrintKeyValue("Version", final.InstalledVersion)
			return nil
		},
	}

	cmd.ValidArgsFunction = completeDebFiles

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "show a spinner instead of dpkg output")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the installation in the history database")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 60, "inspection and check timeout in seconds")

	return cmd
}

// relayInstall copies dpkg output from the session to w (or feeds it to the
// spinner) until the session reports a final status
func relayInstall(ctx context.Context, w io.Writer, events <-chan session.Event, spinner *ui.Spinner) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Property {
			case session.PropStatusDetails:
				if ev.Output == "" || ev.State.Status != core.StatusInstalling {
					continue
				}
				if spinner != nil {
					spinner.Feed(ev.Output)
				} else {
					io.WriteString(w, ev.Output)
				}
			case session.PropStatus:
				if ev.State.Status == core.StatusSucceeded || ev.State.Status == core.StatusFailed {
					return nil
				}
			}
		}
	}
}

// recordInstall stores the attempt in the history database. Failures are
// logged and otherwise ignored.
func recordInstall(ctx context.Context, cfg *config.Config, log *zerolog.Logger, state session.State, result *core.InstallResult) {
	database, err := db.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		log.Warn().Err(err).Str("db", cfg.Paths.DBFile).Msg("failed to open history database")
		return
	}
	defer database.Close()

	record := &db.Install{
		InstallID:   helpers.GenerateInstallID(state.Package.Name),
		Package:     state.Package.Name,
		Version:     state.Package.Version,
		PackageFile: state.FileName,
		Status:      state.Status.String(),
		InstallDate: time.Now(),
		Log:         state.StatusDetails,
		Metadata: map[string]string{
			"maintainer":     state.Package.Maintainer,
			"description":    state.Package.Description,
			"homepage":       state.Package.Homepage,
			"installed_size": state.Package.InstalledSize,
		},
	}
	if result != nil {
		record.ExitCode = result.ExitCode
		record.Duration = result.Duration
	}

	if err := database.Create(ctx, record); err != nil {
		log.Warn().Err(err).Str("package", record.Package).Msg("failed to record installation")
		return
	}

	log.Debug().Str("install_id", record.InstallID).Msg("installation recorded")
}
