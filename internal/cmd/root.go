package cmd

import (
	"context"
	"errors"

	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debinstall",
		Short: "Inspect and install Debian packages",
		Long: `Inspect a .deb archive, check whether dpkg can install it on this system,
and install it while relaying dpkg's output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewInspectCmd(cfg, log))
	cmd.AddCommand(NewInstallCmd(cfg, log))
	cmd.AddCommand(NewHistoryCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}

// ExitCodeFor maps a command error to the process exit code
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return core.ExitSuccess
	case errors.Is(err, core.ErrNotDebianPackage), errors.Is(err, core.ErrInvalidPackage):
		return core.ExitInvalidArgs
	case errors.Is(err, core.ErrNotInstallable):
		return core.ExitNotInstallable
	case errors.Is(err, core.ErrInstallFailed):
		return core.ExitInstallFailed
	case errors.Is(err, errDatabase):
		return core.ExitDatabase
	case errors.Is(err, errCommandNotFound):
		return core.ExitCommandNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, ui.ErrCancelled):
		return core.ExitInterrupted
	default:
		return core.ExitGeneral
	}
}

var (
	errDatabase        = errors.New("history database unavailable")
	errCommandNotFound = errors.New("required command not found")
)
