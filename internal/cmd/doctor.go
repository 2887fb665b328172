package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/db"
	"github.com/quantmind-br/debinstall/internal/fsops"
	"github.com/quantmind-br/debinstall/internal/helpers"
	"github.com/quantmind-br/debinstall/internal/syspkg"
	"github.com/quantmind-br/debinstall/internal/syspkg/dpkg"
	"github.com/quantmind-br/debinstall/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// doctorRunner is swapped out by tests
var doctorRunner helpers.CommandRunner = helpers.NewOSCommandRunner()

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system dependencies and configuration",
		Long:  `Check that dpkg and its helpers are available, the dpkg status database is readable, and the history database is accessible.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			fs := afero.NewOsFs()

			var issues []string
			var warnings []string
			missingCommand := false

			ui.PrintHeader("Required Commands")
			required := []string{cfg.Dpkg.Binary}
			if cfg.Dpkg.Lookup == syspkg.LookupQuery {
				required = append(required, cfg.Dpkg.QueryBinary)
			}
			if cfg.Dpkg.UseSudo && !helpers.IsRoot() {
				required = append(required, cfg.Dpkg.SudoBinary)
			}
			for _, name := range required {
				if doctorRunner.CommandExists(name) {
					ui.PrintSuccess("%s: found", name)
				} else {
					ui.PrintError("%s: NOT FOUND", name)
					issues = append(issues, fmt.Sprintf("Missing required command: %s", name))
					missingCommand = true
				}
			}

			ui.PrintHeader("Package Database")
			cache, err := dpkg.OpenStatusCache(fs, cfg.Dpkg.StatusFile, log)
			if err != nil {
				msg := fmt.Sprintf("Cannot read %s: %v", cfg.Dpkg.StatusFile, err)
				if cfg.Dpkg.Lookup == syspkg.LookupStatus {
					ui.PrintError("%s", msg)
					issues = append(issues, msg)
				} else {
					ui.PrintWarning("%s", msg)
					warnings = append(warnings, msg)
				}
			} else {
				ui.PrintSuccess("Status file: %s (%d packages)", cfg.Dpkg.StatusFile, cache.Len())
				installed, err := syspkg.IsInstalled(ctx, cache, "dpkg")
				switch {
				case err != nil:
					warnings = append(warnings, err.Error())
				case installed:
					ui.PrintSuccess("dpkg is registered as installed")
				default:
					ui.PrintWarning("dpkg is not registered as installed in %s", cfg.Dpkg.StatusFile)
					warnings = append(warnings, "dpkg missing from status database")
				}
				cache.Close()
			}

			ui.PrintHeader("Directories")
			dirs := []struct {
				path string
				name string
			}{
				{cfg.Paths.DataDir, "Data directory"},
				{filepath.Dir(cfg.Paths.DBFile), "Database directory"},
				{filepath.Dir(cfg.Paths.LogFile), "Log directory"},
			}
			for _, dir := range dirs {
				if checkDirectory(fs, dir.path) {
					ui.PrintSuccess("%s: %s", dir.name, dir.path)
				} else {
					ui.PrintWarning("%s: NOT WRITABLE (%s)", dir.name, dir.path)
					warnings = append(warnings, fmt.Sprintf("Directory not writable: %s", dir.path))
				}
			}

			ui.PrintHeader("History")
			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintWarning("Database: NOT ACCESSIBLE (%v)", err)
				warnings = append(warnings, fmt.Sprintf("Cannot open history database: %v", err))
			} else {
				installs, err := database.List(ctx)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("Cannot list history: %v", err))
				} else {
					ui.PrintSuccess("Database: %s (%d installations)", database.Path(), len(installs))
				}
				database.Close()
			}

			ui.PrintHeader("Summary")
			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintError("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
			}
			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(warnings))
				ui.PrintList(warnings)
			}

			log.Debug().Int("issues", len(issues)).Int("warnings", len(warnings)).Msg("doctor finished")

			if missingCommand {
				return fmt.Errorf("%w: system check failed with %d issue(s)", errCommandNotFound, len(issues))
			}
			if len(issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(issues))
			}
			return nil
		},
	}

	return cmd
}

// checkDirectory checks that a directory exists (creating it if needed) and is writable
func checkDirectory(fs afero.Fs, path string) bool {
	if !fsops.IsDir(fs, path) {
		if err := fsops.EnsureDir(fs, path, 0755); err != nil {
			return false
		}
	}
	return fsops.CheckWritable(fs, path) == nil
}

