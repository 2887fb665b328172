package dpkg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/helpers"
	"github.com/quantmind-br/debinstall/internal/security"
)

const queryFormat = "${db:Status-Abbrev}\t${Version}\t${Essential}\n"

// QueryProvider looks packages up through dpkg-query
type QueryProvider struct {
	runner  helpers.CommandRunner
	binary  string
	timeout time.Duration
}

// NewQueryProvider creates a new dpkg-query provider
func NewQueryProvider(binary string, timeout time.Duration) *QueryProvider {
	return NewQueryProviderWithRunner(helpers.NewOSCommandRunner(), binary, timeout)
}

// NewQueryProviderWithRunner creates a new dpkg-query provider with a custom command runner
func NewQueryProviderWithRunner(runner helpers.CommandRunner, binary string, timeout time.Duration) *QueryProvider {
	if binary == "" {
		binary = "dpkg-query"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QueryProvider{runner: runner, binary: binary, timeout: timeout}
}

// Name returns the provider name
func (p *QueryProvider) Name() string {
	return "dpkg-query"
}

// Lookup returns the installed state of a package, or nil when dpkg does not know it
func (p *QueryProvider) Lookup(ctx context.Context, pkgName string) (*core.InstalledState, error) {
	if err := security.ValidatePackageName(pkgName); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stdout, stderr, err := p.runner.RunCommandWithOutput(queryCtx, p.binary, "-W", "-f="+queryFormat, pkgName)
	if err != nil {
		// Exit code 1 with this message means the name is simply unknown
		if strings.Contains(strings.ToLower(stderr), "no packages found") {
			return nil, nil
		}
		return nil, fmt.Errorf("dpkg-query failed: %w", err)
	}

	return parseQueryOutput(stdout), nil
}

// parseQueryOutput picks the installed instance out of one line per architecture
func parseQueryOutput(output string) *core.InstalledState {
	var found *core.InstalledState

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}

		abbrev := strings.TrimSpace(parts[0])
		state := core.InstalledState{}
		if len(abbrev) >= 2 {
			// Second letter is the current state: i=installed, n=not, c=config-files
			switch abbrev[1] {
			case 'i':
				state.Installed = true
				state.Version = parts[1]
			case 'n', 'c':
			default:
				state.Version = parts[1]
			}
		}
		if len(parts) >= 3 {
			state.Essential = strings.TrimSpace(parts[2]) == "yes"
		}

		if state.Installed {
			return &state
		}
		if found == nil {
			s := state
			found = &s
		}
	}

	return found
}
