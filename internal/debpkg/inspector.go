package debpkg

import (
	"context"
	"time"

	"github.com/quantmind-br/debinstall/internal/helpers"
	"github.com/quantmind-br/debinstall/internal/security"
	"github.com/rs/zerolog"
)

// DefaultInspectTimeout bounds every inspector invocation
const DefaultInspectTimeout = 5 * time.Second

// DpkgInspector reads control metadata by shelling out to dpkg
type DpkgInspector struct {
	runner  helpers.CommandRunner
	binary  string
	timeout time.Duration
	logger  *zerolog.Logger
}

// NewDpkgInspector creates an inspector with the default command runner
func NewDpkgInspector(binary string, timeout time.Duration, log *zerolog.Logger) *DpkgInspector {
	return NewDpkgInspectorWithRunner(helpers.NewOSCommandRunner(), binary, timeout, log)
}

// NewDpkgInspectorWithRunner creates an inspector with a custom command runner
func NewDpkgInspectorWithRunner(runner helpers.CommandRunner, binary string, timeout time.Duration, log *zerolog.Logger) *DpkgInspector {
	if binary == "" {
		binary = "dpkg"
	}
	if timeout <= 0 {
		timeout = DefaultInspectTimeout
	}
	l := log.With().Str("component", "inspector").Logger()
	return &DpkgInspector{
		runner:  runner,
		binary:  binary,
		timeout: timeout,
		logger:  &l,
	}
}

// Name returns the inspector name
func (d *DpkgInspector) Name() string {
	return "dpkg"
}

// Validate runs "dpkg -I <file>" and reports whether it exited 0
func (d *DpkgInspector) Validate(ctx context.Context, path string) bool {
	_, ok := d.run(ctx, "-I", path)
	return ok
}

// Field runs "dpkg -I <file> control" and extracts a single field from the output
func (d *DpkgInspector) Field(ctx context.Context, path, field string) string {
	if err := security.ValidateFieldName(field); err != nil {
		d.logger.Warn().Err(err).Msg("refusing to query field")
		return ""
	}

	output, ok := d.run(ctx, "-I", path, "control")
	if !ok {
		return ""
	}
	return MatchField(output, field)
}

func (d *DpkgInspector) run(ctx context.Context, args ...string) (string, bool) {
	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	output, err := d.runner.RunCommand(runCtx, d.binary, args...)
	if err != nil {
		d.logger.Debug().
			Err(err).
			Strs("args", args).
			Msg("dpkg inspection failed")
		return "", false
	}
	return output, true
}
