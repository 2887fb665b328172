package precheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/helpers"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds the dry-run invocation
const DefaultTimeout = 5 * time.Second

// DryRunChecker decides installability from a single "dpkg --dry-run -i" run
// followed by a system safety check against essential packages
type DryRunChecker struct {
	runner  helpers.CommandRunner
	binary  string
	timeout time.Duration
	lookup  core.StateLookup
	logger  *zerolog.Logger
}

// Options configures a DryRunChecker
type Options struct {
	Binary  string
	Timeout time.Duration
	// Lookup is used by the system safety check; nil disables it
	Lookup core.StateLookup
}

// NewDryRunChecker creates a checker with the default command runner
func NewDryRunChecker(opts Options, log *zerolog.Logger) *DryRunChecker {
	return NewDryRunCheckerWithRunner(helpers.NewOSCommandRunner(), opts, log)
}

// NewDryRunCheckerWithRunner creates a checker with a custom command runner
func NewDryRunCheckerWithRunner(runner helpers.CommandRunner, opts Options, log *zerolog.Logger) *DryRunChecker {
	if opts.Binary == "" {
		opts.Binary = "dpkg"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	l := log.With().Str("component", "precheck").Logger()
	return &DryRunChecker{
		runner:  runner,
		binary:  opts.Binary,
		timeout: opts.Timeout,
		lookup:  opts.Lookup,
		logger:  &l,
	}
}

// Check runs the dry run and classifies any failure
func (c *DryRunChecker) Check(ctx context.Context, path string, info core.PackageInfo) core.CheckResult {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, stderr, err := c.runner.RunCommandWithOutput(runCtx, c.binary, "--dry-run", "-i", path)
	output := joinOutput(stdout, stderr)

	if err != nil {
		problem := Classify(output)
		c.logger.Info().
			Err(err).
			Str("package", info.Name).
			Str("problem", problem.String()).
			Msg("dry run rejected package")
		return core.CheckResult{
			Installable: false,
			Problem:     problem,
			Message:     MessageFor(problem),
			Output:      output,
		}
	}

	if essential := c.breaksEssential(ctx, info); essential != "" {
		c.logger.Warn().
			Str("package", info.Name).
			Str("essential", essential).
			Msg("package breaks or conflicts with an essential package")
		return core.CheckResult{
			Installable: false,
			Problem:     core.ProblemBreaksSystem,
			Message:     core.MsgBreaksSystem,
			Output:      output,
		}
	}

	return core.CheckResult{Installable: true, Problem: core.ProblemNone, Output: output}
}

// Classify maps dry-run output to a problem class. Conflicts are matched
// before dependencies since dpkg conflict reports can also mention depends.
func Classify(output string) core.CheckProblem {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "conflict"):
		return core.ProblemConflict
	case strings.Contains(lower, "depends"), strings.Contains(lower, "dependency"):
		return core.ProblemDependency
	default:
		return core.ProblemUnknown
	}
}

// MessageFor returns the user-facing diagnostic for a problem class
func MessageFor(problem core.CheckProblem) string {
	switch problem {
	case core.ProblemNone:
		return ""
	case core.ProblemDependency:
		return core.MsgUnmetDependencies
	case core.ProblemConflict:
		return core.MsgPackageConflicts
	case core.ProblemBreaksSystem:
		return core.MsgBreaksSystem
	default:
		return core.MsgCannotSatisfy
	}
}

// Relation is one alternative of a Debian relation field, e.g. "dpkg (<< 1.15.6)"
type Relation struct {
	Name    string
	Op      string
	Version string
}

// breaksEssential returns the first installed essential package that the
// archive's Breaks or Conflicts relations apply to. A versioned relation only
// applies when the installed version satisfies it.
func (c *DryRunChecker) breaksEssential(ctx context.Context, info core.PackageInfo) string {
	if c.lookup == nil {
		return ""
	}

	for _, rel := range ParseRelations(info.Breaks, info.Conflicts) {
		if rel.Name == info.Name {
			continue
		}
		state, err := c.lookup.Lookup(ctx, rel.Name)
		if err != nil {
			c.logger.Debug().Err(err).Str("relation", rel.Name).Msg("lookup failed")
			continue
		}
		if state == nil || !state.Installed || !state.Essential {
			continue
		}
		if rel.Op == "" {
			return rel.Name
		}

		satisfied, err := c.versionSatisfies(ctx, state.Version, rel.Op, rel.Version)
		if err != nil {
			c.logger.Debug().
				Err(err).
				Str("relation", rel.Name).
				Str("installed", state.Version).
				Msg("version comparison failed")
			continue
		}
		if satisfied {
			return rel.Name
		}
	}
	return ""
}

// versionSatisfies asks dpkg whether "installed op version" holds. Exit
// status 1 means it does not; any other failure is an error.
func (c *DryRunChecker) versionSatisfies(ctx context.Context, installed, op, version string) (bool, error) {
	if installed == "" {
		return false, fmt.Errorf("installed version unknown")
	}

	cmpCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.runner.RunCommand(cmpCtx, c.binary, "--compare-versions", installed, op, version)
	if err == nil {
		return true, nil
	}
	if c.runner.GetExitCode(err) == 1 {
		return false, nil
	}
	return false, err
}

// relationOps maps the operators allowed in relation fields to the ones
// dpkg --compare-versions accepts. "<" and ">" are the obsolete spellings of
// "<=" and ">=".
var relationOps = map[string]string{
	"<<": "<<",
	"<=": "<=",
	"=":  "=",
	">=": ">=",
	">>": ">>",
	"<":  "<=",
	">":  ">=",
}

// ParseRelations splits Debian relation fields such as
// "libfoo (>= 1.0), bar | baz:any" into their alternatives. Architecture
// qualifiers and restrictions are dropped; a relation with an unknown
// operator is skipped.
func ParseRelations(fields ...string) []Relation {
	var relations []Relation
	seen := make(map[Relation]bool)

	for _, field := range fields {
		for _, group := range strings.Split(field, ",") {
			for _, alt := range strings.Split(group, "|") {
				rel, ok := parseRelation(strings.TrimSpace(alt))
				if !ok || seen[rel] {
					continue
				}
				seen[rel] = true
				relations = append(relations, rel)
			}
		}
	}
	return relations
}

func parseRelation(alt string) (Relation, bool) {
	var rel Relation

	rel.Name = alt
	if idx := strings.IndexAny(alt, " (:["); idx >= 0 {
		rel.Name = alt[:idx]
	}
	if rel.Name == "" {
		return rel, false
	}

	open := strings.Index(alt, "(")
	if open < 0 {
		return rel, true
	}
	end := strings.Index(alt[open:], ")")
	if end < 0 {
		return rel, false
	}

	constraint := strings.TrimSpace(alt[open+1 : open+end])
	opEnd := strings.IndexFunc(constraint, func(r rune) bool {
		return r != '<' && r != '>' && r != '='
	})
	if opEnd <= 0 {
		return rel, false
	}

	op, ok := relationOps[constraint[:opEnd]]
	version := strings.TrimSpace(constraint[opEnd:])
	if !ok || version == "" {
		return rel, false
	}
	rel.Op = op
	rel.Version = version
	return rel, true
}

func joinOutput(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}
