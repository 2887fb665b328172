package cmd

import (
	"fmt"

	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/debpkg"
	"github.com/quantmind-br/debinstall/internal/installer"
	"github.com/quantmind-br/debinstall/internal/precheck"
	"github.com/quantmind-br/debinstall/internal/session"
	"github.com/quantmind-br/debinstall/internal/syspkg"
	"github.com/quantmind-br/debinstall/internal/syspkg/dpkg"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// sessionFactory builds a session for one command invocation. The returned
// cleanup releases whatever the session's collaborators hold open.
type sessionFactory func(cfg *config.Config, log *zerolog.Logger) (*session.Session, func(), error)

// newSession is swapped out by tests
var newSession sessionFactory = buildSession

func buildSession(cfg *config.Config, log *zerolog.Logger) (*session.Session, func(), error) {
	fs := afero.NewOsFs()

	inspector, err := newInspector(cfg, fs, log)
	if err != nil {
		return nil, nil, err
	}

	lookup, cleanup := newLookup(cfg, fs, log)

	deps := session.Deps{
		Fs:        fs,
		Inspector: inspector,
		Lookup:    lookup,
		Checker: precheck.NewDryRunChecker(precheck.Options{
			Binary:  cfg.Dpkg.Binary,
			Timeout: cfg.Dpkg.CheckTimeout,
			Lookup:  lookup,
		}, log),
		Executor: installer.NewDpkgExecutor(installer.Options{
			Binary:     cfg.Dpkg.Binary,
			UseSudo:    cfg.Dpkg.UseSudo,
			SudoBinary: cfg.Dpkg.SudoBinary,
		}, log),
	}
	return session.New(deps, log), cleanup, nil
}

func newInspector(cfg *config.Config, fs afero.Fs, log *zerolog.Logger) (core.Inspector, error) {
	switch cfg.Dpkg.Inspector {
	case "", "dpkg":
		return debpkg.NewDpkgInspector(cfg.Dpkg.Binary, cfg.Dpkg.InspectTimeout, log), nil
	case "native":
		return debpkg.NewNativeInspector(fs, log), nil
	default:
		return nil, fmt.Errorf("unknown inspector %q", cfg.Dpkg.Inspector)
	}
}

// newLookup opens the configured installed-state provider. A status file that
// cannot be read degrades to "installed state unknown" instead of failing.
func newLookup(cfg *config.Config, fs afero.Fs, log *zerolog.Logger) (syspkg.Provider, func()) {
	noop := func() {}

	if cfg.Dpkg.Lookup == syspkg.LookupQuery {
		return dpkg.NewQueryProvider(cfg.Dpkg.QueryBinary, cfg.Dpkg.InspectTimeout), noop
	}

	cache, err := dpkg.OpenStatusCache(fs, cfg.Dpkg.StatusFile, log)
	if err != nil {
		log.Warn().Err(err).Str("status_file", cfg.Dpkg.StatusFile).Msg(core.MsgCacheUnavailable)
		return nil, noop
	}
	return cache, func() { cache.Close() }
}
