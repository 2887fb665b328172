// Package session implements the package install session: the observable
// object a UI binds to in order to inspect, check and install a .deb archive.
package session

import (
	"context"
	"sync"

	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/debpkg"
	"github.com/quantmind-br/debinstall/internal/fsops"
	"github.com/quantmind-br/debinstall/internal/helpers"
	"github.com/quantmind-br/debinstall/internal/security"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// State is a point-in-time copy of every observable property
type State struct {
	FileName          string
	Valid             bool
	CanInstall        bool
	ChecksDone        bool
	Package           core.PackageInfo
	IsInstalled       bool
	InstalledVersion  string
	Status            core.Status
	StatusMessage     string
	StatusDetails     string
	PreInstallMessage string
}

// Deps are the collaborators a session delegates to
type Deps struct {
	Fs        afero.Fs
	Inspector core.Inspector
	// Lookup may be nil when no package database is available
	Lookup   core.StateLookup
	Checker  core.Checker
	Executor core.Executor
}

// reloader is implemented by lookups that cache the package database
type reloader interface {
	Reload() error
}

// Session mediates between a UI and the dpkg tooling for one archive at a time
type Session struct {
	deps   Deps
	logger *zerolog.Logger

	mu          sync.Mutex
	state       State
	generation  uint64
	checksDone  chan struct{}
	installDone chan struct{}
	lastResult  *core.InstallResult
	subs        map[int]*subscriber
	nextSub     int
}

// New creates an empty session
func New(deps Deps, log *zerolog.Logger) *Session {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	l := log.With().Str("component", "session").Logger()

	// Nothing selected yet: both waits return immediately
	checksDone := make(chan struct{})
	close(checksDone)
	installDone := make(chan struct{})
	close(installDone)

	return &Session{
		deps:        deps,
		logger:      &l,
		checksDone:  checksDone,
		installDone: installDone,
		subs:        make(map[int]*subscriber),
	}
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel of change events and a function that ends the
// subscription and closes the channel
func (s *Session) Subscribe() (<-chan Event, func()) {
	sub := newSubscriber()

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		sub.close()
	}
	return sub.out, cancel
}

// SetFileName selects a new archive. Derived fields are reset, metadata is
// read synchronously and the pre-install checks start in the background.
// Rejections are reported through the state, never as errors; the only error
// is ErrInstallInProgress. Reselecting the current valid file is a no-op.
func (s *Session) SetFileName(ctx context.Context, fileName string) error {
	if fileName == "" {
		return nil
	}

	path, err := helpers.NormalizePackagePath(fileName)
	if err != nil {
		path = fileName
	}

	s.mu.Lock()
	if s.state.Status == core.StatusInstalling {
		s.mu.Unlock()
		return core.ErrInstallInProgress
	}
	// A rejected path may be selected again once the file was fixed
	if path == s.state.FileName && s.state.Valid {
		s.mu.Unlock()
		return nil
	}

	s.generation++
	gen := s.generation
	checksDone := make(chan struct{})
	s.checksDone = checksDone
	s.lastResult = nil

	s.state = State{FileName: path}
	s.emitLocked(PropValid, PropCanInstall, PropPackageName, PropVersion, PropMaintainer,
		PropDescription, PropHomepage, PropInstalledSize, PropInstalledVersion, PropIsInstalled,
		PropStatus, PropStatusMessage, PropStatusDetails, PropPreInstallMessage)
	s.mu.Unlock()

	logger := s.logger.With().Str("file", path).Logger()

	if err != nil || security.ValidateArchivePath(path) != nil ||
		!fsops.IsRegularFile(s.deps.Fs, path) || !helpers.IsDebianPackage(s.deps.Fs, path) {
		logger.Info().Msg("rejected: not a debian package")
		s.reject(gen, checksDone, core.MsgNotDebianPackage)
		return nil
	}

	info, ok := debpkg.Extract(ctx, s.deps.Inspector, path)
	if !ok {
		logger.Info().Msg("rejected: archive could not be parsed")
		s.reject(gen, checksDone, core.MsgInvalidPackage)
		return nil
	}

	if err := security.ValidateVersion(info.Version); err != nil {
		logger.Warn().Err(err).Str("package", info.Name).Msg("archive carries a malformed version")
	}

	installed := s.lookupInstalled(ctx, info.Name)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	s.state.Valid = true
	s.state.Package = info
	if installed != nil {
		s.state.IsInstalled = installed.Installed
		s.state.InstalledVersion = installed.Version
	}
	s.emitLocked(PropValid, PropIsInstalled, PropInstalledVersion, PropPackageName, PropVersion,
		PropMaintainer, PropDescription, PropHomepage, PropInstalledSize, PropFileName)
	s.mu.Unlock()

	logger.Info().
		Str("package", info.Name).
		Str("version", info.Version).
		Bool("installed", installed != nil && installed.Installed).
		Msg("package parsed")

	go s.runChecks(context.WithoutCancel(ctx), gen, checksDone, path, info)
	return nil
}

// reject finishes a selection that failed validation
func (s *Session) reject(gen uint64, checksDone chan struct{}, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(checksDone)

	if gen != s.generation {
		return
	}
	s.state.Valid = false
	s.state.ChecksDone = true
	s.state.PreInstallMessage = message
	s.emitLocked(PropValid, PropPreInstallMessage, PropFileName)
}

func (s *Session) lookupInstalled(ctx context.Context, name string) *core.InstalledState {
	if s.deps.Lookup == nil {
		return nil
	}
	state, err := s.deps.Lookup.Lookup(ctx, name)
	if err != nil {
		s.logger.Warn().Err(err).Str("package", name).Msg("installed-state lookup failed")
		return nil
	}
	return state
}

func (s *Session) runChecks(ctx context.Context, gen uint64, checksDone chan struct{}, path string, info core.PackageInfo) {
	defer close(checksDone)

	result := s.deps.Checker.Check(ctx, path, info)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer selection replaced this one while the dry run was running
	if gen != s.generation {
		return
	}

	s.state.CanInstall = result.Installable
	s.state.ChecksDone = true
	if !result.Installable && s.state.PreInstallMessage == "" {
		s.state.PreInstallMessage = result.Message
		if s.state.PreInstallMessage == "" {
			s.state.PreInstallMessage = core.MsgCannotSatisfy
		}
	}

	s.logger.Info().
		Str("package", info.Name).
		Bool("can_install", result.Installable).
		Str("problem", result.Problem.String()).
		Msg("pre-install checks finished")

	s.emitLocked(PropCanInstall, PropPreInstallMessage)
}

// WaitChecks blocks until the pre-install checks for the current file finished
func (s *Session) WaitChecks(ctx context.Context) error {
	s.mu.Lock()
	done := s.checksDone
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Install starts the installer. It is a no-op returning false unless the
// archive is valid, installable, and no installation is running.
func (s *Session) Install(ctx context.Context) bool {
	s.mu.Lock()
	if !s.state.Valid || !s.state.CanInstall || s.state.Status == core.StatusInstalling {
		s.mu.Unlock()
		return false
	}

	gen := s.generation
	path := s.state.FileName
	installDone := make(chan struct{})
	s.installDone = installDone
	s.lastResult = nil

	s.state.Status = core.StatusInstalling
	s.state.StatusMessage = core.MsgStartingInstall
	s.state.StatusDetails = ""
	s.emitLocked(PropStatus, PropStatusMessage, PropStatusDetails, PropInstallStarted)
	s.mu.Unlock()

	s.logger.Info().Str("file", path).Msg("starting installation")

	events, err := s.deps.Executor.Start(context.WithoutCancel(ctx), path)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to start installer")
		s.finish(gen, installDone, core.InstallResult{ExitCode: -1, ErrorOutput: err.Error()})
		return true
	}

	go s.monitor(gen, installDone, events)
	return true
}

func (s *Session) monitor(gen uint64, installDone chan struct{}, events <-chan core.InstallEvent) {
	var result *core.InstallResult
	for ev := range events {
		if ev.Result != nil {
			result = ev.Result
			continue
		}
		if ev.Output == "" {
			continue
		}

		s.mu.Lock()
		if gen == s.generation {
			s.state.StatusDetails += ev.Output
			s.emitOutputLocked(ev.Output)
		}
		s.mu.Unlock()
	}

	if result == nil {
		result = &core.InstallResult{ExitCode: -1}
	}
	s.finish(gen, installDone, *result)
}

func (s *Session) finish(gen uint64, installDone chan struct{}, result core.InstallResult) {
	if result.Succeeded() {
		if r, ok := s.deps.Lookup.(reloader); ok {
			if err := r.Reload(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to reload package database")
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(installDone)

	s.lastResult = &result
	if gen != s.generation {
		return
	}

	if result.Succeeded() {
		s.state.Status = core.StatusSucceeded
		s.state.StatusMessage = core.MsgInstallSucceeded
		s.state.IsInstalled = true
		s.state.InstalledVersion = s.state.Package.Version
		s.emitLocked(PropStatus, PropStatusMessage, PropIsInstalled, PropInstalledVersion)
		s.logger.Info().Str("package", s.state.Package.Name).Msg("installation succeeded")
		return
	}

	// Output already relayed is in the log; only the remainder goes under the heading
	if result.ErrorOutput != "" {
		appended := "\n" + core.InstallErrorLogHeading + "\n" + result.ErrorOutput
		s.state.StatusDetails += appended
		s.emitOutputLocked(appended)
	}
	s.state.Status = core.StatusFailed
	s.state.StatusMessage = core.MsgInstallFailed
	s.emitLocked(PropStatus, PropStatusMessage)
	s.logger.Warn().
		Str("package", s.state.Package.Name).
		Int("exit_code", result.ExitCode).
		Bool("normal_exit", result.NormalExit).
		Msg("installation failed")
}

// WaitInstall blocks until the running installation finished and returns its
// result, or nil when no installation was started for the current file
func (s *Session) WaitInstall(ctx context.Context) (*core.InstallResult, error) {
	s.mu.Lock()
	done := s.installDone
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return nil, nil
	}
	result := *s.lastResult
	return &result, nil
}

func (s *Session) emitLocked(props ...Property) {
	if len(s.subs) == 0 {
		return
	}
	snap := s.state
	for _, p := range props {
		for _, sub := range s.subs {
			sub.push(Event{Property: p, State: snap})
		}
	}
}

func (s *Session) emitOutputLocked(output string) {
	snap := s.state
	for _, sub := range s.subs {
		sub.push(Event{Property: PropStatusDetails, State: snap, Output: output})
	}
}
