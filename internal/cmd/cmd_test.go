package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/session"
	"github.com/quantmind-br/debinstall/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const testDeb = "/debs/foo_1.2_amd64.deb"

var testFields = map[string]string{
	"Package":        "foo",
	"Version":        "1.2",
	"Maintainer":     "Jane <j@x>",
	"Description":    "Foo tool",
	"Homepage":       "https://foo.example",
	"Installed-Size": "2048",
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Paths: config.PathsConfig{
			DataDir: dir,
			DBFile:  filepath.Join(dir, "history.db"),
			LogFile: filepath.Join(dir, "debinstall.log"),
		},
		Logging: config.LoggingConfig{Level: "info", Color: "never"},
		Dpkg: config.DpkgConfig{
			Inspector:      "dpkg",
			Binary:         "dpkg",
			QueryBinary:    "dpkg-query",
			StatusFile:     filepath.Join(dir, "status"),
			Lookup:         "status",
			InspectTimeout: time.Second,
			CheckTimeout:   time.Second,
			SudoBinary:     "sudo",
		},
	}
}

func testLogger() *zerolog.Logger {
	log := zerolog.New(io.Discard)
	return &log
}

// stubSession makes commands build sessions from deps instead of real dpkg tooling
func stubSession(t *testing.T, deps session.Deps) {
	t.Helper()

	if deps.Fs == nil {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, testDeb, []byte("!<arch>\ndebian-binary"), 0644))
		require.NoError(t, afero.WriteFile(fs, "/docs/readme.txt", []byte("plain text\n"), 0644))
		deps.Fs = fs
	}
	if deps.Inspector == nil {
		deps.Inspector = &core.MockInspector{FieldFunc: func(_ context.Context, _, field string) string {
			return testFields[field]
		}}
	}
	if deps.Checker == nil {
		deps.Checker = &core.MockChecker{}
	}
	if deps.Executor == nil {
		deps.Executor = &core.MockExecutor{Result: core.InstallResult{NormalExit: true}}
	}

	old := newSession
	newSession = func(_ *config.Config, log *zerolog.Logger) (*session.Session, func(), error) {
		return session.New(deps, log), func() {}, nil
	}
	t.Cleanup(func() { newSession = old })
}

// quietUI silences ui output for the duration of a test
func quietUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldErr := ui.Stdout, ui.Stderr
	ui.Stdout, ui.Stderr = &buf, &buf
	ui.DisableColors()
	t.Cleanup(func() {
		ui.Stdout, ui.Stderr = oldOut, oldErr
		ui.EnableColors()
	})
	return &buf
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
