package cmd

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/quantmind-br/debinstall/internal/config"
	"github.com/quantmind-br/debinstall/internal/db"
	"github.com/quantmind-br/debinstall/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, cfg *config.Config) {
	t.Helper()
	ctx := context.Background()
	database, err := db.New(ctx, cfg.Paths.DBFile)
	require.NoError(t, err)
	defer database.Close()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []db.Install{
		{InstallID: "foo-1", Package: "foo", Version: "1.2", PackageFile: "/debs/foo.deb", Status: "succeeded", InstallDate: base, Log: "Setting up foo (1.2) ...\n"},
		{InstallID: "libssl-1", Package: "libssl3", Version: "3.0.2", PackageFile: "/debs/libssl3.deb", Status: "failed", ExitCode: 1, InstallDate: base.Add(time.Hour)},
		{InstallID: "bar-1", Package: "bar", Version: "0.9", PackageFile: "/debs/bar.deb", Status: "succeeded", InstallDate: base.Add(2 * time.Hour)},
	}
	for i := range records {
		require.NoError(t, database.Create(ctx, &records[i]))
	}
}

func TestHistoryCmd_Empty(t *testing.T) {
	uiOut := quietUI(t)
	_, err := execute(NewHistoryCmd(testConfig(t), testLogger()))
	require.NoError(t, err)
	assert.Contains(t, uiOut.String(), "No installations recorded")
}

func TestHistoryCmd_Table(t *testing.T) {
	quietUI(t)
	cfg := testConfig(t)
	seedHistory(t, cfg)

	out, err := execute(NewHistoryCmd(cfg, testLogger()))
	require.NoError(t, err)
	assert.Contains(t, out, "foo")
	assert.Contains(t, out, "libssl3")
	assert.Contains(t, out, "bar-1")
}

func TestHistoryCmd_JSONWithFilters(t *testing.T) {
	quietUI(t)
	cfg := testConfig(t)
	seedHistory(t, cfg)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "all newest first", args: []string{"--json"}, want: []string{"bar", "libssl3", "foo"}},
		{name: "fuzzy query", args: []string{"lbssl", "--json"}, want: []string{"libssl3"}},
		{name: "status", args: []string{"--status", "succeeded", "--json"}, want: []string{"bar", "foo"}},
		{name: "limit", args: []string{"-n", "1", "--json"}, want: []string{"bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewHistoryCmd(cfg, testLogger()), tt.args...)
			require.NoError(t, err)

			var installs []db.Install
			require.NoError(t, json.Unmarshal([]byte(out), &installs))
			var names []string
			for _, i := range installs {
				names = append(names, i.Package)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestHistoryShowCmd(t *testing.T) {
	uiOut := quietUI(t)
	cfg := testConfig(t)
	seedHistory(t, cfg)

	out, err := execute(NewHistoryCmd(cfg, testLogger()), "show", "foo-1")
	require.NoError(t, err)
	assert.Contains(t, uiOut.String(), "foo 1.2")
	assert.Contains(t, uiOut.String(), "/debs/foo.deb")
	assert.Contains(t, out, "Setting up foo (1.2) ...")
}

func TestHistoryShowCmd_Select(t *testing.T) {
	uiOut := quietUI(t)
	cfg := testConfig(t)
	seedHistory(t, cfg)

	old := selectInstall
	selectInstall = func(_ string, options []ui.SelectOption) (int, ui.SelectOption, error) {
		require.Len(t, options, 3)
		return 1, options[1], nil
	}
	t.Cleanup(func() { selectInstall = old })

	_, err := execute(NewHistoryCmd(cfg, testLogger()), "show")
	require.NoError(t, err)
	assert.Contains(t, uiOut.String(), "libssl3 3.0.2")
}

func TestHistoryShowCmd_Missing(t *testing.T) {
	quietUI(t)
	_, err := execute(NewHistoryCmd(testConfig(t), testLogger()), "show", "nope")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestHistoryDeleteCmd(t *testing.T) {
	quietUI(t)
	cfg := testConfig(t)
	seedHistory(t, cfg)

	_, err := execute(NewHistoryCmd(cfg, testLogger()), "delete", "foo-1")
	require.NoError(t, err)

	installs := listHistory(t, cfg.Paths.DBFile)
	assert.Len(t, installs, 2)

	_, err = execute(NewHistoryCmd(cfg, testLogger()), "delete", "foo-1")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestFilterInstalls(t *testing.T) {
	installs := []db.Install{
		{Package: "foo", Version: "1.2", Status: "succeeded"},
		{Package: "foobar", Version: "2.0", Status: "failed"},
		{Package: "baz", Version: "1.0", Status: "succeeded"},
	}

	assert.Len(t, filterInstalls(installs, "", "", 0), 3)
	assert.Len(t, filterInstalls(installs, "foo", "", 0), 2)
	assert.Len(t, filterInstalls(installs, "foo", "FAILED", 0), 1)
	assert.Len(t, filterInstalls(installs, "", "", 2), 2)
	assert.Empty(t, filterInstalls(installs, "qux", "", 0))
}
