package dpkg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultStatusFile is where dpkg keeps its database of package states
const DefaultStatusFile = "/var/lib/dpkg/status"

type statusEntry struct {
	name      string
	version   string
	state     string
	essential bool
}

// StatusCache is a read-only, in-memory view of the dpkg status database.
// It is opened explicitly and owned by whoever created it.
type StatusCache struct {
	fs     afero.Fs
	path   string
	logger *zerolog.Logger

	mu      sync.RWMutex
	entries map[string]core.InstalledState
	closed  bool
}

// OpenStatusCache parses the status file and returns a ready cache session
func OpenStatusCache(fs afero.Fs, path string, log *zerolog.Logger) (*StatusCache, error) {
	if path == "" {
		path = DefaultStatusFile
	}
	l := log.With().Str("component", "status-cache").Logger()
	c := &StatusCache{
		fs:     fs,
		path:   path,
		logger: &l,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Name returns the provider name
func (c *StatusCache) Name() string {
	return "dpkg-status"
}

// Reload re-reads the status file, e.g. after an installation changed it
func (c *StatusCache) Reload() error {
	f, err := c.fs.Open(c.path)
	if err != nil {
		return fmt.Errorf("open status file: %w", err)
	}
	defer f.Close()

	entries, err := parseStatus(f)
	if err != nil {
		return fmt.Errorf("parse status file %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.entries = entries
	c.closed = false
	c.mu.Unlock()

	c.logger.Debug().
		Str("path", c.path).
		Int("packages", len(entries)).
		Msg("status cache loaded")
	return nil
}

// Lookup returns the installed state of a package, or nil when dpkg does not know it
func (c *StatusCache) Lookup(_ context.Context, pkgName string) (*core.InstalledState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("status cache is closed")
	}

	state, ok := c.entries[pkgName]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// Len returns the number of known packages
func (c *StatusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close releases the parsed database
func (c *StatusCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.closed = true
	return nil
}

// parseStatus reads RFC822-style paragraphs. Multi-arch packages appear once
// per architecture; an installed instance wins over others.
func parseStatus(r io.Reader) (map[string]core.InstalledState, error) {
	entries := make(map[string]core.InstalledState)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var cur statusEntry
	flush := func() {
		if cur.name == "" {
			cur = statusEntry{}
			return
		}
		next := toInstalledState(cur)
		if prev, ok := entries[cur.name]; !ok || (!prev.Installed && (next.Installed || prev.Version == "")) {
			entries[cur.name] = next
		}
		cur = statusEntry{}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		// Continuation lines belong to multi-line fields we do not need
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Package":
			cur.name = value
		case "Version":
			cur.version = value
		case "Status":
			// "want flag state", e.g. "install ok installed"
			if fields := strings.Fields(value); len(fields) == 3 {
				cur.state = fields[2]
			}
		case "Essential":
			cur.essential = value == "yes"
		}
	}
	flush()

	return entries, scanner.Err()
}

func toInstalledState(e statusEntry) core.InstalledState {
	state := core.InstalledState{
		Installed: e.state == "installed",
		Essential: e.essential,
	}
	// Removed packages keep a Version line but have no current version
	if e.state != "not-installed" && e.state != "config-files" {
		state.Version = e.version
	}
	return state
}
