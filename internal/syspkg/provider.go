package syspkg

import (
	"context"
	"fmt"

	"github.com/quantmind-br/debinstall/internal/core"
)

// Provider answers installed-state questions against the system package database
type Provider interface {
	core.StateLookup
}

// Lookup kinds accepted by configuration
const (
	LookupStatus = "status"
	LookupQuery  = "query"
)

// IsInstalled is a convenience wrapper around Lookup
func IsInstalled(ctx context.Context, p core.StateLookup, pkgName string) (bool, error) {
	state, err := p.Lookup(ctx, pkgName)
	if err != nil {
		return false, fmt.Errorf("%s lookup %q: %w", p.Name(), pkgName, err)
	}
	return state != nil && state.Installed, nil
}
