package debpkg

import (
	"context"
	"regexp"
	"strings"

	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/helpers"
)

// Control field names read from every archive
const (
	FieldPackage       = "Package"
	FieldVersion       = "Version"
	FieldMaintainer    = "Maintainer"
	FieldDescription   = "Description"
	FieldHomepage      = "Homepage"
	FieldInstalledSize = "Installed-Size"
	FieldBreaks        = "Breaks"
	FieldConflicts     = "Conflicts"
)

// MatchField finds "<field>: value" in control text and returns the trimmed
// value up to the end of its line
func MatchField(control, field string) string {
	re, err := regexp.Compile(`(?m)^[ \t]*` + regexp.QuoteMeta(field) + `:[ \t]*(.*)$`)
	if err != nil {
		return ""
	}
	match := re.FindStringSubmatch(control)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// Extract reads the metadata fields of an archive, one inspector call per field.
// ok is false when the inspector rejects the archive or it has no Package field.
func Extract(ctx context.Context, inspector core.Inspector, path string) (info core.PackageInfo, ok bool) {
	if !inspector.Validate(ctx, path) {
		return core.PackageInfo{}, false
	}

	info = core.PackageInfo{
		Name:        inspector.Field(ctx, path, FieldPackage),
		Version:     inspector.Field(ctx, path, FieldVersion),
		Maintainer:  inspector.Field(ctx, path, FieldMaintainer),
		Description: helpers.FirstLine(inspector.Field(ctx, path, FieldDescription)),
		Homepage:    inspector.Field(ctx, path, FieldHomepage),
		Breaks:      inspector.Field(ctx, path, FieldBreaks),
		Conflicts:   inspector.Field(ctx, path, FieldConflicts),
	}

	if raw := inspector.Field(ctx, path, FieldInstalledSize); raw != "" {
		info.InstalledSize = FormatInstalledSize(raw)
	}

	return info, info.Name != ""
}
