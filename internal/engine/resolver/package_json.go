package resolver

import (
	"encoding/json"
	"log/slog"

	"modlink/internal/engine/fs"
)

// readPackageField returns a top-level string field of a package.json file.
// A missing file, malformed JSON or a non-string value all report false.
func readPackageField(fsys fs.FS, packageJSON, field string) (string, bool) {
	if !fs.IsFile(fsys, packageJSON) {
		return "", false
	}
	data, err := fsys.ReadFile(packageJSON)
	if err != nil {
		return "", false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		slog.Debug("ignoring malformed package.json", "path", packageJSON, "error", err)
		return "", false
	}
	raw, ok := fields[field]
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}
