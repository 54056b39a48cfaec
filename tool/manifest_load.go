package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// LoadResult is the outcome of LoadManifest. Err is set whenever the demo
// set was substituted for the file on disk.
type LoadResult struct {
	Manifest Manifest
	Path     string
	Fallback bool
	Err      error
}

// LoadManifest reads the manifest at path and substitutes DemoTools when it
// cannot be read. It never fails: the server must start and answer health
// checks before n8n has written its first manifest.
func LoadManifest(path string) LoadResult {
	manifest, err := ReadManifest(path)
	if err != nil {
		return LoadResult{
			Manifest: Manifest{Tools: DemoTools()},
			Path:     path,
			Fallback: true,
			Err:      err,
		}
	}
	return LoadResult{
		Manifest: manifest,
		Path:     path,
	}
}

// ReadManifest reads and decodes the manifest at path without any fallback.
// Every returned error wraps ErrManifestUnavailable.
//
// A manifest whose "tools" key is absent or null decodes to an empty tool
// set. A "tools" value that is present but not an array is a decode failure.
// An array element that does not decode into a descriptor is kept in place
// with DecodeErr set, so one bad entry never costs the other tools.
func ReadManifest(path string) (Manifest, error) {
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: reading %q: %v", ErrManifestUnavailable, path, err)
	}
	return DecodeManifest(data)
}

// DecodeManifest decodes manifest bytes with ReadManifest's rules.
func DecodeManifest(data []byte) (Manifest, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Manifest{}, fmt.Errorf("%w: manifest must be a JSON object: %v", ErrManifestUnavailable, err)
	}
	if top == nil {
		return Manifest{}, fmt.Errorf("%w: manifest must be a JSON object, got null", ErrManifestUnavailable)
	}

	var manifest Manifest
	if raw, ok := top["tools"]; ok && !isNullJSON(raw) {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return Manifest{}, fmt.Errorf("%w: tools must be an array: %v", ErrManifestUnavailable, err)
		}
		manifest.Tools = make([]ToolDescriptor, 0, len(entries))
		for _, entry := range entries {
			manifest.Tools = append(manifest.Tools, decodeDescriptor(entry))
		}
	}
	if manifest.Tools == nil {
		manifest.Tools = []ToolDescriptor{}
	}
	if raw, ok := top["lastUpdated"]; ok && !isNullJSON(raw) {
		// lastUpdated is informational only; a non-string value is ignored.
		_ = json.Unmarshal(raw, &manifest.LastUpdated)
	}
	return manifest, nil
}

func decodeDescriptor(entry json.RawMessage) ToolDescriptor {
	var desc ToolDescriptor
	if err := json.Unmarshal(entry, &desc); err != nil {
		// Keep whatever name is readable so the failure can be attributed.
		var named struct {
			Name any `json:"name"`
		}
		_ = json.Unmarshal(entry, &named)
		name := ""
		switch v := named.Name.(type) {
		case string:
			name = v
		case nil:
		default:
			name = fmt.Sprint(v)
		}
		return ToolDescriptor{Name: name, decodeErr: fmt.Errorf("invalid tool descriptor: %w", err)}
	}
	return desc
}

func isNullJSON(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
