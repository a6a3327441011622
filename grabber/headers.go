package grabber

import (
	"encoding/json"
	"os"
)

// Headers are attached to every outbound request for the lifetime of a
// Grabber. Immutable after load.
type Headers map[string]string

// LoadHeaders reads a JSON object mapping header names to values.
// A missing or unreadable file is not fatal, requests just go out bare.
func LoadHeaders(path string) Headers {
	h := Headers{}
	if path == "" {
		return h
	}
	d, err := os.ReadFile(path)
	if err != nil {
		logger.Warnw("headers file not loaded", "path", path, "err", err)
		return Headers{}
	}
	if err := json.Unmarshal(d, &h); err != nil {
		logger.Warnw("headers file not loaded", "path", path, "err", err)
		return Headers{}
	}
	logger.Debugw("headers loaded", "path", path, "count", len(h))
	return h
}
