// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files.
// The filename is the key and the trimmed contents are the value.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Keys the fetcher understands.
const (
	KeySessionCookie = "session-cookie"
	KeyUserAgent     = "user-agent"
)

// Warnings receives messages about files that could not be read.
var Warnings io.Writer = os.Stderr

// Credentials are the request credentials taken from the secrets directory.
type Credentials struct {
	Cookie    string
	UserAgent string
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty map.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(Warnings, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// CredentialsFrom picks the request credentials out of a loaded map.
// A user agent from the map overrides fallback.
func CredentialsFrom(m map[string]string, fallbackUA string) Credentials {
	c := Credentials{Cookie: m[KeySessionCookie], UserAgent: fallbackUA}
	if ua := m[KeyUserAgent]; ua != "" {
		c.UserAgent = ua
	}
	return c
}
