// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "trims values",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeySessionCookie, "  session-id=123; ubid=abc \n")
				writeFile(t, dir, KeyUserAgent, "Mozilla/5.0 test\n")
				return dir
			},
			want: map[string]string{
				KeySessionCookie: "session-id=123; ubid=abc",
				KeyUserAgent:     "Mozilla/5.0 test",
			},
		},
		{
			name: "missing directory is empty",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files, dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeySessionCookie, "c=1")
				writeFile(t, dir, "blank", " \n\t")
				writeFile(t, dir, ".gitkeep", "")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: map[string]string{KeySessionCookie: "c=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_UnreadableFileWarns(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions not enforced")
	}
	dir := t.TempDir()
	writeFile(t, dir, KeySessionCookie, "c=1")
	writeFile(t, dir, KeyUserAgent, "ua")
	require.NoError(t, os.Chmod(filepath.Join(dir, KeyUserAgent), 0o000))

	var buf bytes.Buffer
	orig := Warnings
	Warnings = &buf
	t.Cleanup(func() { Warnings = orig })

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeySessionCookie: "c=1"}, got)
	assert.Contains(t, buf.String(), KeyUserAgent)
}

func TestCredentialsFrom(t *testing.T) {
	c := CredentialsFrom(map[string]string{KeySessionCookie: "c=1"}, "default-ua")
	assert.Equal(t, Credentials{Cookie: "c=1", UserAgent: "default-ua"}, c)

	c = CredentialsFrom(map[string]string{KeyUserAgent: "custom"}, "default-ua")
	assert.Equal(t, Credentials{UserAgent: "custom"}, c)
}
