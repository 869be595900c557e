package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultInfo проверяет информацию о сборке по умолчанию
func TestDefaultInfo(t *testing.T) {
	info := DefaultInfo()

	assert.Equal(t, "N/A", info.Version)
	assert.Equal(t, "N/A", info.Date)
	assert.Equal(t, "N/A", info.Commit)
}

func TestNewInfo(t *testing.T) {
	tests := []struct {
		name                string
		version, date, hash string
		want                Info
	}{
		{
			name:    "All fields set",
			version: "v1.0.0", date: "2026-01-01", hash: "abc123",
			want: Info{Version: "v1.0.0", Date: "2026-01-01", Commit: "abc123"},
		},
		{
			name:    "Only version set",
			version: "v1.2.0",
			want:    Info{Version: "v1.2.0", Date: "N/A", Commit: "N/A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *NewInfo(tt.version, tt.date, tt.hash))
		})
	}
}

func TestInfo_Fields(t *testing.T) {
	fields := NewInfo("v1.0.0", "", "abc123").Fields()
	require.Len(t, fields, 3)

	got := map[string]string{}
	for _, f := range fields {
		got[f.Key] = f.String
	}
	assert.Equal(t, map[string]string{
		"version":    "v1.0.0",
		"build_date": "N/A",
		"commit":     "abc123",
	}, got)
}

func TestString(t *testing.T) {
	info := NewInfo("v1.0.0", "2026-01-01", "abc123")
	assert.Equal(t, "Version: v1.0.0, Date: 2026-01-01, Commit: abc123", info.String())
}
