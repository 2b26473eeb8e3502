package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortList(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{"80", []int{80}, false},
		{"80,443, 22", []int{80, 443, 22}, false},
		{"8000-8003,8001", []int{8000, 8001, 8002, 8003}, false},
		{"22,,23", []int{22, 23}, false},
		{"", nil, true},
		{"0", nil, true},
		{"65536", nil, true},
		{"90-80", nil, true},
		{"http", nil, true},
	}
	for _, tt := range tests {
		got, err := ParsePortList(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestIntSetDiff(t *testing.T) {
	assert.Equal(t, []int{22, 443}, IntSetDiff([]int{443, 80, 22}, []int{80}))
	assert.Nil(t, IntSetDiff([]int{80}, []int{80, 443}))
}

func TestLoadList(t *testing.T) {
	items, err := LoadList("root, admin ,,guest")
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "admin", "guest"}, items)

	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("# users\nroot\n\n admin \n"), 0o644))
	items, err = LoadList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "admin"}, items)
}
