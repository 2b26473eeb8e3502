package scan

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/config"
)

func TestParseBannerFlags(t *testing.T) {
	got, err := parseBannerFlags([]string{"80=Server: Apache/2.4.49", "22=SSH-2.0-OpenSSH_7.2p2 a=b"})
	require.NoError(t, err)
	assert.Equal(t, "Server: Apache/2.4.49", got[80])
	assert.Equal(t, "SSH-2.0-OpenSSH_7.2p2 a=b", got[22])

	for _, bad := range []string{"no-separator", "abc=x", "0=x", "70000=x"} {
		_, err := parseBannerFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParsePortsPrecedence(t *testing.T) {
	ports, err := parsePorts("22,80", "443", []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{22, 80}, ports)

	ports, err = parsePorts("", "443", []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{443}, ports)

	ports, err = parsePorts("", "", []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ports)

	_, err = parsePorts("99999", "", nil)
	assert.Error(t, err)
}

func TestForEachTargetBoundsConcurrency(t *testing.T) {
	targets := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}
	var running, peak, calls int32

	forEachTarget(context.Background(), targets, 2, func(ctx context.Context, ip string) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&calls, 1)
		atomic.AddInt32(&running, -1)
	})

	assert.Equal(t, int32(5), calls)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestBruteResultsRows(t *testing.T) {
	assert.Empty(t, bruteResults{}.Rows())
	assert.Equal(t, []string{"Target", "Service", "Username", "Password", "Risk"}, bruteResults{}.Headers())
}

func TestNewScanCmdRegistersSubcommands(t *testing.T) {
	cfg, err := config.LoadConfigOrDefault(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)

	cmd := NewScanCmd(Env{Config: func() *config.Config { return cfg }})
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "alive", "port", "cve", "dir", "brute"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("oj"))
}
