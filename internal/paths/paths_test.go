package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDirsLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is linux-specific")
	}

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		fn       func() (string, error)
		envVar   string
		fallback string
	}{
		{
			name:     "config dir honors XDG_CONFIG_HOME",
			fn:       DefaultConfigDir,
			envVar:   "XDG_CONFIG_HOME",
			fallback: filepath.Join(home, ".config", "labki"),
		},
		{
			name:     "data dir honors XDG_DATA_HOME",
			fn:       DefaultDataDir,
			envVar:   "XDG_DATA_HOME",
			fallback: filepath.Join(home, ".local", "share", "labki"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, "/srv/xdg")
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, filepath.Join("/srv/xdg", "labki"), got)

			t.Setenv(tt.envVar, "")
			got, err = tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.fallback, got)
		})
	}
}

func TestDefaultDirsDarwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only layout")
	}

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	want := filepath.Join(home, "Library", "Application Support", "labki")

	for name, fn := range map[string]func() (string, error){
		"config": DefaultConfigDir,
		"data":   DefaultDataDir,
	} {
		got, err := fn()
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestResolveConfigDirPrecedence(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string // empty means the platform default
	}{
		{
			name: "explicit flag beats the environment",
			flag: "/etc/labki-conf",
			env:  "/srv/env-conf",
			want: "/etc/labki-conf",
		},
		{
			name: "environment used when no flag is given",
			env:  "/srv/env-conf",
			want: "/srv/env-conf",
		},
		{
			name: "platform default when nothing is set",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			if tt.want == "" {
				assert.True(t, strings.HasSuffix(got, "labki"), "resolved %s", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDirPrecedence(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name      string
		flag      string
		configVal string
		env       string
		want      string
	}{
		{
			name:      "explicit flag beats everything",
			flag:      "/var/flag-data",
			configVal: "/var/config-data",
			env:       "/var/env-data",
			want:      "/var/flag-data",
		},
		{
			name:      "config file value beats the environment",
			configVal: "/var/config-data",
			env:       "/var/env-data",
			want:      "/var/config-data",
		},
		{
			name: "environment used when flag and config are empty",
			env:  "/var/env-data",
			want: "/var/env-data",
		},
		{
			name: "checkout-local default when nothing is set",
			want: filepath.Join(cwd, DefaultDataDirName),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.configVal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativeOverridesBecomeAbsolute(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(t *testing.T) (string, error)
	}{
		{
			name: "config dir flag",
			resolve: func(t *testing.T) (string, error) {
				t.Setenv(EnvConfigDir, "")
				return ResolveConfigDir("rel/config")
			},
		},
		{
			name: "config dir environment",
			resolve: func(t *testing.T) (string, error) {
				t.Setenv(EnvConfigDir, "rel/config")
				return ResolveConfigDir("")
			},
		},
		{
			name: "data dir flag",
			resolve: func(t *testing.T) (string, error) {
				t.Setenv(EnvDataDir, "")
				return ResolveDataDir("rel/data", "")
			},
		},
		{
			name: "data dir config value",
			resolve: func(t *testing.T) (string, error) {
				t.Setenv(EnvDataDir, "")
				return ResolveDataDir("", "rel/data")
			},
		},
		{
			name: "data dir environment",
			resolve: func(t *testing.T) (string, error) {
				t.Setenv(EnvDataDir, "rel/data")
				return ResolveDataDir("", "")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resolve(t)
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(got), "resolved %s", got)
		})
	}
}
