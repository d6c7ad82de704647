package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at fresh temp dirs and clears TODO_* vars
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USER", "tester")
	for _, key := range []string{"TODO_API_URL", "TODO_ACCOUNT", "TODO_TIMEOUT", "TODO_LOG_FILE", "TODO_DEBUG"} {
		t.Setenv(key, "")
	}
	prevDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(project))
	t.Cleanup(func() { _ = os.Chdir(prevDir) })
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadDefaults(t *testing.T) {
	home, _ := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "tester", cfg.Account)
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Std())
	assert.Equal(t, filepath.Join(home, DirName, "logs", "todo-tui.log"), cfg.LogFile)
	assert.False(t, cfg.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestLoadGlobalJSON(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, DirName, "config.json"), `{"account":"alice","timeout":"5s"}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Account)
	assert.Equal(t, 5*time.Second, cfg.Timeout.Std())
	assert.Equal(t, DefaultAPIURL, cfg.APIURL, "unset fields keep their defaults")
}

func TestLoadProjectYAMLWinsOverGlobal(t *testing.T) {
	home, project := isolate(t)
	writeFile(t, filepath.Join(home, DirName, "config.json"), `{"account":"global"}`)
	writeFile(t, filepath.Join(project, DirName, "config.yaml"), "account: project\napi_url: http://localhost:3000\ndebug: true\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "project", cfg.Account)
	assert.Equal(t, "http://localhost:3000", cfg.APIURL)
	assert.True(t, cfg.Debug)
}

func TestEnvOverridesFile(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, DirName, "config.yml"), "account: from-file\n")
	t.Setenv("TODO_ACCOUNT", "from-env")
	t.Setenv("TODO_TIMEOUT", "2s")
	t.Setenv("TODO_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Account)
	assert.Equal(t, 2*time.Second, cfg.Timeout.Std())
	assert.True(t, cfg.Debug)
}

func TestInvalidEnvValuesFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("TODO_TIMEOUT", "soon")
	t.Setenv("TODO_DEBUG", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Std())
	assert.False(t, cfg.Debug)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, DirName, "config.json"), `{"timeout": 30}`)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty account", func(c *Config) { c.Account = "  " }, true},
		{"account with slash", func(c *Config) { c.Account = "a/b" }, true},
		{"relative url", func(c *Config) { c.APIURL = "/todo" }, true},
		{"ftp url", func(c *Config) { c.APIURL = "ftp://example.com" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{APIURL: DefaultAPIURL, Account: "alice", Timeout: Duration(time.Second)}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveToGlobalRoundTrips(t *testing.T) {
	home, _ := isolate(t)
	cfg := &Config{APIURL: "http://localhost:3000", Account: "alice", Timeout: Duration(10 * time.Second)}

	path, err := SaveToGlobal(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DirName, "config.json"), path)
	assert.Equal(t, path, Path())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Account)
	assert.Equal(t, "http://localhost:3000", loaded.APIURL)
	assert.Equal(t, 10*time.Second, loaded.Timeout.Std())
}

func TestSaveToProject(t *testing.T) {
	_, project := isolate(t)

	path, err := SaveToProject(&Config{APIURL: DefaultAPIURL, Account: "bob", Timeout: Duration(time.Second)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(DirName, "config.json"), path)
	assert.FileExists(t, filepath.Join(project, DirName, "config.json"))
}
