package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the config directory name, both in $HOME and in the project
	DirName = ".todo-tui"

	// DefaultAPIURL is the task store used when nothing else is configured
	DefaultAPIURL = "https://playground.4geeks.com/todo"

	// DefaultTimeout bounds each request to the task store
	DefaultTimeout = 30 * time.Second
)

// configFileNames are tried in order inside a config directory
var configFileNames = []string{"config.json", "config.yaml", "config.yml"}

// Config represents the user's configuration
type Config struct {
	APIURL  string   `json:"api_url" yaml:"api_url"`
	Account string   `json:"account" yaml:"account"` // Namespace of all tasks in the store
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	LogFile string   `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	Debug   bool     `json:"debug,omitempty" yaml:"debug,omitempty"` // Debug logging and the debug panel
}

// Duration is a time.Duration written as a string like "30s" in config files
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timeout must be a duration string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("timeout must be a duration string: %w", err)
	}
	*d = Duration(parsed)
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	account := os.Getenv("USER")
	if account == "" {
		account = "todo-tui"
	}
	return &Config{
		APIURL:  DefaultAPIURL,
		Account: account,
		Timeout: Duration(DefaultTimeout),
		LogFile: defaultLogFile(),
	}
}

// globalConfigDir returns the global config directory path (~/.todo-tui)
func globalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// projectConfigDir returns the project-level config directory (.todo-tui in cwd)
func projectConfigDir() string {
	return DirName
}

func defaultLogFile() string {
	dir, err := globalConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "todo-tui")
	}
	return filepath.Join(dir, "logs", "todo-tui.log")
}

// findConfigFile returns the first config file present in dir, or ""
func findConfigFile(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Path returns the config file Load would read, or "" if there is none
func Path() string {
	if path := findConfigFile(projectConfigDir()); path != "" {
		return path
	}
	dir, err := globalConfigDir()
	if err != nil {
		return ""
	}
	return findConfigFile(dir)
}

// Load builds the config from defaults, then the project or global config file,
// then TODO_* environment variables. It does not validate.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := Path(); path != "" {
		if err := readFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// readFile overlays the file at path onto cfg; the extension picks the format
func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func applyEnv(cfg *Config) {
	cfg.APIURL = envStr("TODO_API_URL", cfg.APIURL)
	cfg.Account = envStr("TODO_ACCOUNT", cfg.Account)
	cfg.Timeout = Duration(envDuration("TODO_TIMEOUT", cfg.Timeout.Std()))
	cfg.LogFile = envStr("TODO_LOG_FILE", cfg.LogFile)
	cfg.Debug = envBool("TODO_DEBUG", cfg.Debug)
}

// Validate checks that the config can be used to reach the store
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Account) == "" {
		return fmt.Errorf("account must not be empty")
	}
	if strings.Contains(c.Account, "/") {
		return fmt.Errorf("account must not contain '/', got %q", c.Account)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api url must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout.Std())
	}
	return nil
}

// SaveToProject writes the config to the project-level location (.todo-tui/config.json)
func SaveToProject(cfg *Config) (string, error) {
	return save(projectConfigDir(), cfg)
}

// SaveToGlobal writes the config to the global location (~/.todo-tui/config.json)
func SaveToGlobal(cfg *Config) (string, error) {
	dir, err := globalConfigDir()
	if err != nil {
		return "", err
	}
	return save(dir, cfg)
}

func save(dir string, cfg *Config) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "config.json")
	return path, os.WriteFile(path, data, 0644)
}
