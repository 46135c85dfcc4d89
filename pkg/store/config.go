package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config selects and locates the store.
type Config interface {
	BasePath() string
	Driver() string
	// WatchFiles enables the filesystem watcher that reports changes made by
	// other processes.
	WatchFiles() bool
}

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultRetries  = 3
	DefaultBackoff  = 50 * time.Millisecond
)

// FileConfig is the full set of settings read from .journal.yaml and the
// JOURNAL_ environment. It satisfies Config.
type FileConfig struct {
	Path     string        `json:"path"`
	Backend  string        `json:"driver"`
	Watch    bool          `json:"watch"`
	Debounce time.Duration `json:"debounce"`
	Retries  int           `json:"retries"`
	Backoff  time.Duration `json:"backoff"`
	LogFile  string        `json:"logFile"`
	LogLevel string        `json:"logLevel"`
}

func (f *FileConfig) BasePath() string { return f.Path }
func (f *FileConfig) Driver() string   { return f.Backend }
func (f *FileConfig) WatchFiles() bool { return f.Watch }

// LoadConfig reads .journal.yaml from $JOURNAL_CONFIG_PATH, the working
// directory or $HOME, then applies JOURNAL_* environment overrides
// (JOURNAL_PATH, JOURNAL_DRAFT_DEBOUNCE, ...).
func LoadConfig() (*FileConfig, error) {
	return loadConfig(viper.New())
}

func loadConfig(v *viper.Viper) (*FileConfig, error) {
	v.SetDefault("path", "~/.journal")
	v.SetDefault("driver", DriverDiskv)
	v.SetDefault("watch", true)
	v.SetDefault("draft.debounce", DefaultDebounce)
	v.SetDefault("draft.retries", DefaultRetries)
	v.SetDefault("draft.backoff", DefaultBackoff)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "warn")

	v.SetConfigName(".journal") // .yaml is implicit
	v.SetEnvPrefix("JOURNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("JOURNAL_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}
	logFile := v.GetString("log.file")
	if logFile != "" {
		if logFile, err = homedir.Expand(logFile); err != nil {
			return nil, fmt.Errorf("store: expand log file: %w", err)
		}
	}

	cfg := &FileConfig{
		Path:     path,
		Backend:  v.GetString("driver"),
		Watch:    v.GetBool("watch"),
		Debounce: v.GetDuration("draft.debounce"),
		Retries:  v.GetInt("draft.retries"),
		Backoff:  v.GetDuration("draft.backoff"),
		LogFile:  logFile,
		LogLevel: v.GetString("log.level"),
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return cfg, nil
}
