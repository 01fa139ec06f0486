// config.go: settings struct for wallshift and the functions to load and save it.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig contains settings for a log file.
type LogConfig struct {
	Enabled  bool   // true to enable this log
	Path     string // path to log file
	MaxSize  int64  // max log size in bytes before rotation
	Rotation string // rotation policy: daily, weekly or size
}

// Log rotation policies.
const (
	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)

// MainSettings contains top level settings.
type MainSettings struct {
	Name string    // name of this node
	Log  LogConfig // main log settings
}

// LibrarySettings describes the wallpaper collection on disk.
type LibrarySettings struct {
	Directories  []string // directories to index for wallpapers
	Recursive    bool     // recurse into subdirectories
	FavoritesDir string   // images under this path are marked favorite
	BatchSize    int      // database flush batch size during indexing
	Watch        bool     // watch directories and re-index on changes
	WatchDelay   int      // debounce delay for watcher triggered re-index, seconds
}

// TimeOfDaySchedule holds fixed period boundaries in "HH:MM" form, used when
// no coordinates are configured for sun-based boundaries.
type TimeOfDaySchedule struct {
	Dawn  string // start of dawn
	Day   string // start of day
	Dusk  string // start of dusk
	Night string // start of night
}

// TimeOfDaySettings configures time-of-day palette adaptation.
type TimeOfDaySettings struct {
	Enabled   bool              // true to bias selection toward time-appropriate palettes
	Latitude  float64           // latitude for sun event calculation
	Longitude float64           // longitude for sun event calculation
	Tolerance float64           // palette distance treated as a full mismatch
	Strength  float64           // multiplier range is [1/(1+strength), 1+strength]
	Schedule  TimeOfDaySchedule // fixed fallback period boundaries
}

// ExtractorSettings configures the external palette extractor.
type ExtractorSettings struct {
	Binary   string   // palette extractor binary, wallust by default
	Args     []string // extra arguments passed before the image path
	CacheDir string   // cache directory scanned for extraction artifacts
	Workers  int      // bounded concurrency for bulk extraction
	Timeout  int      // per-image extraction timeout, seconds
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Enabled bool   // true to enable the SQLite index
	Path    string // path to the database file
}

// OutputSettings wraps persistence outputs.
type OutputSettings struct {
	SQLite SQLiteSettings
}

// MetricsSettings configures the optional Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   // true to expose Prometheus metrics
	Listen  string // listen address for the metrics endpoint
}

// Settings is the root configuration for wallshift.
type Settings struct {
	Debug     bool // true to enable debug mode
	Main      MainSettings
	Library   LibrarySettings
	Selection SelectionConfig
	TimeOfDay TimeOfDaySettings
	Extractor ExtractorSettings
	Output    OutputSettings
	Metrics   MetricsSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and stores it as the package singleton.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// UpdateSettings swaps the settings singleton wholesale. Components hold the
// snapshot they were constructed with; this only affects later reads.
func UpdateSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = settings
}

// SaveSettings saves the current settings to the configuration file.
func SaveSettings() error {
	settingsMutex.RLock()
	settingsCopy := *settingsInstance
	settingsMutex.RUnlock()

	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// The write is atomic: marshal to a temp file, then rename over the original.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temp config file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return fmt.Errorf("error writing temp config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error closing temp config file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the configuration file search paths in
// priority order.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error resolving user config dir: %w", err)
	}
	return []string{
		filepath.Join(configDir, "wallshift"),
		".",
	}, nil
}

// FindConfigFile locates the active configuration file on disk.
func FindConfigFile() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}
	for _, dir := range configPaths {
		candidate := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no config file found")
}

// GetDefaultDatabasePath returns the default location of the profile database.
func GetDefaultDatabasePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "wallshift.db"
	}
	return filepath.Join(configDir, "wallshift", "wallshift.db")
}
