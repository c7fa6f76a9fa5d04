package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/cibuilder/internal/steps"
)

// Config represents the application configuration
type Config struct {
	Vcs   VcsConfig   `yaml:"vcs"`
	Build BuildConfig `yaml:"build"`
	Poll  PollConfig  `yaml:"poll,omitempty"`
}

// BuildConfig represents the main-role build configuration.
type BuildConfig struct {
	// ProjectRoot is the working directory the selected backend materializes
	// sources into. Owned exclusively by one build.
	ProjectRoot string `yaml:"project_root"`
	// ArtifactDir is where build artifacts (REPOSITORY_STATE.txt, step logs)
	// are collected.
	ArtifactDir string `yaml:"artifact_dir"`
	// Steps are the build steps executed between prepare and revert.
	Steps []steps.Step `yaml:"steps,omitempty"`
}

// PollConfig represents the poll-role configuration.
type PollConfig struct {
	// DBFile is the SQLite database remembering the last seen revision per
	// repository, so only new changes are reported.
	DBFile string `yaml:"db_file,omitempty"`
	// TriggerURL is requested once per newly detected change.
	TriggerURL string `yaml:"trigger_url,omitempty"`
	// MaxChanges caps how many new changes a single poll reports (0 = all).
	MaxChanges int `yaml:"max_changes,omitempty"`
	// IntervalSeconds is the watch-mode polling period.
	IntervalSeconds int `yaml:"interval_seconds,omitempty"`

	Nats NatsConfig `yaml:"nats,omitempty"`
}

// NatsConfig enables publishing detected changes to a NATS subject.
// Disabled unless a URL is configured.
type NatsConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Interval returns the watch-mode polling period, defaulting to one minute.
func (p PollConfig) Interval() time.Duration {
	if p.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(p.IntervalSeconds) * time.Second
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Build.ProjectRoot == "" {
		config.Build.ProjectRoot = "./temp"
	}
	if config.Build.ArtifactDir == "" {
		config.Build.ArtifactDir = "./artifacts"
	}
	if config.Poll.DBFile == "" {
		config.Poll.DBFile = "./poll.db"
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Vcs: VcsConfig{
			Type: VcsGit,
			Git: &GitSettings{
				Repo:    "https://github.com/example/project.git",
				Refspec: "main",
			},
		},
		Build: BuildConfig{
			ProjectRoot: "./temp",
			ArtifactDir: "./artifacts",
			Steps: []steps.Step{
				{Name: "Build", Command: []string{"make", "build"}, Critical: true},
				{Name: "Test", Command: []string{"make", "test"}},
			},
		},
		Poll: PollConfig{
			DBFile:          "./poll.db",
			IntervalSeconds: 60,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
