package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"ai-impact/internal/github"
	"ai-impact/internal/jira"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira        jira.Config
	JiraProject string
	GitHub      github.Config
	DataPath    string
	SnapshotDir string
	ReportsDir  string
	PhasesFile  string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = "."
	}

	snapshotDir := filepath.Join(dataPath, "snapshots")
	reportsDir := filepath.Join(dataPath, "reports")
	for _, dir := range []string{snapshotDir, reportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create data directory")
		}
	}

	delaySecs, _ := strconv.Atoi(getEnv("JIRA_REQUEST_DELAY_SECONDS", "1"))

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:      getEnv("JIRA_URL", "https://issues.redhat.com"),
			Token:        getEnv("JIRA_API_TOKEN", ""),
			RequestDelay: time.Duration(delaySecs) * time.Second,
		},
		JiraProject: getEnv("JIRA_PROJECT_KEY", ""),
		GitHub: github.Config{
			Token: getEnv("GITHUB_TOKEN", ""),
			Owner: getEnv("GITHUB_REPO_OWNER", ""),
			Repo:  getEnv("GITHUB_REPO_NAME", ""),
		},
		DataPath:    dataPath,
		SnapshotDir: snapshotDir,
		ReportsDir:  reportsDir,
		PhasesFile:  getEnv("PHASES_FILE", filepath.Join("config", "phases.conf")),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
