package config

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"nrgbot/models"
)

const (
	DefaultSyncIntervalMinutes = 30
	DefaultRoleSyncConcurrency = 1
)

type DiscordConfig struct {
	BotToken string
	AppID    string
	// GuildID scopes command deployment to a single guild when set
	GuildID string
}

// MissingKeys lists the required Discord environment variables that are unset
func (c DiscordConfig) MissingKeys() []string {
	return missingKeys(map[string]string{
		"DISCORD_BOT_TOKEN": c.BotToken,
		"DISCORD_APP_ID":    c.AppID,
	})
}

// IsConfigured returns true if all required Discord configuration is present
func (c DiscordConfig) IsConfigured() bool {
	return len(c.MissingKeys()) == 0
}

type SlackConfig struct {
	BotToken        string
	AppToken        string
	AlertWebhookURL string
}

// MissingKeys lists the required Slack environment variables that are unset.
// SLACK_ALERT_WEBHOOK_URL is optional and never reported.
func (c SlackConfig) MissingKeys() []string {
	return missingKeys(map[string]string{
		"SLACK_BOT_TOKEN": c.BotToken,
		"SLACK_APP_TOKEN": c.AppToken,
	})
}

// IsConfigured returns true if all required Slack configuration is present
func (c SlackConfig) IsConfigured() bool {
	return len(c.MissingKeys()) == 0
}

func missingKeys(values map[string]string) []string {
	var missing []string
	for key, value := range values {
		if value == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

type AppConfig struct {
	DatabaseURL         string
	DatabaseSchema      string
	Port                string
	CORSAllowedOrigins  string
	Environment         string
	WebAppURL           string
	SyncIntervalMinutes int
	RoleSyncConcurrency int
	EnabledPlatforms    []models.Platform
	UseStrictConfig     bool // If true, error when an enabled platform is not fully configured

	DiscordConfig DiscordConfig
	SlackConfig   SlackConfig
}

// IsPlatformEnabled reports whether the platform was listed in ENABLED_PLATFORMS
func (c *AppConfig) IsPlatformEnabled(platform models.Platform) bool {
	for _, p := range c.EnabledPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	syncInterval, err := getEnvInt("SYNC_INTERVAL_MINUTES", DefaultSyncIntervalMinutes)
	if err != nil {
		return nil, err
	}
	if syncInterval <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL_MINUTES must be positive, got %d", syncInterval)
	}

	concurrency, err := getEnvInt("ROLE_SYNC_CONCURRENCY", DefaultRoleSyncConcurrency)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("ROLE_SYNC_CONCURRENCY must be positive, got %d", concurrency)
	}

	platforms, err := parsePlatforms(getEnvWithDefault("ENABLED_PLATFORMS", "discord,slack"))
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		DatabaseURL:         databaseURL,
		DatabaseSchema:      databaseSchema,
		Port:                getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins:  getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:         getEnvWithDefault("ENVIRONMENT", "dev"),
		WebAppURL:           strings.TrimRight(getEnvWithDefault("WEB_APP_URL", ""), "/"),
		SyncIntervalMinutes: syncInterval,
		RoleSyncConcurrency: concurrency,
		EnabledPlatforms:    platforms,
		UseStrictConfig:     getEnvWithDefault("USE_STRICT_CONFIG", "false") == "true",

		DiscordConfig: DiscordConfig{
			BotToken: os.Getenv("DISCORD_BOT_TOKEN"),
			AppID:    os.Getenv("DISCORD_APP_ID"),
			GuildID:  os.Getenv("DISCORD_GUILD_ID"),
		},

		SlackConfig: SlackConfig{
			BotToken:        os.Getenv("SLACK_BOT_TOKEN"),
			AppToken:        os.Getenv("SLACK_APP_TOKEN"),
			AlertWebhookURL: os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
		},
	}

	if err := config.checkPlatforms(); err != nil {
		return nil, err
	}

	return config, nil
}

// checkPlatforms logs which enabled platforms are usable. Missing credentials
// only disable that platform unless strict config is requested.
func (c *AppConfig) checkPlatforms() error {
	if c.IsPlatformEnabled(models.PlatformDiscord) {
		if c.DiscordConfig.IsConfigured() {
			log.Printf("✅ Discord integration configured")
		} else {
			log.Printf("⚠️ Discord integration not configured (missing %s) - Discord features will be disabled",
				strings.Join(c.DiscordConfig.MissingKeys(), ", "))
			if c.UseStrictConfig {
				return fmt.Errorf("discord integration is not fully configured (USE_STRICT_CONFIG=true)")
			}
		}
	}

	if c.IsPlatformEnabled(models.PlatformSlack) {
		if c.SlackConfig.IsConfigured() {
			log.Printf("✅ Slack integration configured")
		} else {
			log.Printf("⚠️ Slack integration not configured (missing %s) - Slack features will be disabled",
				strings.Join(c.SlackConfig.MissingKeys(), ", "))
			if c.UseStrictConfig {
				return fmt.Errorf("slack integration is not fully configured (USE_STRICT_CONFIG=true)")
			}
		}
	}

	return nil
}

func parsePlatforms(raw string) ([]models.Platform, error) {
	var platforms []models.Platform
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		switch models.Platform(name) {
		case models.PlatformDiscord, models.PlatformSlack:
			platforms = append(platforms, models.Platform(name))
		default:
			return nil, fmt.Errorf("unknown platform %q in ENABLED_PLATFORMS", name)
		}
	}
	return platforms, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
