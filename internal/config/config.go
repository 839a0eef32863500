// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config carries everything the bot and payment API need at startup.
type Config struct {
	DiscordToken          string
	AdminIDs              []string
	PremiumRoleID         string
	VerificationChannelID string
	GuildID               string

	HTTPPort      string
	OrdersFile    string
	CodesFile     string
	PaymentTarget string
	QueueSize     int
}

// Load reads the environment. Only the bot token has no default.
func Load() (*Config, error) {
	cfg := &Config{
		DiscordToken:          os.Getenv("DISCORD_BOT_TOKEN"),
		PremiumRoleID:         getEnvOrDefault("PREMIUM_ROLE_ID", ""),
		VerificationChannelID: getEnvOrDefault("VERIFICATION_CHANNEL_ID", ""),
		GuildID:               getEnvOrDefault("GUILD_ID", ""),
		HTTPPort:              getEnvOrDefault("PORT", "5000"),
		OrdersFile:            getEnvOrDefault("ORDERS_FILE", "orders.json"),
		CodesFile:             getEnvOrDefault("CODES_FILE", "redeem_codes.json"),
		PaymentTarget:         getEnvOrDefault("PAYMENT_TARGET", "number27"),
	}

	if cfg.DiscordToken == "" {
		return nil, errors.New("DISCORD_BOT_TOKEN is required")
	}

	for _, id := range strings.Split(getEnvOrDefault("ADMIN_IDS", ""), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.AdminIDs = append(cfg.AdminIDs, id)
		}
	}

	sizeStr := getEnvOrDefault("NOTIFY_QUEUE_SIZE", "128")
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 {
		return nil, errors.New("invalid NOTIFY_QUEUE_SIZE: " + sizeStr)
	}
	cfg.QueueSize = size

	return cfg, nil
}

// IsAdmin reports whether the user id belongs to a configured admin.
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
