package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken          string
	DatabaseFile      string
	AdminUserID       int64
	AdminUsername     string
	ChannelUsername   string
	ReferralCap       int
	MinWithdrawPoints int
	BroadcastWorkers  int
	BroadcastTimeout  time.Duration
}

func Load() *Config {
	// Load .env if present, otherwise fall back to the process environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal("BOT_TOKEN environment variable is required")
	}

	adminIDRaw := os.Getenv("ADMIN_ID")
	if adminIDRaw == "" {
		log.Fatal("ADMIN_ID environment variable is required (Telegram user ID of the administrator)")
	}
	adminID, err := strconv.ParseInt(strings.TrimSpace(adminIDRaw), 10, 64)
	if err != nil {
		log.Fatalf("ADMIN_ID must be a numeric Telegram user ID: %v", err)
	}

	channel := strings.TrimSpace(os.Getenv("CHANNEL_USERNAME"))
	if channel == "" {
		log.Fatal("CHANNEL_USERNAME environment variable is required (channel users must join)")
	}
	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}

	adminUsername := strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	if adminUsername == "" {
		log.Fatal("ADMIN_USERNAME environment variable is required (contact shown to users claiming rewards)")
	}
	if !strings.HasPrefix(adminUsername, "@") {
		adminUsername = "@" + adminUsername
	}

	databaseFile := os.Getenv("DATABASE_FILE")
	if databaseFile == "" {
		databaseFile = "bot_users.db"
	}

	referralCap := 5
	if env := os.Getenv("REFERRAL_CAP"); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil && parsed > 0 {
			referralCap = parsed
		}
	}

	minWithdraw := 5
	if env := os.Getenv("MIN_WITHDRAW_POINTS"); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil && parsed > 0 {
			minWithdraw = parsed
		}
	}

	broadcastWorkers := 8
	if env := os.Getenv("BROADCAST_WORKERS"); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil && parsed > 0 {
			broadcastWorkers = parsed
		}
	}

	broadcastTimeout := 10 * time.Second
	if env := os.Getenv("BROADCAST_TIMEOUT_SECONDS"); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil && parsed > 0 {
			broadcastTimeout = time.Duration(parsed) * time.Second
		}
	}

	return &Config{
		BotToken:          botToken,
		DatabaseFile:      databaseFile,
		AdminUserID:       adminID,
		AdminUsername:     adminUsername,
		ChannelUsername:   channel,
		ReferralCap:       referralCap,
		MinWithdrawPoints: minWithdraw,
		BroadcastWorkers:  broadcastWorkers,
		BroadcastTimeout:  broadcastTimeout,
	}
}

func (c *Config) IsAdmin(userID int64) bool {
	return userID == c.AdminUserID
}
