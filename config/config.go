package config

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config carries all externally-injected runtime settings. Credentials
// (bot token, admin chat) are never hardcoded; they arrive via environment.
type Config struct {
	ListenAddr      string
	DatabaseURL     string
	BotToken        string
	AdminChatID     string
	TelegramAPIBase string
	RatePerPoint    decimal.Decimal
	PointsPerAd     int64
	MinWithdrawal   decimal.Decimal
	SeedDemoData    bool
	AllowedOrigins  []string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig() // a missing .env is fine, env vars still apply

	viper.SetDefault("LISTEN_ADDR", ":3000")
	viper.SetDefault("TELEGRAM_API_BASE", "https://api.telegram.org")
	viper.SetDefault("RATE_PER_POINT", "0.05")
	viper.SetDefault("POINTS_PER_AD", 1)
	viper.SetDefault("MIN_WITHDRAWAL", "0.30")
	viper.SetDefault("SEED_DEMO_DATA", false)
	viper.SetDefault("ALLOWED_ORIGINS", "*")

	return &Config{
		ListenAddr:      viper.GetString("LISTEN_ADDR"),
		DatabaseURL:     viper.GetString("DATABASE_URL"),
		BotToken:        viper.GetString("BOT_TOKEN"),
		AdminChatID:     viper.GetString("ADMIN_CHAT_ID"),
		TelegramAPIBase: viper.GetString("TELEGRAM_API_BASE"),
		RatePerPoint:    mustDecimal(viper.GetString("RATE_PER_POINT"), "0.05"),
		PointsPerAd:     viper.GetInt64("POINTS_PER_AD"),
		MinWithdrawal:   mustDecimal(viper.GetString("MIN_WITHDRAWAL"), "0.30"),
		SeedDemoData:    viper.GetBool("SEED_DEMO_DATA"),
		AllowedOrigins:  strings.Split(viper.GetString("ALLOWED_ORIGINS"), ","),
	}
}

func mustDecimal(raw, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
