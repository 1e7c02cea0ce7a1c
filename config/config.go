package config

import (
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("port", "PORT")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("locales_dir", "LOCALES_DIR")
		viper.BindEnv("cache_file", "CACHE_FILE")
		viper.BindEnv("cache_ttl", "CACHE_TTL")
		viper.BindEnv("period_years", "PERIOD_YEARS")
		viper.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
		viper.BindEnv("fetch_workers", "FETCH_WORKERS")
		viper.BindEnv("indices_file", "INDICES_FILE")
		viper.BindEnv("refresh_interval", "REFRESH_INTERVAL")
		viper.BindEnv("yahoo_base_url", "YAHOO_BASE_URL")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")

		viper.SetDefault("port", 8000)
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("locales_dir", "locales")
		viper.SetDefault("cache_file", "cagr_cache.json")
		viper.SetDefault("cache_ttl", 24*time.Hour)
		viper.SetDefault("period_years", 10)
		viper.SetDefault("fetch_timeout", 30*time.Second)
		viper.SetDefault("fetch_workers", 4)
		viper.SetDefault("indices_file", "")
		viper.SetDefault("refresh_interval", time.Hour)
		viper.SetDefault("yahoo_base_url", "https://query1.finance.yahoo.com")
	})
}

// BindFlag lets a command line flag override the env value for key.
func BindFlag(key string, flag *pflag.Flag) error {
	InitConfig()
	return viper.BindPFlag(key, flag)
}

func Set(key string, value interface{}) {
	InitConfig()
	viper.Set(key, value)
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}
