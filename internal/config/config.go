package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Storage locations
	DataDir  string `mapstructure:"DATA_DIR"`
	FilesDir string `mapstructure:"FILES_DIR"`

	// Attachment lifecycle
	DownloadGracePeriod time.Duration `mapstructure:"DOWNLOAD_GRACE_PERIOD"`
	MaxUploadBytes      int64         `mapstructure:"MAX_UPLOAD_BYTES"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("FILES_DIR", "attached-files")
	viper.SetDefault("DOWNLOAD_GRACE_PERIOD", "2s")
	viper.SetDefault("MAX_UPLOAD_BYTES", int64(100<<20)) // 100 MiB

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}
