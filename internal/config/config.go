package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type TelegramGatewayConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Timeout int    `yaml:"timeout_seconds"` // таймаут на один вызов шлюза
	DryRun  bool   `yaml:"dry_run"`
}

type BotConfig struct {
	Token string `yaml:"token"`
}

type DefaultsConfig struct {
	WaitTimeMinutes int    `yaml:"wait_time_minutes"` // если страна не найдена
	MasterPassword  string `yaml:"master_password"`   // если не задан в настройках БД
}

type FilesConfig struct {
	RootDir string `yaml:"root_dir"`
}

type SchedulerConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"` // период прохода автоодобрения
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		AlertEmail   string `yaml:"alert_email"` // куда шлём фрод-алерты
	} `yaml:"email"`
	Telegram TelegramGatewayConfig `yaml:"telegram"`
	Bot      BotConfig             `yaml:"bot"`
	Defaults  DefaultsConfig        `yaml:"defaults"`
	Files     FilesConfig           `yaml:"files"`
	Scheduler SchedulerConfig       `yaml:"scheduler"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if cfg.Defaults.WaitTimeMinutes <= 0 {
		cfg.Defaults.WaitTimeMinutes = 1440
	}
	if cfg.Telegram.Timeout <= 0 {
		cfg.Telegram.Timeout = 30
	}
	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./files"
	}
	if cfg.Scheduler.IntervalMinutes <= 0 {
		cfg.Scheduler.IntervalMinutes = 5
	}
	return &cfg
}
