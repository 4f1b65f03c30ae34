package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

// LimitConfig - лимит для одного типа действия: не более Max запросов за Window
type LimitConfig struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type ConfigSchema struct {
	Databases struct {
		Master   DBConfig   `yaml:"master"`
		Replicas []DBConfig `yaml:"replicas"`
	} `yaml:"db"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
	Limits  map[string]LimitConfig `yaml:"limits"`
	Uploads struct {
		PerAlbumQuota int `yaml:"per_album_quota"`
	} `yaml:"uploads"`
	PasswordReset struct {
		MinDuration time.Duration `yaml:"min_duration"`
		MaxJitter   time.Duration `yaml:"max_jitter"`
		TokenTTL    time.Duration `yaml:"token_ttl"`
	} `yaml:"password_reset"`
}

var AppConfig *ConfigSchema

// DefaultLimits - лимиты по умолчанию, если в конфиге не указано иное
var DefaultLimits = map[string]LimitConfig{
	"registration":           {Max: 5, Window: time.Hour},
	"login":                  {Max: 10, Window: 15 * time.Minute},
	"comment":                {Max: 30, Window: time.Minute},
	"album_create":           {Max: 10, Window: time.Hour},
	"image_add":              {Max: 40, Window: time.Hour},
	"reaction":               {Max: 60, Window: time.Minute},
	"block":                  {Max: 20, Window: time.Minute},
	"mute":                   {Max: 20, Window: time.Minute},
	"watch":                  {Max: 30, Window: time.Minute},
	"friend_request":         {Max: 20, Window: time.Hour},
	"report":                 {Max: 5, Window: time.Hour},
	"password_reset":         {Max: 3, Window: time.Hour},
	"password_reset_confirm": {Max: 10, Window: time.Hour},
}

func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	conf := &ConfigSchema{}
	if err = yaml.Unmarshal(data, conf); err != nil {
		return err
	}
	ApplyDefaults(conf)
	AppConfig = conf
	return nil
}

// ApplyDefaults заполняет незаданные значения
func ApplyDefaults(conf *ConfigSchema) {
	if conf.Databases.Master.Port == 0 {
		conf.Databases.Master.Port = 5432
	}
	if conf.Redis.Host != "" && conf.Redis.Port == 0 {
		conf.Redis.Port = 6379
	}
	if conf.Backend.Port == 0 {
		conf.Backend.Port = 8080
	}
	if conf.Logs.Level == "" {
		conf.Logs.Level = "info"
	}
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		conf.RabbitMQ.URL = url
	}
	if conf.Limits == nil {
		conf.Limits = make(map[string]LimitConfig, len(DefaultLimits))
	}
	for action, limit := range DefaultLimits {
		current, ok := conf.Limits[action]
		if !ok || current.Max <= 0 || current.Window <= 0 {
			conf.Limits[action] = limit
		}
	}
	if conf.Uploads.PerAlbumQuota <= 0 {
		conf.Uploads.PerAlbumQuota = 4
	}
	if conf.PasswordReset.MinDuration <= 0 {
		conf.PasswordReset.MinDuration = 400 * time.Millisecond
	}
	if conf.PasswordReset.MaxJitter <= 0 {
		conf.PasswordReset.MaxJitter = 100 * time.Millisecond
	}
	if conf.PasswordReset.TokenTTL <= 0 {
		conf.PasswordReset.TokenTTL = time.Hour
	}
}
