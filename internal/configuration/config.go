package configuration

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type MongoConfig struct {
	Uri                     string `json:"uri"`
	Database                string `json:"database"`
	ConversationsCollection string `json:"conversationsCollection"`
	MessagesCollection      string `json:"messagesCollection"`
	UsersCollection         string `json:"usersCollection"`
	SocketRoute             string `json:"socketRoute"`
}

type RedisConfig struct {
	Addr     string `json:"addr"` // empty disables the cache
	Password string `json:"password"`
	Database int    `json:"database"`
}

type AuthConfig struct {
	JwtSecret string `json:"jwtSecret"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type Config struct {
	ChatDatabase MongoConfig  `json:"mongo"`
	Cache        RedisConfig  `json:"redis"`
	Auth         AuthConfig   `json:"auth"`
	Server       ServerConfig `json:"server"`
}

// LoadConfig reads the JSON config file and applies environment overrides.
// A .env file is honored when present; a missing one is not an error.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	if fromEnv := os.Getenv("CONFIG_PATH"); fromEnv != "" {
		configPath = fromEnv
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)

	return &config, nil
}

func applyEnvOverrides(config *Config) {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.ChatDatabase.Uri = uri
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Cache.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Cache.Password = password
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JwtSecret = secret
	}
	if port := os.Getenv("APP_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			config.Server.AppPort = parsed
		}
	}
	if port := os.Getenv("SOCKET_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			config.Server.SocketPort = parsed
		}
	}
}

func applyDefaults(config *Config) {
	if config.ChatDatabase.ConversationsCollection == "" {
		config.ChatDatabase.ConversationsCollection = "conversations"
	}
	if config.ChatDatabase.MessagesCollection == "" {
		config.ChatDatabase.MessagesCollection = "messages"
	}
	if config.ChatDatabase.UsersCollection == "" {
		config.ChatDatabase.UsersCollection = "users"
	}
	if config.ChatDatabase.SocketRoute == "" {
		config.ChatDatabase.SocketRoute = "ws"
	}
	if config.Server.AppPort == 0 {
		config.Server.AppPort = 8080
	}
	if config.Server.SocketPort == 0 {
		config.Server.SocketPort = 8081
	}
}
