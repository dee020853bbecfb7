package configuration

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"mongo": {"uri": "mongodb://localhost:27017", "database": "chatapp"},
		"auth": {"jwtSecret": "s3cret"}
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if config.ChatDatabase.Uri != "mongodb://localhost:27017" {
		t.Errorf("uri = %q", config.ChatDatabase.Uri)
	}
	if config.ChatDatabase.ConversationsCollection != "conversations" {
		t.Errorf("conversations collection default = %q", config.ChatDatabase.ConversationsCollection)
	}
	if config.ChatDatabase.MessagesCollection != "messages" {
		t.Errorf("messages collection default = %q", config.ChatDatabase.MessagesCollection)
	}
	if config.ChatDatabase.UsersCollection != "users" {
		t.Errorf("users collection default = %q", config.ChatDatabase.UsersCollection)
	}
	if config.ChatDatabase.SocketRoute != "ws" {
		t.Errorf("socket route default = %q", config.ChatDatabase.SocketRoute)
	}
	if config.Server.AppPort != 8080 || config.Server.SocketPort != 8081 {
		t.Errorf("port defaults = (%d, %d)", config.Server.AppPort, config.Server.SocketPort)
	}
	if config.Cache.Addr != "" {
		t.Errorf("cache enabled without config: %q", config.Cache.Addr)
	}
}

func TestLoadConfigExplicitValues(t *testing.T) {
	path := writeConfigFile(t, `{
		"mongo": {
			"uri": "mongodb://db:27017",
			"database": "chatapp",
			"conversationsCollection": "convs",
			"socketRoute": "socket"
		},
		"redis": {"addr": "cache:6379", "database": 2},
		"server": {"app_port": 9090, "socket_port": 9091, "allowed_origins": ["http://localhost:4200"]}
	}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if config.ChatDatabase.ConversationsCollection != "convs" {
		t.Errorf("conversations collection = %q", config.ChatDatabase.ConversationsCollection)
	}
	if config.ChatDatabase.SocketRoute != "socket" {
		t.Errorf("socket route = %q", config.ChatDatabase.SocketRoute)
	}
	if config.Cache.Addr != "cache:6379" || config.Cache.Database != 2 {
		t.Errorf("redis config = %+v", config.Cache)
	}
	if config.Server.AppPort != 9090 || config.Server.SocketPort != 9091 {
		t.Errorf("ports = (%d, %d)", config.Server.AppPort, config.Server.SocketPort)
	}
	if len(config.Server.AllowedOrigins) != 1 {
		t.Errorf("allowed origins = %v", config.Server.AllowedOrigins)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `{
		"mongo": {"uri": "mongodb://db:27017", "database": "chatapp"},
		"auth": {"jwtSecret": "from-file"}
	}`)

	t.Setenv("MONGO_URI", "mongodb://override:27017")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("APP_PORT", "7070")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if config.ChatDatabase.Uri != "mongodb://override:27017" {
		t.Errorf("uri override ignored: %q", config.ChatDatabase.Uri)
	}
	if config.Auth.JwtSecret != "from-env" {
		t.Errorf("jwt secret override ignored: %q", config.Auth.JwtSecret)
	}
	if config.Server.AppPort != 7070 {
		t.Errorf("app port override ignored: %d", config.Server.AppPort)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing config file did not fail")
	}
}
