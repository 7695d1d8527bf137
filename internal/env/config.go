package env

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Host          string `env:"TSQ_HOST,default=127.0.0.1"`
	Port          int    `env:"TSQ_PORT,default=10011"`
	LoginName     string `env:"TSQ_LOGIN_NAME"`
	LoginPassword string `env:"TSQ_LOGIN_PASSWORD"`
	DebugHTTP     bool   `env:"TSQ_DEBUG_HTTP"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
