package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	cfg := Config{
		Port: getEnv("PORT", "8080"),

		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       getEnv("POSTGRES_DB", "nexus"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: getEnv("GO_ENV", "dev"),
	}

	pgPort := getEnv("POSTGRES_PORT", "5432")
	p, err := strconv.Atoi(pgPort)
	if err != nil {
		return Config{}, fmt.Errorf("POSTGRES_PORT must be number: %w", err)
	}
	cfg.PostgresPort = p

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
