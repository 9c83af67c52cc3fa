package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API_BASE_URL      string
	WS_URL            string
	KAFKA_ADDRESS     string
	KAFKA_TOPIC       string
	STATE_DB_PATH     string
	LOG_LEVEL         string
	HTTP_TIMEOUT      time.Duration
	VALIDATE_INTERVAL time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		API_BASE_URL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		WS_URL:            getEnv("WS_URL", "ws://localhost:8080/ws"),
		KAFKA_ADDRESS:     os.Getenv("KAFKA_ADDRESS"),
		KAFKA_TOPIC:       getEnv("KAFKA_TOPIC", "cart_events"),
		STATE_DB_PATH:     getEnv("STATE_DB_PATH", "shopclient.db"),
		LOG_LEVEL:         getEnv("LOG_LEVEL", "info"),
		HTTP_TIMEOUT:      getDuration("HTTP_TIMEOUT_SECONDS", 10*time.Second),
		VALIDATE_INTERVAL: getDuration("VALIDATE_INTERVAL_SECONDS", 5*time.Minute),
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		log.Printf("Notice: invalid %s=%q, using default", key, v)
		return fallback
	}
	return time.Duration(secs) * time.Second
}
