package config

import (
	"os"

	"github.com/joho/godotenv"
)

// ServerEnv holds the HTTP API settings read from the environment.
type ServerEnv struct {
	Port         string
	LogLevel     string
	ClientOrigin string
	DBPath       string
}

// LoadServerEnv reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func LoadServerEnv(files ...string) ServerEnv {
	_ = godotenv.Load(files...)
	return ServerEnv{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DBPath:       getEnv("JEWELDUEL_DB", ""),
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
