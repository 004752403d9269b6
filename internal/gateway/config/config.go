package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries gateway settings. Values come from flags and the
// environment, with an optional .env file loaded first for local runs.
type Config struct {
	Port        string
	Env         string
	Provider    string
	Model       string
	Credential  string
	UsageLedger string
	SessionMax  int
	SessionTTL  time.Duration
}

func Load() (*Config, error) {
	// Load environment variables from a .env file if present.
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	// PORT from the environment wins over the flag default (container
	// runtimes set it). Accept both "8081" and ":8081".
	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	provider := strings.ToLower(firstNonEmpty(os.Getenv("SMELLCHECK_PROVIDER"), "groq"))

	return &Config{
		Port:        *port,
		Env:         env,
		Provider:    provider,
		Model:       strings.TrimSpace(os.Getenv("SMELLCHECK_MODEL")),
		Credential:  CredentialFor(provider),
		UsageLedger: strings.TrimSpace(os.Getenv("SMELLCHECK_USAGE_LEDGER")),
		SessionMax:  intFromEnv("SESSION_MAX", 256),
		SessionTTL:  durationFromEnv("SESSION_TTL", 30*time.Minute),
	}, nil
}

// CredentialFor resolves the API credential for a provider.
// SMELLCHECK_API_KEY wins; the provider's conventional variable is the
// fallback.
func CredentialFor(provider string) string {
	keys := []string{"SMELLCHECK_API_KEY"}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini":
		keys = append(keys, "GEMINI_API_KEY")
	default:
		keys = append(keys, "GROQ_API_KEY")
	}
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, os.Getenv(k))
	}
	return firstNonEmpty(values...)
}

func intFromEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
