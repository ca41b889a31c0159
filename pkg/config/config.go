package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Twilio     TwilioConfig
	AssemblyAI AssemblyAIConfig
	Airtable   AirtableConfig
	App        AppConfig
	Kafka      KafkaConfig
	Logger     LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// TwilioConfig only has to be present; the relay never calls the Twilio REST API.
type TwilioConfig struct {
	AccountSID  string `env:"TWILIO_ACCOUNT_SID" validate:"required,startsnotwith=your_"`
	AuthToken   string `env:"TWILIO_AUTH_TOKEN" validate:"required,startsnotwith=your_"`
	PhoneNumber string `env:"TWILIO_PHONE_NUMBER" validate:"required,startsnotwith=your_"`
}

type AssemblyAIConfig struct {
	APIKey       string `env:"ASSEMBLYAI_API_KEY" validate:"required,startsnotwith=your_"`
	BaseURL      string
	PollInterval time.Duration
}

type AirtableConfig struct {
	APIKey  string `env:"AIRTABLE_API_KEY" validate:"required,startsnotwith=your_"`
	BaseID  string `env:"AIRTABLE_BASE_ID" validate:"required,startsnotwith=your_"`
	BaseURL string
	Table   string
}

type AppConfig struct {
	SecretKey string `env:"APP_SECRET_KEY" validate:"required,startsnotwith=your_"`
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicAnalyzed string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables win in containers
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "120"))
	pollInterval, err := time.ParseDuration(getEnv("ASSEMBLYAI_POLL_INTERVAL", "3s"))
	if err != nil || pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	kafkaEnabled, _ := strconv.ParseBool(getEnv("KAFKA_ENABLED", "false"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Twilio: TwilioConfig{
			AccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
			PhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		},
		AssemblyAI: AssemblyAIConfig{
			APIKey:       getEnv("ASSEMBLYAI_API_KEY", ""),
			BaseURL:      getEnv("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
			PollInterval: pollInterval,
		},
		Airtable: AirtableConfig{
			APIKey:  getEnv("AIRTABLE_API_KEY", ""),
			BaseID:  getEnv("AIRTABLE_BASE_ID", ""),
			BaseURL: getEnv("AIRTABLE_BASE_URL", "https://api.airtable.com/v0"),
			Table:   getEnv("AIRTABLE_TABLE", "Transcripts"),
		},
		App: AppConfig{
			SecretKey: getEnv("APP_SECRET_KEY", ""),
		},
		Kafka: KafkaConfig{
			Enabled:       kafkaEnabled,
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			TopicAnalyzed: getEnv("KAFKA_TOPIC_ANALYZED", "eventflow.transcript.analyzed"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
