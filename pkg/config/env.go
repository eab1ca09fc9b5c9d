// Package config loads the gateway's environment configuration, following
// the same "load .env, then read individual keys with defaults" shape the
// teacher's cmd/agent/main.go uses for its provider selection.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds every environment-configurable knob listed in the spec's
// "Environment configuration" table.
type Config struct {
	OpenAIAPIKey        string
	RealtimeModel       string
	DefaultVoice        string
	MaleVoice           string
	GoogleConfigURL     string
	ConfigTTL           time.Duration

	IdleHangupSecs    int
	IdleSendGoodbye   bool
	IdleGoodbyeLine   string

	NumberSilenceGrace time.Duration
	NumberMinDigits    int

	AutoDNCEnable      bool
	AutoDNCOnCNAM      bool
	AutoDNCOnlyPhrase  bool
	AutoDNCDigits      string
	AutoDNCGapMS       time.Duration
	AutoPressConf      float64
	AutoPressRateLimit time.Duration
	DNCHangupAfter     time.Duration
	DNCSayLine         string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioOutboundFrom string
	WebhookURL       string

	TelegramBotToken               string
	TelegramChatID                 string
	TelegramTZ                     string
	TelegramOutboundBotToken       string
	TelegramOutboundChatID         string
	TelegramOutboundAllowedChatID  string
	TelegramOutboundWebhookPath    string
	TelegramOutboundWebhookSecret  string

	OutboundCodeTTL time.Duration
	Port            string
}

// Load reads .env (best-effort, never fatal — matches cmd/agent/main.go's
// "Note: No .env file found" log-and-continue) and then populates Config
// from the process environment, falling back to the spec's stated defaults.
func Load(loadDotenv func() error) Config {
	if err := loadDotenv(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	return Config{
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		RealtimeModel:   getEnv("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview"),
		DefaultVoice:    getEnv("DEFAULT_VOICE", "alloy"),
		MaleVoice:       getEnv("MALE_VOICE", "verse"),
		GoogleConfigURL: os.Getenv("GOOGLE_CONFIG_URL"),
		ConfigTTL:       getEnvMillis("CONFIG_TTL_MS", 20*time.Second),

		IdleHangupSecs:  getEnvInt("IDLE_HANGUP_SECS", 180),
		IdleSendGoodbye: getEnvBool("IDLE_SEND_GOODBYE", true),
		IdleGoodbyeLine: getEnv("IDLE_GOODBYE_LINE", "I haven't heard anything in a while, so I'll let you go now. Goodbye!"),

		NumberSilenceGrace: getEnvMillis("NUMBER_SILENCE_GRACE_MS", 2500*time.Millisecond),
		NumberMinDigits:    getEnvInt("NUMBER_MIN_DIGITS", 10),

		AutoDNCEnable:      getEnvBool("AUTO_DNC_ENABLE", true),
		AutoDNCOnCNAM:      getEnvBool("AUTO_DNC_ON_CNAM", true),
		AutoDNCOnlyPhrase:  getEnvBool("AUTO_DNC_ONLY_ON_PHRASE", false),
		AutoDNCDigits:      getEnv("AUTO_DNC_DIGITS", "9,8"),
		AutoDNCGapMS:       getEnvMillis("AUTO_DNC_GAP_MS", 900*time.Millisecond),
		AutoPressConf:      getEnvFloat("AUTO_PRESS_CONFIDENCE", 0.90),
		AutoPressRateLimit: getEnvSeconds("AUTO_PRESS_RATE_LIMIT_SECS", 6*time.Hour),
		DNCHangupAfter:     getEnvMillis("DNC_HANGUP_AFTER", 4*time.Second),
		DNCSayLine:         getEnv("DNC_SAY_LINE", "You've been removed. Goodbye."),

		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioOutboundFrom: os.Getenv("TWILIO_OUTBOUND_FROM"),
		WebhookURL:         os.Getenv("WEBHOOK_URL"),

		TelegramBotToken:              os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:                os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramTZ:                    getEnv("TELEGRAM_TZ", "UTC"),
		TelegramOutboundBotToken:      os.Getenv("TELEGRAM_OUTBOUND_BOT_TOKEN"),
		TelegramOutboundChatID:        os.Getenv("TELEGRAM_OUTBOUND_CHAT_ID"),
		TelegramOutboundAllowedChatID: os.Getenv("TELEGRAM_OUTBOUND_ALLOWED_CHAT_ID"),
		TelegramOutboundWebhookPath:   getEnv("TELEGRAM_OUTBOUND_WEBHOOK_PATH", "/bot/webhook"),
		TelegramOutboundWebhookSecret: os.Getenv("TELEGRAM_OUTBOUND_WEBHOOK_SECRET"),

		OutboundCodeTTL: getEnvMillis("OUTBOUND_CODE_TTL_MS", 120*time.Second),
		Port:            getEnv("PORT", "8080"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func getEnvSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
