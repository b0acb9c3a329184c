package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultTrelloBaseURL  = "https://api.trello.com/1"
	DefaultCardsPath      = "config/cards.yaml"
	DefaultLogDir         = "logs"
	DefaultLogLevel       = "info"
	DefaultWeekStartDay   = "monday"
	DefaultListPosition   = "top"
	DefaultRequestsPer10s = 90
	DefaultPort           = "8080"
	DefaultGinMode        = "release"
)

// Config armazena as configurações da aplicação
type Config struct {
	TrelloAPIKey   string
	TrelloAPIToken string
	TrelloBoardID  string
	TrelloBaseURL  string
	RequestsPer10s int

	CardsPath    string
	WeekStartDay string
	ListPosition string

	LogDir   string
	LogLevel string
	LogJSON  bool

	NotifyWebhookURL string

	// Serve mode
	Port         string
	GinMode      string
	TokenAPI     string
	TokenAPIHash string
}

// ErrMissingCredentials indica que uma credencial obrigatória do Trello não foi configurada
var ErrMissingCredentials = fmt.Errorf("%w: credenciais do Trello ausentes", model.ErrInvalidConfiguration)

// ErrMissingAPIToken indica que o modo serve não tem token de API configurado
var ErrMissingAPIToken = errors.New("TOKEN_API ou TOKEN_API_HASH não configurado")

// Load carrega .env (diretório atual, depois o do executável) e lê o
// ambiente. Variables already set in the environment are never overridden.
func Load() (*Config, error) {
	_ = godotenv.Load()
	if exe, err := os.Executable(); err == nil {
		envPath := filepath.Join(filepath.Dir(exe), ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv and validates it
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TrelloAPIKey:     strings.TrimSpace(getenv("TRELLO_API_KEY")),
		TrelloAPIToken:   strings.TrimSpace(getenv("TRELLO_API_TOKEN")),
		TrelloBoardID:    strings.TrimSpace(getenv("TRELLO_BOARD_ID")),
		TrelloBaseURL:    withDefault(getenv("TRELLO_BASE_URL"), DefaultTrelloBaseURL),
		CardsPath:        withDefault(getenv("CARDS_YAML_PATH"), DefaultCardsPath),
		WeekStartDay:     strings.ToLower(withDefault(getenv("WEEK_START_DAY"), DefaultWeekStartDay)),
		ListPosition:     strings.ToLower(withDefault(getenv("LIST_POSITION"), DefaultListPosition)),
		LogDir:           withDefault(getenv("LOG_DIR"), DefaultLogDir),
		LogLevel:         withDefault(getenv("LOG_LEVEL"), DefaultLogLevel),
		NotifyWebhookURL: strings.TrimSpace(getenv("NOTIFY_WEBHOOK_URL")),
		Port:             withDefault(getenv("PORT"), DefaultPort),
		GinMode:          withDefault(getenv("GIN_MODE"), DefaultGinMode),
		TokenAPI:         getenv("TOKEN_API"),
		TokenAPIHash:     getenv("TOKEN_API_HASH"),
		RequestsPer10s:   DefaultRequestsPer10s,
	}

	if v := strings.TrimSpace(getenv("LOG_JSON")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: LOG_JSON=%q não é booleano", model.ErrInvalidConfiguration, v)
		}
		cfg.LogJSON = b
	}

	if v := strings.TrimSpace(getenv("REQUESTS_PER_10S")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			return nil, fmt.Errorf("%w: REQUESTS_PER_10S=%q deve estar entre 1 e 100", model.ErrInvalidConfiguration, v)
		}
		cfg.RequestsPer10s = n
	}

	var missing []string
	if cfg.TrelloAPIKey == "" {
		missing = append(missing, "TRELLO_API_KEY")
	}
	if cfg.TrelloAPIToken == "" {
		missing = append(missing, "TRELLO_API_TOKEN")
	}
	if cfg.TrelloBoardID == "" {
		missing = append(missing, "TRELLO_BOARD_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	return cfg, nil
}

// ValidateServe checks the settings only the HTTP server needs
func (c *Config) ValidateServe() error {
	if c.TokenAPI == "" && c.TokenAPIHash == "" {
		return ErrMissingAPIToken
	}
	return nil
}

func withDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
