// Package buildCFG translates the loaded configuration tree into the typed
// settings each subsystem takes at construction.
package buildCFG

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"nemochat/internal/llm"
	"nemochat/internal/mailer"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type ChatConfig struct {
	SessionWindow int
	WSIdleTimeout time.Duration
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, errors.New("database.master_dsn is required")
	}
	slaveDSNs := cfg.GetStringSlice("database.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: cfg.GetDuration("database.conn_max_lifetime"),
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 5
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database configuration loaded")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return rc, errors.New("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "notifications"
	}
	if rc.Queue == "" {
		rc.Queue = "notifications.email"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configuration loaded")
	return rc, nil
}

func BuildLLMConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		Enabled: cfg.GetBool("llm.enabled"),
		BaseURL: cfg.GetString("llm.base_url"),
		APIKey:  cfg.GetString("llm.api_key"),
		Model:   cfg.GetString("llm.model"),
		Timeout: cfg.GetDuration("llm.timeout"),
	}
}

func BuildSMTPConfig(cfg *config.Config) mailer.Config {
	return mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetString("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
	}
}

func BuildChatConfig(cfg *config.Config) ChatConfig {
	cc := ChatConfig{
		SessionWindow: cfg.GetInt("chat.session_window"),
		WSIdleTimeout: cfg.GetDuration("chat.ws_idle_timeout"),
	}
	if cc.SessionWindow <= 0 {
		cc.SessionWindow = 20
	}
	if cc.WSIdleTimeout <= 0 {
		cc.WSIdleTimeout = 5 * time.Minute
	}
	return cc
}
