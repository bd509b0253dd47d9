// Package config содержит логику чтения конфигурации сервиса обработки заказов.
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress        = "localhost:8080"
	defaultNotificationTopic = "order-confirmations"
)

// Config содержит параметры конфигурации сервиса обработки заказов.
type Config struct {
	RunAddress                 string `env:"RUN_ADDRESS"`
	DatabaseURI                string `env:"DATABASE_URI"`
	NotificationGatewayAddress string `env:"NOTIFICATION_GATEWAY_ADDRESS"`
	KafkaBrokers               string `env:"KAFKA_BROKERS"`
	NotificationTopic          string `env:"NOTIFICATION_TOPIC"`
	AuthSecret                 string `env:"AUTH_SECRET"`
	// IssueTokenFor задаёт оператора, для которого нужно выпустить токен и завершить работу.
	IssueTokenFor string
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory storage when empty")
	flag.StringVar(&cfg.NotificationGatewayAddress, "n", "", "notification gateway address")
	flag.StringVar(&cfg.KafkaBrokers, "k", "", "comma-separated kafka brokers for confirmation events")
	flag.StringVar(&cfg.NotificationTopic, "t", defaultNotificationTopic, "kafka topic for confirmation events")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for operator tokens, auth is disabled when empty")
	flag.StringVar(&cfg.IssueTokenFor, "o", "", "print an auth token for the given operator and exit")

	flag.Parse()

	override(&cfg.RunAddress, fromEnv.RunAddress)
	override(&cfg.DatabaseURI, fromEnv.DatabaseURI)
	override(&cfg.NotificationGatewayAddress, fromEnv.NotificationGatewayAddress)
	override(&cfg.KafkaBrokers, fromEnv.KafkaBrokers)
	override(&cfg.NotificationTopic, fromEnv.NotificationTopic)
	override(&cfg.AuthSecret, fromEnv.AuthSecret)

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.NotificationTopic == "" {
		cfg.NotificationTopic = defaultNotificationTopic
	}

	return cfg, nil
}

func override(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}

// Brokers возвращает список адресов брокеров Kafka.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
