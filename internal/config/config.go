package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Approval modes.
const (
	ApprovalSimulated = "simulated"
	ApprovalExternal  = "external"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka settings.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	GroupPrefix   string
	BookingTopic  string
	ApprovalTopic string
}

// RabbitConfig holds RabbitMQ settings. An empty URL disables the notification exchange.
type RabbitConfig struct {
	URL      string
	Exchange string
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

// StageDelays are the simulated approver delays for one priority track.
type StageDelays struct {
	GD    time.Duration
	DS    time.Duration
	Admin time.Duration
}

// ApprovalConfig selects how stages get decided.
type ApprovalConfig struct {
	Mode     string
	Urgent   StageDelays
	Standard StageDelays
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port                        string
	AppEnv                      string
	StoreDriver                 string
	VenueCatalogPath            string
	HistoryLimit                int
	NotificationDefaultDuration time.Duration
	DBConfig                    DatabaseConfig
	KafkaConfig                 KafkaConfig
	RabbitConfig                RabbitConfig
	TracingConfig               TracingConfig
	ApprovalConfig              ApprovalConfig
}

// Load reads configuration from environment variables prefixed with BOOKING_.
// A .env file in the working directory is loaded first when present.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &ServiceConfig{
		Port:                        v.GetString("SERVICE_PORT"),
		AppEnv:                      v.GetString("APP_ENV"),
		StoreDriver:                 strings.ToLower(v.GetString("STORE_DRIVER")),
		VenueCatalogPath:            v.GetString("VENUE_CATALOG_PATH"),
		HistoryLimit:                v.GetInt("HISTORY_LIMIT"),
		NotificationDefaultDuration: v.GetDuration("NOTIFICATION_DEFAULT_DURATION"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Enabled:       v.GetBool("KAFKA_ENABLED"),
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix:   v.GetString("KAFKA_GROUP_PREFIX"),
			BookingTopic:  v.GetString("KAFKA_BOOKING_TOPIC"),
			ApprovalTopic: v.GetString("KAFKA_APPROVAL_TOPIC"),
		},
		RabbitConfig: RabbitConfig{
			URL:      v.GetString("RABBIT_URL"),
			Exchange: v.GetString("RABBIT_EXCHANGE"),
		},
		TracingConfig: TracingConfig{
			Enabled:  v.GetBool("OTEL_ENABLED"),
			Endpoint: v.GetString("OTEL_ENDPOINT"),
		},
		ApprovalConfig: ApprovalConfig{
			Mode: strings.ToLower(v.GetString("APPROVAL_MODE")),
			Urgent: StageDelays{
				GD:    v.GetDuration("APPROVAL_URGENT_GD_DELAY"),
				DS:    v.GetDuration("APPROVAL_URGENT_DS_DELAY"),
				Admin: v.GetDuration("APPROVAL_URGENT_ADMIN_DELAY"),
			},
			Standard: StageDelays{
				GD:    v.GetDuration("APPROVAL_STANDARD_GD_DELAY"),
				DS:    v.GetDuration("APPROVAL_STANDARD_DS_DELAY"),
				Admin: v.GetDuration("APPROVAL_STANDARD_ADMIN_DELAY"),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", ":8004")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("VENUE_CATALOG_PATH", "")
	v.SetDefault("HISTORY_LIMIT", 50)
	v.SetDefault("NOTIFICATION_DEFAULT_DURATION", "5s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "venue_booking")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")
	v.SetDefault("KAFKA_BOOKING_TOPIC", "venue.booking.events")
	v.SetDefault("KAFKA_APPROVAL_TOPIC", "venue.booking.approvals")

	v.SetDefault("RABBIT_URL", "")
	v.SetDefault("RABBIT_EXCHANGE", "venue.notifications")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_ENDPOINT", "localhost:4317")

	v.SetDefault("APPROVAL_MODE", ApprovalSimulated)
	v.SetDefault("APPROVAL_URGENT_GD_DELAY", "1s")
	v.SetDefault("APPROVAL_URGENT_DS_DELAY", "2s")
	v.SetDefault("APPROVAL_URGENT_ADMIN_DELAY", "1s")
	v.SetDefault("APPROVAL_STANDARD_GD_DELAY", "2s")
	v.SetDefault("APPROVAL_STANDARD_DS_DELAY", "4s")
	v.SetDefault("APPROVAL_STANDARD_ADMIN_DELAY", "2s")
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *ServiceConfig) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", c.StoreDriver, StoreMemory, StorePostgres)
	}

	switch c.ApprovalConfig.Mode {
	case ApprovalSimulated, ApprovalExternal:
	default:
		return fmt.Errorf("invalid APPROVAL_MODE %q: must be %s or %s", c.ApprovalConfig.Mode, ApprovalSimulated, ApprovalExternal)
	}

	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be at least 1, got %d", c.HistoryLimit)
	}
	if c.NotificationDefaultDuration <= 0 {
		return fmt.Errorf("NOTIFICATION_DEFAULT_DURATION must be positive")
	}

	u, s := c.ApprovalConfig.Urgent, c.ApprovalConfig.Standard
	for name, d := range map[string]time.Duration{
		"APPROVAL_URGENT_GD_DELAY":      u.GD,
		"APPROVAL_URGENT_DS_DELAY":      u.DS,
		"APPROVAL_URGENT_ADMIN_DELAY":   u.Admin,
		"APPROVAL_STANDARD_GD_DELAY":    s.GD,
		"APPROVAL_STANDARD_DS_DELAY":    s.DS,
		"APPROVAL_STANDARD_ADMIN_DELAY": s.Admin,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if u.GD > s.GD || u.DS > s.DS || u.Admin > s.Admin {
		return fmt.Errorf("urgent approval delays must not exceed standard delays")
	}

	if c.KafkaConfig.Enabled && len(c.KafkaConfig.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
