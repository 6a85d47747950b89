package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAddr is the default TCP address the simulator listens on.
	DefaultAddr = ":8080"
	// DefaultGRPCAddr is the default TCP address for the gRPC telemetry bridge.
	DefaultGRPCAddr = ":8081"
	// DefaultPingInterval controls the keepalive cadence for WebSocket connections.
	DefaultPingInterval = 30 * time.Second
	// DefaultMaxPayloadBytes limits inbound WebSocket frame size.
	DefaultMaxPayloadBytes int64 = 1 << 16
	// DefaultMaxClients bounds concurrent WebSocket connections. Zero disables the limit.
	DefaultMaxClients = 64

	// DefaultTickRateHz drives the fixed-timestep simulation loop.
	DefaultTickRateHz = 20.0
	// DefaultMaxStepSeconds clamps a single physics step so frame hiccups cannot teleport the car.
	DefaultMaxStepSeconds = 0.1

	// DefaultResetWindow bounds how frequently session resets may be requested.
	DefaultResetWindow = time.Minute
	// DefaultResetBurst sets how many reset requests may be made per window.
	DefaultResetBurst = 5

	// DefaultLogLevel controls verbosity for simulator logs.
	DefaultLogLevel = "info"
	// DefaultLogPath is where structured logs are written.
	DefaultLogPath = "simulator.log"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
	// DefaultLogMaxAgeDays controls how long rotated log files are kept on disk.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression for rotated log files.
	DefaultLogCompress = true

	// DefaultSessionSnapshotInterval controls how frequently session states are persisted.
	DefaultSessionSnapshotInterval = 30 * time.Second

	// DefaultGeocoderURL points at the public Nominatim instance.
	DefaultGeocoderURL = "https://nominatim.openstreetmap.org"
	// DefaultRouterURL points at the public OSRM demo instance.
	DefaultRouterURL = "https://router.project-osrm.org"
	// DefaultNavTimeout bounds a single geocoding or routing request.
	DefaultNavTimeout = 10 * time.Second
)

// GRPCAuthMode selects how the gRPC telemetry bridge authenticates peers.
type GRPCAuthMode string

const (
	// GRPCAuthModeDisabled serves the bridge without transport authentication.
	GRPCAuthModeDisabled GRPCAuthMode = "disabled"
	// GRPCAuthModeMTLS requires mutually authenticated TLS.
	GRPCAuthModeMTLS GRPCAuthMode = "mtls"
	// GRPCAuthModeSharedSecret matches a metadata secret on every stream.
	GRPCAuthModeSharedSecret GRPCAuthMode = "shared_secret"
)

// Config captures all runtime tunables for the simulator service.
type Config struct {
	Address         string
	AllowedOrigins  []string
	MaxPayloadBytes int64
	PingInterval    time.Duration
	MaxClients      int
	TLSCertPath     string
	TLSKeyPath      string
	AuthSecret      string
	AdminToken      string
	ResetWindow     time.Duration
	ResetBurst      int

	TickRateHz     float64
	MaxStepSeconds float64

	GRPCAddress        string
	GRPCAuthMode       GRPCAuthMode
	GRPCServerCertPath string
	GRPCServerKeyPath  string
	GRPCClientCAPath   string
	GRPCSharedSecret   string

	GeocoderURL string
	RouterURL   string
	NavTimeout  time.Duration

	Logging                 LoggingConfig
	SessionSnapshotPath     string
	SessionSnapshotInterval time.Duration
}

// LoggingConfig captures structured logging configuration options.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads the simulator configuration from environment variables, applying sane
// defaults and returning descriptive errors for invalid overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Address:         getString("SIM_ADDR", DefaultAddr),
		AllowedOrigins:  parseList(os.Getenv("SIM_ALLOWED_ORIGINS")),
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		PingInterval:    DefaultPingInterval,
		MaxClients:      DefaultMaxClients,
		TLSCertPath:     strings.TrimSpace(os.Getenv("SIM_TLS_CERT")),
		TLSKeyPath:      strings.TrimSpace(os.Getenv("SIM_TLS_KEY")),
		AuthSecret:      strings.TrimSpace(os.Getenv("SIM_AUTH_SECRET")),
		AdminToken:      strings.TrimSpace(os.Getenv("SIM_ADMIN_TOKEN")),
		ResetWindow:     DefaultResetWindow,
		ResetBurst:      DefaultResetBurst,
		TickRateHz:      DefaultTickRateHz,
		MaxStepSeconds:  DefaultMaxStepSeconds,
		GRPCAddress:     getString("SIM_GRPC_ADDR", DefaultGRPCAddr),
		GRPCAuthMode:    GRPCAuthModeDisabled,
		GeocoderURL:     getString("SIM_GEOCODER_URL", DefaultGeocoderURL),
		RouterURL:       getString("SIM_ROUTER_URL", DefaultRouterURL),
		NavTimeout:      DefaultNavTimeout,
		Logging: LoggingConfig{
			Level:      strings.TrimSpace(getString("SIM_LOG_LEVEL", DefaultLogLevel)),
			Path:       strings.TrimSpace(getString("SIM_LOG_PATH", DefaultLogPath)),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   DefaultLogCompress,
		},
		SessionSnapshotPath:     strings.TrimSpace(os.Getenv("SIM_SESSION_PATH")),
		SessionSnapshotInterval: DefaultSessionSnapshotInterval,
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("SIM_MAX_PAYLOAD_BYTES")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_MAX_PAYLOAD_BYTES must be a positive integer, got %q", raw))
		} else {
			cfg.MaxPayloadBytes = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_PING_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_PING_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.PingInterval = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_MAX_CLIENTS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("SIM_MAX_CLIENTS must be a non-negative integer, got %q", raw))
		} else {
			cfg.MaxClients = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_TICK_RATE_HZ")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_TICK_RATE_HZ must be a positive number, got %q", raw))
		} else {
			cfg.TickRateHz = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_MAX_STEP_SECONDS")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_MAX_STEP_SECONDS must be a positive number, got %q", raw))
		} else {
			cfg.MaxStepSeconds = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_LOG_MAX_SIZE_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_LOG_MAX_SIZE_MB must be a positive integer, got %q", raw))
		} else {
			cfg.Logging.MaxSizeMB = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_LOG_MAX_BACKUPS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("SIM_LOG_MAX_BACKUPS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxBackups = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_LOG_MAX_AGE_DAYS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("SIM_LOG_MAX_AGE_DAYS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxAgeDays = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_LOG_COMPRESS")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("SIM_LOG_COMPRESS must be a boolean value, got %q", raw))
		} else {
			cfg.Logging.Compress = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_RESET_WINDOW")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_RESET_WINDOW must be a positive duration, got %q", raw))
		} else {
			cfg.ResetWindow = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_RESET_BURST")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_RESET_BURST must be a positive integer, got %q", raw))
		} else {
			cfg.ResetBurst = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_SESSION_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_SESSION_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.SessionSnapshotInterval = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_NAV_TIMEOUT")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("SIM_NAV_TIMEOUT must be a positive duration, got %q", raw))
		} else {
			cfg.NavTimeout = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SIM_GRPC_AUTH_MODE")); raw != "" {
		switch GRPCAuthMode(strings.ToLower(raw)) {
		case GRPCAuthModeDisabled:
			cfg.GRPCAuthMode = GRPCAuthModeDisabled
		case GRPCAuthModeMTLS:
			cfg.GRPCAuthMode = GRPCAuthModeMTLS
		case GRPCAuthModeSharedSecret:
			cfg.GRPCAuthMode = GRPCAuthModeSharedSecret
		default:
			problems = append(problems, fmt.Sprintf("SIM_GRPC_AUTH_MODE must be one of disabled, mtls, shared_secret; got %q", raw))
		}
	}
	cfg.GRPCServerCertPath = strings.TrimSpace(os.Getenv("SIM_GRPC_SERVER_CERT"))
	cfg.GRPCServerKeyPath = strings.TrimSpace(os.Getenv("SIM_GRPC_SERVER_KEY"))
	cfg.GRPCClientCAPath = strings.TrimSpace(os.Getenv("SIM_GRPC_CLIENT_CA"))
	cfg.GRPCSharedSecret = strings.TrimSpace(os.Getenv("SIM_GRPC_SHARED_SECRET"))

	if cfg.GRPCAuthMode == GRPCAuthModeMTLS {
		if cfg.GRPCServerCertPath == "" || cfg.GRPCServerKeyPath == "" || cfg.GRPCClientCAPath == "" {
			problems = append(problems, "SIM_GRPC_SERVER_CERT, SIM_GRPC_SERVER_KEY, and SIM_GRPC_CLIENT_CA are required for mtls auth")
		}
	}
	if cfg.GRPCAuthMode == GRPCAuthModeSharedSecret && cfg.GRPCSharedSecret == "" {
		problems = append(problems, "SIM_GRPC_SHARED_SECRET is required for shared_secret auth")
	}

	if (cfg.TLSCertPath == "") != (cfg.TLSKeyPath == "") {
		problems = append(problems, "SIM_TLS_CERT and SIM_TLS_KEY must be provided together")
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			values = append(values, item)
		}
	}
	return values
}
