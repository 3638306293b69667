package config

import "time"

// Config is the root configuration for a pulse daemon instance.
type Config struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Session    SessionConfig    `yaml:"session"`
	Toast      ToastConfig      `yaml:"toast"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// InstanceConfig identifies this daemon.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds push service settings.
type ServerConfig struct {
	URL              string        `yaml:"url"`
	APIKey           string        `yaml:"api_key"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// ConnectionConfig holds session manager settings.
type ConnectionConfig struct {
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
	PingTimeout       time.Duration `yaml:"ping_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	BufferSize        int           `yaml:"buffer_size"`
}

// SessionConfig locates the console session file carrying the current user.
type SessionConfig struct {
	Path string `yaml:"path"`
}

// ToastConfig holds toast presentation settings.
type ToastConfig struct {
	DefaultDuration      time.Duration `yaml:"default_duration"`
	AnnouncementDuration time.Duration `yaml:"announcement_duration"`
	Position             string        `yaml:"position"`
}

// ArchiveConfig holds notification archive settings.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
