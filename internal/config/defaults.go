package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultReconnectDelay       = 1 * time.Second
	DefaultReconnectAttempts    = 5
	DefaultPingTimeout          = 60 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultBufferSize           = 256
	DefaultToastDuration        = 5 * time.Second
	DefaultAnnouncementDuration = 15 * time.Second
	DefaultToastPosition        = "top-right"
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 4
	DefaultMinConns             = 1
	DefaultBatchSize            = 100
	DefaultFlushInterval        = 2 * time.Second
	DefaultArchiveBufferSize    = 1024
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.Server.HandshakeTimeout == 0 {
		c.Server.HandshakeTimeout = DefaultHandshakeTimeout
	}

	if c.Connection.ReconnectDelay == 0 {
		c.Connection.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Connection.ReconnectAttempts == 0 {
		c.Connection.ReconnectAttempts = DefaultReconnectAttempts
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.BufferSize == 0 {
		c.Connection.BufferSize = DefaultBufferSize
	}

	if c.Toast.DefaultDuration == 0 {
		c.Toast.DefaultDuration = DefaultToastDuration
	}
	if c.Toast.AnnouncementDuration == 0 {
		c.Toast.AnnouncementDuration = DefaultAnnouncementDuration
	}
	if c.Toast.Position == "" {
		c.Toast.Position = DefaultToastPosition
	}

	if c.Archive.Enabled {
		applyDBDefaults(&c.Archive.Database)
		if c.Archive.BatchSize == 0 {
			c.Archive.BatchSize = DefaultBatchSize
		}
		if c.Archive.FlushInterval == 0 {
			c.Archive.FlushInterval = DefaultFlushInterval
		}
		if c.Archive.BufferSize == 0 {
			c.Archive.BufferSize = DefaultArchiveBufferSize
		}
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
