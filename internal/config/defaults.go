package config

// Defaults returns the baseline configuration. Credentials intentionally have
// no default; they must come from the file or environment.
func Defaults() *Config {
	return &Config{
		Abra: AbraConfig{
			Host:           "http://localhost:699",
			Database:       "Demo",
			TimeoutSeconds: 30,
			MaxRetries:     3,
		},
		General: GeneralConfig{
			LogLevel: "info",
		},
		Server: ServerConfig{
			Transport: "stdio",
			Host:      "127.0.0.1",
			Port:      8421,
		},
		Audit: AuditConfig{
			Enabled:       false,
			DBPath:        "~/.abramcp/audit.db",
			RetentionDays: 90,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
