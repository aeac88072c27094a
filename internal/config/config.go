package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr                string        `mapstructure:"addr" yaml:"addr"`
	AdminPort           uint16        `mapstructure:"admin_port" yaml:"admin_port"`
	MaxClients          int           `mapstructure:"max_clients" yaml:"max_clients"`
	MaxMutes            int           `mapstructure:"max_mutes" yaml:"max_mutes"`
	MaxNameLen          int           `mapstructure:"max_name_len" yaml:"max_name_len"`
	HistoryCapacity     int           `mapstructure:"history_capacity" yaml:"history_capacity"`
	MonitorInterval     time.Duration `mapstructure:"monitor_interval" yaml:"monitor_interval"`
	InactivityThreshold time.Duration `mapstructure:"inactivity_threshold" yaml:"inactivity_threshold"`
	ProbeTimeout        time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel            string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration matching the legacy deployment: UDP port
// 12000, admin traffic recognized by source port 6666, a 15-line
// history ring.
func Default() Config {
	return Config{
		Addr:                ":12000",
		AdminPort:           6666,
		MaxClients:          128,
		MaxMutes:            64,
		MaxNameLen:          64,
		HistoryCapacity:     15,
		MonitorInterval:     10 * time.Second,
		InactivityThreshold: 2 * time.Minute,
		ProbeTimeout:        10 * time.Second,
		ShutdownTimeout:     5 * time.Second,
		LogLevel:            "info",
	}
}
