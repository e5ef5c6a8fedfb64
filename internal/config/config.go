package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Genesys GenesysConfig `yaml:"genesys"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Trunks  []string      `yaml:"trunks"`
}

type GenesysConfig struct {
	Region       string `yaml:"region"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type MQTTConfig struct {
	Broker                string `yaml:"broker"`
	ClientID              string `yaml:"client_id"`
	TopicPrefix           string `yaml:"topic_prefix"`
	ReportIntervalSeconds int    `yaml:"report_interval_seconds"`
}

func (m *MQTTConfig) ReportInterval() time.Duration {
	return time.Duration(m.ReportIntervalSeconds) * time.Second
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{
		Genesys: GenesysConfig{
			Region: "us-east-1",
		},
		MQTT: MQTTConfig{
			Broker:                "tcp://localhost:1883",
			ClientID:              "trunk-metrics",
			TopicPrefix:           "telephony",
			ReportIntervalSeconds: 10,
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Credentials may be kept out of the file entirely.
	if cfg.Genesys.ClientID == "" {
		cfg.Genesys.ClientID = os.Getenv("GENESYS_CLIENT_ID")
	}
	if cfg.Genesys.ClientSecret == "" {
		cfg.Genesys.ClientSecret = os.Getenv("GENESYS_CLIENT_SECRET")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Genesys.Region == "" {
		return fmt.Errorf("genesys.region is required")
	}
	if c.Genesys.ClientID == "" {
		return fmt.Errorf("genesys.client_id is required (or set GENESYS_CLIENT_ID)")
	}
	if c.Genesys.ClientSecret == "" {
		return fmt.Errorf("genesys.client_secret is required (or set GENESYS_CLIENT_SECRET)")
	}
	if len(c.Trunks) == 0 {
		return fmt.Errorf("at least one trunk ID is required")
	}
	for i, id := range c.Trunks {
		if id == "" {
			return fmt.Errorf("trunks[%d] is empty", i)
		}
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.MQTT.ClientID == "" {
		return fmt.Errorf("mqtt.client_id is required")
	}
	if c.MQTT.TopicPrefix == "" {
		return fmt.Errorf("mqtt.topic_prefix is required")
	}
	if c.MQTT.ReportIntervalSeconds < 1 {
		return fmt.Errorf("mqtt.report_interval_seconds must be at least 1, got %d", c.MQTT.ReportIntervalSeconds)
	}
	return nil
}
