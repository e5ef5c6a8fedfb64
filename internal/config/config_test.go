package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
genesys:
  region: eu-west-1
  client_id: cid
  client_secret: sec
mqtt:
  broker: tcp://broker:1883
  client_id: test
  topic_prefix: pbx
  report_interval_seconds: 5
trunks:
  - trunk-a
  - trunk-b
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Genesys.Region != "eu-west-1" {
		t.Errorf("expected region=eu-west-1, got %s", cfg.Genesys.Region)
	}
	if len(cfg.Trunks) != 2 || cfg.Trunks[0] != "trunk-a" {
		t.Errorf("unexpected trunks: %v", cfg.Trunks)
	}
	if cfg.MQTT.TopicPrefix != "pbx" {
		t.Errorf("expected topic_prefix=pbx, got %s", cfg.MQTT.TopicPrefix)
	}
	if cfg.MQTT.ReportInterval() != 5*time.Second {
		t.Errorf("expected report interval 5s, got %s", cfg.MQTT.ReportInterval())
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
genesys:
  client_id: cid
  client_secret: sec
trunks: [trunk-a]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Genesys.Region != "us-east-1" {
		t.Errorf("expected default region=us-east-1, got %s", cfg.Genesys.Region)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("expected default broker, got %s", cfg.MQTT.Broker)
	}
	if cfg.MQTT.ClientID != "trunk-metrics" {
		t.Errorf("expected default client_id, got %s", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.TopicPrefix != "telephony" {
		t.Errorf("expected default topic_prefix=telephony, got %s", cfg.MQTT.TopicPrefix)
	}
	if cfg.MQTT.ReportIntervalSeconds != 10 {
		t.Errorf("expected default report interval 10, got %d", cfg.MQTT.ReportIntervalSeconds)
	}
}

func TestCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("GENESYS_CLIENT_ID", "env-cid")
	t.Setenv("GENESYS_CLIENT_SECRET", "env-sec")

	path := writeConfig(t, `
trunks: [trunk-a]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Genesys.ClientID != "env-cid" {
		t.Errorf("expected client_id from env, got %s", cfg.Genesys.ClientID)
	}
	if cfg.Genesys.ClientSecret != "env-sec" {
		t.Errorf("expected client_secret from env, got %s", cfg.Genesys.ClientSecret)
	}
}

func TestFileCredentialsWinOverEnvironment(t *testing.T) {
	t.Setenv("GENESYS_CLIENT_ID", "env-cid")

	path := writeConfig(t, `
genesys:
  client_id: file-cid
  client_secret: sec
trunks: [trunk-a]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Genesys.ClientID != "file-cid" {
		t.Errorf("expected file value to win, got %s", cfg.Genesys.ClientID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, `{{{invalid`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		errMsg string
	}{
		{"no client_id", `
genesys:
  client_secret: sec
trunks: [t1]
`, "genesys.client_id is required (or set GENESYS_CLIENT_ID)"},
		{"no client_secret", `
genesys:
  client_id: cid
trunks: [t1]
`, "genesys.client_secret is required (or set GENESYS_CLIENT_SECRET)"},
		{"empty region", `
genesys:
  region: ""
  client_id: cid
  client_secret: sec
trunks: [t1]
`, "genesys.region is required"},
		{"no trunks", `
genesys:
  client_id: cid
  client_secret: sec
`, "at least one trunk ID is required"},
		{"empty trunk entry", `
genesys:
  client_id: cid
  client_secret: sec
trunks: ["t1", ""]
`, "trunks[1] is empty"},
		{"empty broker", `
genesys:
  client_id: cid
  client_secret: sec
trunks: [t1]
mqtt:
  broker: ""
`, "mqtt.broker is required"},
		{"empty mqtt client_id", `
genesys:
  client_id: cid
  client_secret: sec
trunks: [t1]
mqtt:
  client_id: ""
`, "mqtt.client_id is required"},
		{"empty topic_prefix", `
genesys:
  client_id: cid
  client_secret: sec
trunks: [t1]
mqtt:
  topic_prefix: ""
`, "mqtt.topic_prefix is required"},
		{"zero report interval", `
genesys:
  client_id: cid
  client_secret: sec
trunks: [t1]
mqtt:
  report_interval_seconds: 0
`, "mqtt.report_interval_seconds must be at least 1, got 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GENESYS_CLIENT_ID", "")
			t.Setenv("GENESYS_CLIENT_SECRET", "")
			path := writeConfig(t, tt.config)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}
