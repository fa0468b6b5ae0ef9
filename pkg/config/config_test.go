package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\nserver:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("expected port override, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected default shutdown timeout, got %v", c.Server.ShutdownTimeout)
	}
	if len(c.Source.Exchanges) != 3 || c.Source.Exchanges[0] != "XNAS" {
		t.Fatalf("unexpected default exchanges %v", c.Source.Exchanges)
	}
	if c.Kafka.Topic != "valuation.reports" {
		t.Fatalf("unexpected default topic %q", c.Kafka.Topic)
	}
	if c.Valuation.RiskFreeRate != 0.025 {
		t.Fatalf("unexpected default risk free rate %v", c.Valuation.RiskFreeRate)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"cache type":     "environment: x\ncache:\n  type: disk\n",
		"kafka brokers":  "environment: x\nkafka:\n  enabled: true\n",
		"finnhub key":    "environment: x\nfinnhub:\n  enabled: true\n",
		"terminal rate":  "environment: x\nvaluation:\n  discount: 0.02\n  terminal_growth: 0.03\n",
		"zero period":    "environment: x\nvaluation:\n  period1: 0\n",
		"bad port":       "environment: x\nserver:\n  port: 70000\n",
		"malformed yaml": "environment: [\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("environment: staging\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("HTTP_PORT", "8181")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Fatalf("expected kafka enabled with 2 brokers, got %v %v", c.Kafka.Enabled, c.Kafka.Brokers)
	}
	if c.Server.Port != 8181 {
		t.Fatalf("expected port 8181, got %d", c.Server.Port)
	}
}

func TestLoadWithEnvMissingFileUsesDefaults(t *testing.T) {
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "development" {
		t.Fatalf("expected default environment, got %q", c.Environment)
	}
}
