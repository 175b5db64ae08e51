package main

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Seednode/guesswho/selector"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "tls pair", mutate: func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }},
		{name: "half tls", mutate: func(c *Config) { c.tlsCert = "cert.pem" }, wantErr: true},
		{name: "port zero", mutate: func(c *Config) { c.port = 0 }, wantErr: true},
		{name: "port too high", mutate: func(c *Config) { c.port = 70000 }, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.interval = 0 }, wantErr: true},
		{name: "bad mode", mutate: func(c *Config) { c.mode = "roulette" }, wantErr: true},
	}
	for _, tc := range tests {
		cfg := testConfig(selector.Sequential)
		tc.mutate(cfg)

		err := cfg.validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: validate() err=%v wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}

func TestConfigValidateParsesMode(t *testing.T) {
	cfg := testConfig(selector.Sequential)
	cfg.mode = "C"
	cfg.prefix = "/party/"

	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.selection != selector.Unrestricted {
		t.Fatalf("expected unrestricted, got %s", cfg.selection)
	}
	if cfg.prefix != "/party" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.prefix)
	}

	cfg.mode = "x"
	if err := cfg.validate(); !errors.Is(err, selector.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestFlagDefaults(t *testing.T) {
	cfg := &Config{}
	_ = newCmd(cfg)

	if cfg.interval != 50*time.Millisecond || cfg.mode != "sequential" || cfg.port != 8080 || cfg.images != "imgs" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("GUESSWHO_MODE", "random")
	t.Setenv("GUESSWHO_INTERVAL", "120ms")
	t.Setenv("GUESSWHO_BLACKLIST", "alice,bob")
	t.Setenv("GUESSWHO_PORT", "9090")

	cfg := &Config{}
	_ = newCmd(cfg)

	if cfg.mode != "random" {
		t.Fatalf("mode from env: got %q", cfg.mode)
	}
	if cfg.interval != 120*time.Millisecond {
		t.Fatalf("interval from env: got %s", cfg.interval)
	}
	if !slices.Equal(cfg.blacklist, []string{"alice", "bob"}) {
		t.Fatalf("blacklist from env: got %v", cfg.blacklist)
	}
	if cfg.port != 9090 {
		t.Fatalf("port from env: got %d", cfg.port)
	}
}

func TestConsoleSubcommandRegistered(t *testing.T) {
	cmd := newCmd(&Config{})

	sub, _, err := cmd.Find([]string{"console"})
	if err != nil || sub.Name() != "console" {
		t.Fatalf("console subcommand not found: %v", err)
	}
	if sub.InheritedFlags().Lookup("mode") == nil {
		t.Fatalf("console should inherit --mode")
	}
}
