package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	httpListen = `[http]
listen = "127.0.0.1:18081"`
	natsEnabled = `[nats]
enabled = true
url = [" nats://127.0.0.1:4222 ", "nats://127.0.0.1:4223"]`
	monitorTuned = `[monitor]
billing_sl_below = 70

[monitor.delay_ms]
churn_alert = 500`
)

func TestLoadSnapshotDefaultsWithoutSource(t *testing.T) {
	t.Parallel()

	cfg, err := LoadSnapshot(ConfigSource{})
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Service.Name != "wfmassist" {
		t.Fatalf("unexpected service name %q", cfg.Service.Name)
	}
	if !cfg.HTTP.Enabled || cfg.HTTP.Listen != ":8080" || cfg.HTTP.APIPrefix != "/api" {
		t.Fatalf("unexpected http defaults %+v", cfg.HTTP)
	}
	if cfg.Service.TypingDelayMS != 2000 || cfg.Service.ActionDelayMS != 1500 {
		t.Fatalf("unexpected reply delays %+v", cfg.Service)
	}
	if cfg.Monitor.BillingSLBelow != 80 || cfg.Monitor.AIHandlingAbove != 40 || cfg.Monitor.CancellationsAbove != 150 {
		t.Fatalf("unexpected thresholds %+v", cfg.Monitor)
	}
	delays := cfg.Monitor.DelayMS
	if delays.BillingSpike != 2000 || delays.AIPerformance != 3000 || delays.ChurnAlert != 2500 || delays.ReportGeneration != 3500 {
		t.Fatalf("unexpected delays %+v", delays)
	}
	if cfg.Simulation.BillingSLFloor != 65 || cfg.Simulation.CancellationsCeiling != 200 {
		t.Fatalf("unexpected simulation limits %+v", cfg.Simulation)
	}
	if cfg.NATS.Enabled || cfg.Metrics.Enabled {
		t.Fatalf("expected nats and metrics disabled by default")
	}
	if !cfg.Log.Console.Enabled {
		t.Fatalf("expected console log sink enabled by default")
	}
}

func TestLoadSnapshotFromFile(t *testing.T) {
	t.Parallel()

	cfg := mustLoadSnapshot(t, joinSections(
		`[service]
name = "demo"
typing_delay_ms = 100`,
		httpListen,
		natsEnabled,
		monitorTuned,
	))

	if cfg.Service.Name != "demo" || cfg.Service.TypingDelayMS != 100 || cfg.Service.ActionDelayMS != 1500 {
		t.Fatalf("unexpected service %+v", cfg.Service)
	}
	if !cfg.HTTP.Enabled {
		t.Fatalf("expected http to stay enabled when only listen is set")
	}
	if cfg.HTTP.Listen != "127.0.0.1:18081" {
		t.Fatalf("unexpected listen %q", cfg.HTTP.Listen)
	}
	if len(cfg.NATS.URL) != 2 || cfg.NATS.URL[0] != "nats://127.0.0.1:4222" {
		t.Fatalf("expected trimmed nats urls, got %v", cfg.NATS.URL)
	}
	if cfg.Monitor.BillingSLBelow != 70 || cfg.Monitor.DelayMS.ChurnAlert != 500 || cfg.Monitor.DelayMS.BillingSpike != 2000 {
		t.Fatalf("unexpected monitor %+v", cfg.Monitor)
	}
}

func TestLoadDirOverlaysFragmentsInOrder(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeConfigFile(t, filepath.Join(tmpDir, "10-base.toml"), joinSections(httpListen, monitorTuned))
	writeConfigFile(t, filepath.Join(tmpDir, "20-override.toml"), `[http]
enabled = false

[monitor]
ai_handling_above = 45`)
	writeConfigFile(t, filepath.Join(tmpDir, "notes.txt"), "ignored")

	cfg, err := LoadSnapshot(ConfigSource{Dir: tmpDir})
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if cfg.HTTP.Enabled {
		t.Fatalf("expected later fragment to disable http")
	}
	if cfg.HTTP.Listen != "127.0.0.1:18081" {
		t.Fatalf("expected earlier listen kept, got %q", cfg.HTTP.Listen)
	}
	if cfg.Monitor.BillingSLBelow != 70 || cfg.Monitor.AIHandlingAbove != 45 {
		t.Fatalf("unexpected merged monitor %+v", cfg.Monitor)
	}
}

func TestLoadDirRequiresTOMLFiles(t *testing.T) {
	t.Parallel()

	if _, err := LoadSnapshot(ConfigSource{Dir: t.TempDir()}); err == nil || !strings.Contains(err.Error(), "no .toml files") {
		t.Fatalf("expected empty dir error, got %v", err)
	}
}

func TestLoadSnapshotRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := loadSnapshotFromContent(t, `[http]
listn = ":9000"`)
	if err == nil || !strings.Contains(err.Error(), "listn") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadSnapshotTemplateValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"parse":         `reply_template = "{{ .Text "`,
		"unknown field": `fallback_template = "{{ .Label }}"`,
	}
	for name, body := range cases {
		_, err := loadSnapshotFromContent(t, "[conversation]\n"+body+"\n")
		if err == nil {
			t.Fatalf("%s: expected template validation error", name)
		}
		if !strings.Contains(err.Error(), "conversation.") {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
	}

	cfg := mustLoadSnapshot(t, `[conversation]
reply_template = "noted: {{ .Text }}"`)
	if cfg.Conversation.ReplyTemplate != "noted: {{ .Text }}" {
		t.Fatalf("unexpected reply template %q", cfg.Conversation.ReplyTemplate)
	}
}

func TestLoadSnapshotValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"log level":        "[log.console]\nenabled = true\nlevel = \"loud\"",
		"file path":        "[log.file]\nenabled = true",
		"health path":      "[http]\nhealth_path = \"healthz\"",
		"root prefix":      "[http]\napi_prefix = \"/\"",
		"metrics no http":  "[http]\nenabled = false\n\n[metrics]\nenabled = true",
		"empty nats url":   "[nats]\nenabled = true\nurl = [\"\"]",
		"wildcard feed":    "[nats]\nenabled = true\nfeed_subject = \"wfm.>\"",
		"sl threshold":     "[monitor]\nbilling_sl_below = 120",
		"ai ceiling":       "[simulation]\nai_handling_ceiling = 150",
		"malformed toml":   "[http\nlisten = 1",
		"wrong value type": "[service]\ntyping_delay_ms = \"slow\"",
	}
	for name, content := range cases {
		if _, err := loadSnapshotFromContent(t, content); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestFromCLI(t *testing.T) {
	t.Parallel()

	if _, err := FromCLI("a.toml", "dir"); err == nil {
		t.Fatalf("expected error for both sources")
	}
	src, err := FromCLI("  ", "")
	if err != nil || src != (ConfigSource{}) {
		t.Fatalf("expected empty source for defaults, got %+v %v", src, err)
	}
	src, err = FromCLI(" cfg.toml ", "")
	if err != nil || src.File != "cfg.toml" {
		t.Fatalf("unexpected file source %+v %v", src, err)
	}
}

func TestAPIPrefixNormalized(t *testing.T) {
	t.Parallel()

	cfg := mustLoadSnapshot(t, `[http]
api_prefix = "v1/"`)
	if cfg.HTTP.APIPrefix != "/v1" {
		t.Fatalf("expected normalized prefix /v1, got %q", cfg.HTTP.APIPrefix)
	}
}

func mustLoadSnapshot(t *testing.T, content string) Config {
	t.Helper()
	cfg, err := loadSnapshotFromContent(t, content)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	return cfg
}

func loadSnapshotFromContent(t *testing.T, content string) (Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfigFile(t, path, content)
	return LoadSnapshot(ConfigSource{File: path})
}

func joinSections(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		nonEmpty = append(nonEmpty, trimmed)
	}
	return strings.Join(nonEmpty, "\n\n") + "\n"
}

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}
