package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wfmassist/internal/templatefmt"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultServiceName     = "wfmassist"
	defaultTypingDelayMS   = 2000
	defaultActionDelayMS   = 1500
	defaultHTTPListen      = ":8080"
	defaultHealthPath      = "/healthz"
	defaultReadyPath       = "/readyz"
	defaultAPIPrefix       = "/api"
	defaultMaxBodyBytes    = 64 << 10
	defaultNATSURL         = "nats://127.0.0.1:4222"
	defaultCommandSubject  = "wfm.commands"
	defaultFeedSubject     = "wfm.transcript"
	defaultMetricsPath     = "/metrics"
	defaultBillingSLBelow  = 80
	defaultAIHandlingAbove = 40
	defaultCancelAbove     = 150
)

// Config is the full runtime configuration snapshot.
// Params: service, logging, transport, monitor, simulation, and reply sections.
// Returns: validated settings consumed by app wiring.
type Config struct {
	Service      ServiceConfig      `toml:"service"`
	Log          LogConfig          `toml:"log"`
	HTTP         HTTPConfig         `toml:"http"`
	NATS         NATSConfig         `toml:"nats"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Monitor      MonitorConfig      `toml:"monitor"`
	Simulation   SimulationConfig   `toml:"simulation"`
	Conversation ConversationConfig `toml:"conversation"`
}

// ServiceConfig contains process-level settings.
// Params: name and conversation reply delays.
// Returns: service behavior defaults.
type ServiceConfig struct {
	Name          string `toml:"name"`
	TypingDelayMS int    `toml:"typing_delay_ms"`
	ActionDelayMS int    `toml:"action_delay_ms"`
}

// HTTPConfig configures the dashboard API listener.
// Params: enable flag, listen/endpoints, API prefix, and body size limit.
// Returns: HTTP surface behavior.
type HTTPConfig struct {
	Enabled      bool   `toml:"enabled"`
	Listen       string `toml:"listen"`
	HealthPath   string `toml:"health_path"`
	ReadyPath    string `toml:"ready_path"`
	APIPrefix    string `toml:"api_prefix"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// NATSConfig configures command subscription and transcript publishing.
// Params: enable flag, server URLs, and subjects.
// Returns: NATS surface behavior.
type NATSConfig struct {
	Enabled        bool     `toml:"enabled"`
	URL            []string `toml:"url"`
	CommandSubject string   `toml:"command_subject"`
	FeedSubject    string   `toml:"feed_subject"`
}

// MetricsConfig configures the Prometheus scrape endpoint.
// Params: enable flag and path on the HTTP listener.
// Returns: metrics surface behavior.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// MonitorConfig holds alert thresholds and per-alert confirmation delays.
// Params: predicate thresholds and `[monitor.delay_ms]` table.
// Returns: condition monitor tuning.
type MonitorConfig struct {
	BillingSLBelow     int           `toml:"billing_sl_below"`
	AIHandlingAbove    int           `toml:"ai_handling_above"`
	CancellationsAbove int           `toml:"cancellations_above"`
	DelayMS            MonitorDelays `toml:"delay_ms"`
}

// MonitorDelays holds one confirmation delay per alert kind in milliseconds.
type MonitorDelays struct {
	BillingSpike     int `toml:"billing_spike"`
	AIPerformance    int `toml:"ai_performance"`
	ChurnAlert       int `toml:"churn_alert"`
	ReportGeneration int `toml:"report_generation"`
}

// SimulationConfig holds step sizes and clamps of simulation triggers.
// Params: per-trigger steps, floors, and ceilings.
// Returns: metrics store tuning.
type SimulationConfig struct {
	BillingSLDrop        int `toml:"billing_sl_drop"`
	BillingSLFloor       int `toml:"billing_sl_floor"`
	BillingVolumeRise    int `toml:"billing_volume_rise"`
	BillingVolumeCeiling int `toml:"billing_volume_ceiling"`
	CancellationsRise    int `toml:"cancellations_rise"`
	CancellationsCeiling int `toml:"cancellations_ceiling"`
	AIHandlingRise       int `toml:"ai_handling_rise"`
	AIHandlingCeiling    int `toml:"ai_handling_ceiling"`
}

// ConversationConfig holds reply templates.
// Params: text/template bodies for free-text replies and generic confirmations.
// Returns: conversation rendering settings.
type ConversationConfig struct {
	ReplyTemplate    string `toml:"reply_template"`
	FallbackTemplate string `toml:"fallback_template"`
}

// LogConfig defines all configured logging sinks.
// Params: sink settings for each output target.
// Returns: logger setup options.
type LogConfig struct {
	Console LogSinkConfig `toml:"console"`
	File    LogSinkConfig `toml:"file"`
}

// LogSinkConfig defines one logging sink.
// Params: sink enable flag, level, format, and path.
// Returns: sink-specific behavior.
type LogSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Path    string `toml:"path"`
}

// ConfigSource describes file or directory config source.
// Params: at most one of file path or directory path; both empty means defaults.
// Returns: normalized source descriptor.
type ConfigSource struct {
	File string
	Dir  string
}

// FromCLI builds normalized source configuration from input paths.
// Params: optional file and directory arguments.
// Returns: source descriptor or validation error.
func FromCLI(filePath, dirPath string) (ConfigSource, error) {
	filePath = strings.TrimSpace(filePath)
	dirPath = strings.TrimSpace(dirPath)

	if filePath != "" && dirPath != "" {
		return ConfigSource{}, errors.New("config source must be either file or dir")
	}
	if filePath != "" {
		return ConfigSource{File: filePath}, nil
	}
	return ConfigSource{Dir: dirPath}, nil
}

// Defaults returns configuration used when no source is given.
// Params: none.
// Returns: validated default snapshot.
func Defaults() Config {
	cfg := Config{
		HTTP: HTTPConfig{Enabled: true},
		NATS: NATSConfig{URL: []string{defaultNATSURL}},
	}
	applyDefaults(&cfg)
	return cfg
}

// LoadSnapshot loads and validates configuration from one source.
// Params: source selects file, directory, or built-in defaults.
// Returns: validated config or load/validation error.
func LoadSnapshot(src ConfigSource) (Config, error) {
	cfg := Defaults()
	var err error
	switch {
	case src.File != "":
		err = loadFile(src.File, &cfg)
	case src.Dir != "":
		err = loadDir(src.Dir, &cfg)
	}
	if err != nil {
		return Config{}, err
	}
	cfg.NATS.URL = normalizeNATSURLs(cfg.NATS.URL)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes one TOML file over dst.
// Keys absent from the file keep their current dst values.
// Params: file path and destination snapshot.
// Returns: read/decode error.
func loadFile(path string, dst *Config) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	decoder := toml.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("decode config file %q: %s", path, strings.TrimSpace(strict.String()))
		}
		return fmt.Errorf("decode config file %q: %w", path, err)
	}
	return nil
}

// loadDir overlays TOML files from one directory in lexical order.
// Params: directory containing config fragments and destination snapshot.
// Returns: read/decode error.
func loadDir(dir string, dst *Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read config dir %q: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.ToLower(filepath.Ext(name)) != ".toml" {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	if len(files) == 0 {
		return fmt.Errorf("no .toml files found in %q", dir)
	}
	sort.Strings(files)

	for _, file := range files {
		if err := loadFile(file, dst); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults fills unset values.
// Zero and negative numbers count as unset.
// Params: config pointer.
// Returns: config mutated in place.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Service.Name) == "" {
		cfg.Service.Name = defaultServiceName
	}
	if cfg.Service.TypingDelayMS <= 0 {
		cfg.Service.TypingDelayMS = defaultTypingDelayMS
	}
	if cfg.Service.ActionDelayMS <= 0 {
		cfg.Service.ActionDelayMS = defaultActionDelayMS
	}

	if cfg.Log.Console.Level == "" {
		cfg.Log.Console.Level = "info"
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = "line"
	}
	if cfg.Log.File.Level == "" {
		cfg.Log.File.Level = "info"
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = "json"
	}
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		cfg.HTTP.Listen = defaultHTTPListen
	}
	if strings.TrimSpace(cfg.HTTP.HealthPath) == "" {
		cfg.HTTP.HealthPath = defaultHealthPath
	}
	if strings.TrimSpace(cfg.HTTP.ReadyPath) == "" {
		cfg.HTTP.ReadyPath = defaultReadyPath
	}
	if strings.TrimSpace(cfg.HTTP.APIPrefix) == "" {
		cfg.HTTP.APIPrefix = defaultAPIPrefix
	}
	cfg.HTTP.APIPrefix = "/" + strings.Trim(strings.TrimSpace(cfg.HTTP.APIPrefix), "/")
	if cfg.HTTP.MaxBodyBytes <= 0 {
		cfg.HTTP.MaxBodyBytes = defaultMaxBodyBytes
	}

	if len(cfg.NATS.URL) == 0 {
		cfg.NATS.URL = []string{defaultNATSURL}
	}
	if strings.TrimSpace(cfg.NATS.CommandSubject) == "" {
		cfg.NATS.CommandSubject = defaultCommandSubject
	}
	if strings.TrimSpace(cfg.NATS.FeedSubject) == "" {
		cfg.NATS.FeedSubject = defaultFeedSubject
	}

	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}

	if cfg.Monitor.BillingSLBelow <= 0 {
		cfg.Monitor.BillingSLBelow = defaultBillingSLBelow
	}
	if cfg.Monitor.AIHandlingAbove <= 0 {
		cfg.Monitor.AIHandlingAbove = defaultAIHandlingAbove
	}
	if cfg.Monitor.CancellationsAbove <= 0 {
		cfg.Monitor.CancellationsAbove = defaultCancelAbove
	}
	fillPositive(&cfg.Monitor.DelayMS.BillingSpike, 2000)
	fillPositive(&cfg.Monitor.DelayMS.AIPerformance, 3000)
	fillPositive(&cfg.Monitor.DelayMS.ChurnAlert, 2500)
	fillPositive(&cfg.Monitor.DelayMS.ReportGeneration, 3500)

	sim := &cfg.Simulation
	fillPositive(&sim.BillingSLDrop, 15)
	fillPositive(&sim.BillingSLFloor, 65)
	fillPositive(&sim.BillingVolumeRise, 50)
	fillPositive(&sim.BillingVolumeCeiling, 250)
	fillPositive(&sim.CancellationsRise, 30)
	fillPositive(&sim.CancellationsCeiling, 200)
	fillPositive(&sim.AIHandlingRise, 10)
	fillPositive(&sim.AIHandlingCeiling, 50)

	if strings.TrimSpace(cfg.Conversation.ReplyTemplate) == "" {
		cfg.Conversation.ReplyTemplate = templatefmt.DefaultReplyTemplate
	}
	if strings.TrimSpace(cfg.Conversation.FallbackTemplate) == "" {
		cfg.Conversation.FallbackTemplate = templatefmt.DefaultFallbackTemplate
	}
}

func fillPositive(value *int, fallback int) {
	if *value <= 0 {
		*value = fallback
	}
}

// validateConfig checks semantic constraints after defaults.
// Params: fully defaulted config.
// Returns: first validation error.
func validateConfig(cfg Config) error {
	if err := validateLogSink("log.console", cfg.Log.Console, false); err != nil {
		return err
	}
	if err := validateLogSink("log.file", cfg.Log.File, true); err != nil {
		return err
	}

	for name, path := range map[string]string{
		"http.health_path": cfg.HTTP.HealthPath,
		"http.ready_path":  cfg.HTTP.ReadyPath,
		"http.api_prefix":  cfg.HTTP.APIPrefix,
		"metrics.path":     cfg.Metrics.Path,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must start with '/'", name)
		}
	}
	if cfg.HTTP.APIPrefix == "/" {
		return errors.New("http.api_prefix must not be '/'")
	}
	if cfg.Metrics.Enabled && !cfg.HTTP.Enabled {
		return errors.New("metrics.enabled requires http.enabled=true")
	}

	if cfg.NATS.Enabled {
		for i, url := range cfg.NATS.URL {
			if url == "" {
				return fmt.Errorf("nats.url[%d] is empty", i)
			}
		}
		if strings.ContainsAny(cfg.NATS.FeedSubject, "*> ") {
			return fmt.Errorf("nats.feed_subject %q must be a literal subject", cfg.NATS.FeedSubject)
		}
	}

	if cfg.Monitor.BillingSLBelow > 100 {
		return errors.New("monitor.billing_sl_below must be <=100")
	}
	if cfg.Monitor.AIHandlingAbove >= 100 {
		return errors.New("monitor.ai_handling_above must be <100")
	}

	sim := cfg.Simulation
	if sim.BillingSLFloor > 100 {
		return errors.New("simulation.billing_sl_floor must be <=100")
	}
	if sim.AIHandlingCeiling > 100 {
		return errors.New("simulation.ai_handling_ceiling must be <=100")
	}

	if err := validateMessageTemplate("conversation.reply_template", cfg.Conversation.ReplyTemplate, templatefmt.ReplyData{}); err != nil {
		return err
	}
	if err := validateMessageTemplate("conversation.fallback_template", cfg.Conversation.FallbackTemplate, templatefmt.ConfirmationData{}); err != nil {
		return err
	}
	return nil
}

// normalizeNATSURLs trims spaces around each configured NATS URL.
// Params: raw URL list from config.
// Returns: normalized URL list preserving element count for validation.
func normalizeNATSURLs(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	out := make([]string, len(urls))
	for i := range urls {
		out[i] = strings.TrimSpace(urls[i])
	}
	return out
}

// validateMessageTemplate validates one conversation template by dry run.
// Params: field path, template body, and sample context.
// Returns: parse/execute error.
func validateMessageTemplate(path, body string, sample any) error {
	if _, err := templatefmt.Compile(path, body, sample); err != nil {
		return fmt.Errorf("%s is invalid: %w", path, err)
	}
	return nil
}

// validateLogSink validates one log sink configuration.
// Params: sink name, sink values, and whether path is required.
// Returns: sink validation error.
func validateLogSink(name string, sink LogSinkConfig, requirePath bool) error {
	if !sink.Enabled {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(sink.Level)) {
	case "debug", "info", "warn", "error", "panic":
	default:
		return fmt.Errorf("%s.level has unsupported value %q", name, sink.Level)
	}

	switch strings.ToLower(strings.TrimSpace(sink.Format)) {
	case "line", "json":
	default:
		return fmt.Errorf("%s.format has unsupported value %q", name, sink.Format)
	}

	if requirePath && strings.TrimSpace(sink.Path) == "" {
		return fmt.Errorf("%s.path is required", name)
	}

	return nil
}
