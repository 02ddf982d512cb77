// Package config loads RuntimeConfig from defaults, an optional YAML file,
// and environment variables, tracking where each value came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"ptc/internal/infra/filestore"
)

// ValueSource describes where a configuration value originated from.
type ValueSource string

const (
	SourceDefault  ValueSource = "default"
	SourceFile     ValueSource = "file"
	SourceEnv      ValueSource = "environment"
	SourceOverride ValueSource = "override"
)

const (
	DefaultSandboxBaseURL      = "http://localhost:18086"
	DefaultRuntimeVersion      = "python3.12"
	DefaultSnapshotName        = ""
	DefaultStateRoot           = "~/.ptc"
	DefaultEmptyResultThreshold = 3
	DefaultMaxMentionBytes     = 50_000
	DefaultSessionMaxAgeHours  = 24
)

// ToolServer names a remote tool server contributing tool descriptors,
// used only as an input to the config fingerprint (spec §3).
type ToolServer struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// RuntimeConfig captures user-configurable settings for a ptc agent run.
type RuntimeConfig struct {
	AgentName            string       `json:"agent_name" yaml:"agent_name"`
	SandboxBaseURL        string       `json:"sandbox_base_url" yaml:"sandbox_base_url"`
	RuntimeVersion        string       `json:"runtime_version" yaml:"runtime_version"`
	SnapshotEnabled       bool         `json:"snapshot_enabled" yaml:"snapshot_enabled"`
	SnapshotName          string       `json:"snapshot_name" yaml:"snapshot_name"`
	ToolServers           []ToolServer `json:"tool_servers" yaml:"tool_servers"`
	StateRoot             string       `json:"state_root" yaml:"state_root"`
	APIKey                string       `json:"api_key" yaml:"api_key"`
	Model                 string       `json:"model" yaml:"model"`
	AutoApprove           bool         `json:"auto_approve" yaml:"auto_approve"`
	PlanMode              bool         `json:"plan_mode" yaml:"plan_mode"`
	PersistSession        bool         `json:"persist_session" yaml:"persist_session"`
	Verbose               bool         `json:"verbose" yaml:"verbose"`
	EmptyResultThreshold  int          `json:"empty_result_threshold" yaml:"empty_result_threshold"`
	MaxMentionBytes       int          `json:"max_mention_bytes" yaml:"max_mention_bytes"`
	SessionMaxAgeHours    int          `json:"session_max_age_hours" yaml:"session_max_age_hours"`
}

// Metadata carries provenance for each loaded field.
type Metadata struct {
	sources  map[string]ValueSource
	loadedAt time.Time
}

func (m Metadata) Source(field string) ValueSource {
	if m.sources == nil {
		return SourceDefault
	}
	if src, ok := m.sources[field]; ok {
		return src
	}
	return SourceDefault
}

func (m Metadata) LoadedAt() time.Time { return m.loadedAt }

// Overrides conveys caller-specified values (e.g. CLI flags) that win over
// file and environment sources.
type Overrides struct {
	AgentName      *string
	SandboxBaseURL *string
	Model          *string
	AutoApprove    *bool
	PlanMode       *bool
	PersistSession *bool
	Verbose        *bool
}

type loadOptions struct {
	envLookup func(string) (string, bool)
	readFile  func(string) ([]byte, error)
	filePath  string
	overrides Overrides
}

// Option configures Load.
type Option func(*loadOptions)

func WithEnvLookup(f func(string) (string, bool)) Option {
	return func(o *loadOptions) { o.envLookup = f }
}

func WithFileReader(f func(string) ([]byte, error)) Option {
	return func(o *loadOptions) { o.readFile = f }
}

func WithFilePath(path string) Option {
	return func(o *loadOptions) { o.filePath = path }
}

func WithOverrides(ov Overrides) Option {
	return func(o *loadOptions) { o.overrides = ov }
}

// Load builds a RuntimeConfig from defaults, then an optional YAML file at
// ~/.ptc/config.yaml (or the path set via WithFilePath), then environment
// variables prefixed PTC_, then caller overrides — each layer winning over
// the last, with Metadata recording which layer set each field.
func Load(opts ...Option) (RuntimeConfig, Metadata, error) {
	options := loadOptions{
		envLookup: os.LookupEnv,
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(&options)
	}

	meta := Metadata{sources: map[string]ValueSource{}, loadedAt: time.Now()}

	cfg := RuntimeConfig{
		AgentName:           "default",
		SandboxBaseURL:      DefaultSandboxBaseURL,
		RuntimeVersion:      DefaultRuntimeVersion,
		SnapshotEnabled:     false,
		SnapshotName:        DefaultSnapshotName,
		StateRoot:           DefaultStateRoot,
		Model:               "",
		AutoApprove:         false,
		PlanMode:            false,
		PersistSession:      true,
		Verbose:             false,
		EmptyResultThreshold: DefaultEmptyResultThreshold,
		MaxMentionBytes:      DefaultMaxMentionBytes,
		SessionMaxAgeHours:   DefaultSessionMaxAgeHours,
	}

	if err := applyFile(&cfg, &meta, options); err != nil {
		return RuntimeConfig{}, Metadata{}, err
	}
	applyEnv(&cfg, &meta, options)
	applyOverrides(&cfg, &meta, options.overrides)

	return cfg, meta, nil
}

func applyFile(cfg *RuntimeConfig, meta *Metadata, opts loadOptions) error {
	path := opts.filePath
	if path == "" {
		path = filestore.ResolvePath(DefaultStateRoot, "") + "/config.yaml"
	}
	data, err := opts.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	var fileCfg RuntimeConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	merged := false
	if fileCfg.SandboxBaseURL != "" {
		cfg.SandboxBaseURL = fileCfg.SandboxBaseURL
		meta.sources["sandbox_base_url"] = SourceFile
		merged = true
	}
	if fileCfg.RuntimeVersion != "" {
		cfg.RuntimeVersion = fileCfg.RuntimeVersion
		meta.sources["runtime_version"] = SourceFile
		merged = true
	}
	if fileCfg.SnapshotName != "" {
		cfg.SnapshotName = fileCfg.SnapshotName
		cfg.SnapshotEnabled = true
		meta.sources["snapshot_name"] = SourceFile
		meta.sources["snapshot_enabled"] = SourceFile
		merged = true
	}
	if len(fileCfg.ToolServers) > 0 {
		cfg.ToolServers = fileCfg.ToolServers
		meta.sources["tool_servers"] = SourceFile
		merged = true
	}
	if fileCfg.Model != "" {
		cfg.Model = fileCfg.Model
		meta.sources["model"] = SourceFile
		merged = true
	}
	if fileCfg.StateRoot != "" {
		cfg.StateRoot = fileCfg.StateRoot
		meta.sources["state_root"] = SourceFile
		merged = true
	}
	_ = merged
	return nil
}

func applyEnv(cfg *RuntimeConfig, meta *Metadata, opts loadOptions) {
	str := func(key, field string, dst *string) {
		if v, ok := opts.envLookup("PTC_" + key); ok && v != "" {
			*dst = v
			meta.sources[field] = SourceEnv
		}
	}
	b := func(key, field string, dst *bool) {
		if v, ok := opts.envLookup("PTC_" + key); ok {
			if parsed, err := strconv.ParseBool(v); err == nil {
				*dst = parsed
				meta.sources[field] = SourceEnv
			}
		}
	}
	i := func(key, field string, dst *int) {
		if v, ok := opts.envLookup("PTC_" + key); ok {
			if parsed, err := strconv.Atoi(v); err == nil {
				*dst = parsed
				meta.sources[field] = SourceEnv
			}
		}
	}

	str("AGENT", "agent_name", &cfg.AgentName)
	str("SANDBOX_BASE_URL", "sandbox_base_url", &cfg.SandboxBaseURL)
	str("RUNTIME_VERSION", "runtime_version", &cfg.RuntimeVersion)
	str("SNAPSHOT_NAME", "snapshot_name", &cfg.SnapshotName)
	str("STATE_ROOT", "state_root", &cfg.StateRoot)
	str("MODEL", "model", &cfg.Model)
	str("API_KEY", "api_key", &cfg.APIKey)
	b("SNAPSHOT_ENABLED", "snapshot_enabled", &cfg.SnapshotEnabled)
	b("AUTO_APPROVE", "auto_approve", &cfg.AutoApprove)
	b("PLAN_MODE", "plan_mode", &cfg.PlanMode)
	b("PERSIST_SESSION", "persist_session", &cfg.PersistSession)
	b("VERBOSE", "verbose", &cfg.Verbose)
	i("EMPTY_RESULT_THRESHOLD", "empty_result_threshold", &cfg.EmptyResultThreshold)
}

func applyOverrides(cfg *RuntimeConfig, meta *Metadata, ov Overrides) {
	if ov.AgentName != nil {
		cfg.AgentName = *ov.AgentName
		meta.sources["agent_name"] = SourceOverride
	}
	if ov.SandboxBaseURL != nil {
		cfg.SandboxBaseURL = *ov.SandboxBaseURL
		meta.sources["sandbox_base_url"] = SourceOverride
	}
	if ov.Model != nil {
		cfg.Model = *ov.Model
		meta.sources["model"] = SourceOverride
	}
	if ov.AutoApprove != nil {
		cfg.AutoApprove = *ov.AutoApprove
		meta.sources["auto_approve"] = SourceOverride
	}
	if ov.PlanMode != nil {
		cfg.PlanMode = *ov.PlanMode
		meta.sources["plan_mode"] = SourceOverride
	}
	if ov.PersistSession != nil {
		cfg.PersistSession = *ov.PersistSession
		meta.sources["persist_session"] = SourceOverride
	}
	if ov.Verbose != nil {
		cfg.Verbose = *ov.Verbose
		meta.sources["verbose"] = SourceOverride
	}
}

// ResolvedStateRoot expands ~ and env vars in StateRoot.
func (c RuntimeConfig) ResolvedStateRoot() string {
	return filestore.ResolvePath(c.StateRoot, DefaultStateRoot)
}

// AgentStateDir returns the per-agent state directory.
func (c RuntimeConfig) AgentStateDir() string {
	return filepath.Join(c.ResolvedStateRoot(), c.AgentName)
}

// sortedToolServerNames returns tool server names sorted for fingerprinting.
func sortedToolServerNames(servers []ToolServer) []string {
	names := make([]string, 0, len(servers))
	for _, s := range servers {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
