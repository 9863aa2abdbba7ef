// Package config provides configuration loading for relgate.
package config

// Config is the root configuration.
type Config struct {
	LearningMode             bool                       `json:"learning_mode"               mapstructure:"learning_mode"`
	AutoExecuteMinConfidence float64                    `json:"auto_execute_min_confidence" mapstructure:"auto_execute_min_confidence"`
	PolicyPath               string                     `json:"policy_path"                 mapstructure:"policy_path"`
	AuditLogPath             string                     `json:"audit_log_path"              mapstructure:"audit_log_path"`
	DBPath                   string                     `json:"db_path"                     mapstructure:"db_path"`
	Adapters                 map[string][]AdapterConfig `json:"adapters,omitempty"          mapstructure:"adapters"`
}

// AdapterConfig describes one command adapter, keyed under the action that
// triggers it.
type AdapterConfig struct {
	Name string `json:"name" mapstructure:"name"`
	Cmd  string `json:"cmd"  mapstructure:"cmd"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		AutoExecuteMinConfidence: 0.85,
		PolicyPath:               ".relgate/policy.yaml",
		AuditLogPath:             ".relgate/audit.jsonl",
		DBPath:                   ".relgate/relgate.db",
	}
}

// AdaptersFor returns the adapter configs registered for an action.
func (c Config) AdaptersFor(action string) []AdapterConfig {
	return c.Adapters[action]
}
