package config

// Loop defines the iteration loop settings from .fresher/config.yaml.
type Loop struct {
	// Mode is the current run mode ("planning" or "building").
	Mode string `yaml:"mode"`
	// MaxIterations caps the loop; 0 means unlimited.
	MaxIterations int `yaml:"max_iterations"`
	// SmartTermination stops the loop when an iteration produced no
	// commits and left the revision unchanged.
	SmartTermination bool `yaml:"smart_termination"`
	// DangerousPermissions passes --dangerously-skip-permissions to the worker.
	DangerousPermissions bool `yaml:"dangerous_permissions"`
	// MaxTurns caps the worker's turns per iteration.
	MaxTurns int `yaml:"max_turns"`
	// Model is the worker model name.
	Model string `yaml:"model"`
}

// Commands holds the project's verification commands, passed through to
// prompt templates and hooks.
type Commands struct {
	Test  string `yaml:"test"`
	Build string `yaml:"build"`
	Lint  string `yaml:"lint"`
}

// Paths holds project directory layout overrides.
type Paths struct {
	LogDir  string `yaml:"log_dir"`
	SpecDir string `yaml:"spec_dir"`
	SrcDir  string `yaml:"src_dir"`
}

// Hooks configures external hook execution.
type Hooks struct {
	Enabled bool `yaml:"enabled"`
	// TimeoutSeconds is the wall-clock limit per hook invocation.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Config represents the .fresher/config.yaml file.
type Config struct {
	Loop     Loop     `yaml:"fresher"`
	Commands Commands `yaml:"commands"`
	Paths    Paths    `yaml:"paths"`
	Hooks    Hooks    `yaml:"hooks"`
}

// Run modes.
const (
	ModePlanning = "planning"
	ModeBuilding = "building"
)
