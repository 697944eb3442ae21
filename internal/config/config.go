package config

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Transcription contains the remote transcription service defaults. Values
// persisted with `captioner settings set` take precedence at runtime.
type Transcription struct {
	APIEndpoint    string `toml:"api_endpoint"`
	OutputFormat   string `toml:"output_format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Host describes how commands reach the host application.
type Host struct {
	Transport  string   `toml:"transport"`
	SocketPath string   `toml:"socket_path"`
	Command    string   `toml:"command"`
	Args       []string `toml:"args"`
	// CommandTimeoutSeconds bounds each host call. Zero waits indefinitely.
	CommandTimeoutSeconds int `toml:"command_timeout_seconds"`
	// DevProjectPath is the simulated project used by the fake transport.
	DevProjectPath        string `toml:"dev_project_path"`
	MinFreeSpaceMegabytes int    `toml:"min_free_space_mb"`
}

// DevServer configures the local fake transcription service.
type DevServer struct {
	Addr  string `toml:"addr"`
	Model string `toml:"model"`
}

// Notifications configures ntfy run notifications. An empty topic disables them.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for captioner.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Host          Host          `toml:"host"`
	DevServer     DevServer     `toml:"dev_server"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}
