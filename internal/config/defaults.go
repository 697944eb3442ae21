package config

const (
	defaultStateDir              = "~/.local/share/captioner"
	defaultLogDir                = "~/.local/share/captioner/logs"
	defaultAPIEndpoint           = "http://localhost:5000"
	defaultOutputFormat          = "srt"
	defaultTimeoutSeconds        = 30
	defaultHostTransport         = TransportSocket
	defaultHostSocketPath        = "~/.local/share/captioner/host.sock"
	defaultHostCommandTimeout    = 0
	defaultDevProjectPath        = "~/.local/share/captioner/dev/Demo Project.prproj"
	defaultDevServerAddr         = "127.0.0.1:5000"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultMinFreeSpaceMegabytes = 200
	defaultNotifyTimeoutSeconds  = 10
)

// Host transports.
const (
	TransportSocket = "socket"
	TransportExec   = "exec"
	TransportFake   = "fake"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Transcription: Transcription{
			APIEndpoint:    defaultAPIEndpoint,
			OutputFormat:   defaultOutputFormat,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Host: Host{
			Transport:             defaultHostTransport,
			SocketPath:            defaultHostSocketPath,
			CommandTimeoutSeconds: defaultHostCommandTimeout,
			DevProjectPath:        defaultDevProjectPath,
			MinFreeSpaceMegabytes: defaultMinFreeSpaceMegabytes,
		},
		DevServer: DevServer{
			Addr:  defaultDevServerAddr,
			Model: "base",
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
