package logger

// Config controls how the service logger is built.
type Config struct {
	// Level is the minimum level: debug, info, warn, error or fatal.
	Level string `env:"LOG_LEVEL" yaml:"level"`
	// Format is "json" (default) or "console" for local development.
	Format string `env:"LOG_FORMAT" yaml:"format"`
	// Development turns off sampling and enables caller-friendly output.
	Development bool `yaml:"development"`
	// OutputPaths lists zap sinks; stdout when empty.
	OutputPaths []string `yaml:"output_paths"`
	// Service is attached to every entry as the "service" field when set.
	Service string `yaml:"service"`
}

const (
	defaultLevel  = "info"
	defaultFormat = "json"
	formatConsole = "console"
)

func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = defaultLevel
	}
	if c.Format == "" {
		c.Format = defaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}
