package config

const (
	defaultMockListen   = ":4040"
	defaultRecordDriver = "memory"
	defaultLogLevel     = "info"
	defaultLogFormat    = "pretty"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Mock: MockConfig{
			Listen: defaultMockListen,
		},
		Record: RecordConfig{
			Driver: defaultRecordDriver,
		},
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
