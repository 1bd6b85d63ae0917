package config

// Configfile represents the structure of the getver config.yaml file.
// Unset fields keep their defaults.
type Configfile struct {
	Registry    string    `yaml:"registry"`
	Resource    string    `yaml:"resource"`
	Envelope    string    `yaml:"envelope"`
	UserAgent   string    `yaml:"user_agent"`
	Concurrency *int      `yaml:"concurrency"`
	Timeout     string    `yaml:"timeout"`
	Output      string    `yaml:"output"`
	Trace       *TraceDTO `yaml:"trace"`
}

// TraceDTO represents the tracing section of the config file.
type TraceDTO struct {
	Exporter     string `yaml:"exporter"`
	FilePath     string `yaml:"file_path"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}
