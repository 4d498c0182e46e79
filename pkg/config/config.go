package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel      string // sets the log level (zap log level values)
	LogFormat     string // text vs json
	LogFilter     string // zapfilter rules for per-component levels
	NatsURL       string // URL of the NATS server
	SubjectPrefix string // prefix for NATS subjects (e.g. "pitbox.live")
	ReplaySpeed   int    // speed multiplier for replay (0 = no delay)
	MinConfidence float64
)
