package model

// ================ Config ================

// RuntimeConfig bounds the conversation loop and tool execution.
type RuntimeConfig struct {
	MaxSteps       int `envconfig:"AGENT_MAX_STEPS" default:"30"`
	ToolTimeout    int `envconfig:"AGENT_TOOL_TIMEOUT_SECONDS" default:"30"`
	MemoryMaxTurns int `envconfig:"AGENT_MEMORY_MAX_TURNS" default:"20"`
}

// EngineConfig selects and configures the language-model backend.
// Provider is "openai" or "gemini"; agents carry their own model name and
// sampling parameters.
type EngineConfig struct {
	Provider string `envconfig:"ENGINE_PROVIDER" default:"openai"`
	APIKey   string `envconfig:"ENGINE_API_KEY"`
	BaseURL  string `envconfig:"ENGINE_BASE_URL"`
}

// DatasetConfig configures the decentralized interaction-log sink.
type DatasetConfig struct {
	NatsURL string `envconfig:"DATASET_NATS_URL"`
	Subject string `envconfig:"DATASET_SUBJECT" default:"memedici.interactions"`
}

// ServerConfig configures the HTTP layer.
type ServerConfig struct {
	Addr string `envconfig:"SERVER_ADDR" default:":8080"`
}
