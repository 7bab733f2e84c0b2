package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "sra-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EntrezConfig holds settings for the NCBI E-utilities archive client.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI api_key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of attempts for a failed archive call (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxSearchResults caps the UIDs requested per keyword search (default
	// 100). Keywords with more hits are truncated, with a warning.
	MaxSearchResults int `json:"max_search_results" yaml:"max_search_results"`

	// RequestDelay is the pause between consecutive archive requests (default
	// 350ms; NCBI allows 3 req/s without an API key).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// SaveXMLDir, when set, is a directory where fetched SRA experiment XML
	// documents are persisted alongside a YAML metadata sidecar.
	SaveXMLDir string `json:"save_xml_dir,omitempty" yaml:"save_xml_dir,omitempty"`
}

// GEOConfig holds settings for the GEO linked-record fetcher.
type GEOConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxSummaryLines bounds the reduced SOFT summary handed to the LLM (default 25).
	MaxSummaryLines int `json:"max_summary_lines" yaml:"max_summary_lines"`

	// SaveSoftDir, when set, is a directory where fetched GEO SOFT documents
	// are persisted.
	SaveSoftDir string `json:"save_soft_dir,omitempty" yaml:"save_soft_dir,omitempty"`
}

// LLMConfig holds settings for the local inference endpoint.
type LLMConfig struct {
	// Model is the model identifier served by the endpoint (e.g. "gemma3:12b-it-qat").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the OpenAI-compatible API root of the inference service
	// (e.g. "http://localhost:11434/v1" for Ollama).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout is the per-request timeout; local models can be slow (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// AuditDir is the directory receiving one raw synthesis response record
	// per experiment identifier (default "synthesis_responses").
	AuditDir string `json:"audit_dir" yaml:"audit_dir"`
}

// OutputConfig holds settings for the CSV result sink.
type OutputConfig struct {
	// Path is the output CSV file. An existing non-empty file is appended to
	// without rewriting the header, enabling resumed runs.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations. It is constructed once at
// startup and threaded through every component constructor; components never
// consult ambient state.
type PipelineConfig struct {
	Entrez EntrezConfig `json:"entrez" yaml:"entrez"`
	GEO    GEOConfig    `json:"geo" yaml:"geo"`
	LLM    LLMConfig    `json:"llm" yaml:"llm"`
	Output OutputConfig `json:"output" yaml:"output"`

	// Workers is the pipeline worker-pool width. The default of 1 runs
	// experiments strictly sequentially, which is the recommended mode when
	// the inference service handles one request at a time.
	Workers int `json:"workers" yaml:"workers"`
}

// Normalized returns a copy with defaults applied to unset fields.
func (c PipelineConfig) Normalized() PipelineConfig {
	if c.Entrez.Timeout <= 0 {
		c.Entrez.Timeout = 60 * time.Second
	}
	if c.Entrez.UserAgent == "" {
		c.Entrez.UserAgent = "sra-harvest/0.1"
	}
	if c.Entrez.MaxRetries <= 0 {
		c.Entrez.MaxRetries = 3
	}
	if c.Entrez.MaxSearchResults <= 0 {
		c.Entrez.MaxSearchResults = 100
	}
	if c.Entrez.RequestDelay <= 0 {
		c.Entrez.RequestDelay = 350 * time.Millisecond
	}
	if c.GEO.Timeout <= 0 {
		c.GEO.Timeout = 30 * time.Second
	}
	if c.GEO.UserAgent == "" {
		c.GEO.UserAgent = c.Entrez.UserAgent
	}
	if c.GEO.MaxSummaryLines <= 0 {
		c.GEO.MaxSummaryLines = 25
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434/v1"
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 2 * time.Minute
	}
	if c.LLM.AuditDir == "" {
		c.LLM.AuditDir = "synthesis_responses"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}
