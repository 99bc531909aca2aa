package tripo

import "time"

// Config configures the Tripo3D client.
type Config struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultConfig returns default Tripo3D config.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.tripo3d.ai/v2/openapi",
		Model:   "v2.5-20250123",
		Timeout: 600 * time.Second,
	}
}
