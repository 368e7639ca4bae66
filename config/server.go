package config

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr"`
	// AllowedOrigins lists the CORS origins; "*" allows any.
	AllowedOrigins []string `json:"allowed_origins"`
	// Token, when set, must be sent as a bearer token to read the run log.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}
