// Package server exposes table reading over HTTP.
package server

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address.
	Addr string
	// Columns is the column count used when a request does not set one.
	Columns int
	// Sheet is the 1-based sheet used when a request does not set one.
	Sheet int
	// BodyLimit is the maximum request body size in bytes.
	BodyLimit int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		Columns:   26,
		Sheet:     1,
		BodyLimit: 32 << 20,
	}
}
