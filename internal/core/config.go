package core

// RuntimeConfig contains configuration passed to the renderer at start-up.
type RuntimeConfig struct {
	ScreenW int   // Screen width in characters
	ScreenH int   // Screen height in characters
	AnimFPS int   // Delta replay steps per second
	Seed    int64 // RNG seed; 0 means use current time
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW: 80,
		ScreenH: 24,
		AnimFPS: 12,
		Seed:    0,
	}
}
