package entities

// TargetConfig defines the sync settings for a single switch
type TargetConfig struct {
	DeviceName     string
	Target         string // management host or IP
	Transport      string
	Platform       string
	Username       string
	Password       string
	EnablePassword string
	Sandbox        bool
}
