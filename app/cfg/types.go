package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ChannelsDir   string
	Port          string
	APIAccessKey  string
	WorkerCount   int
	OwnerID       string
	TargetChannel string
	MediaDir      string

	// External services
	GatewayURL string
	OracleURL  string

	// Scheduling intervals, seconds
	IngestInterval   int
	ScoutInterval    int
	DispatchInterval int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
