package version

var (
	// Version contains the current version of trafficd
	Version = "dev"

	// CommitHash contains the current git commit hash
	CommitHash = "unknown"

	// BuildTime contains the time of build
	BuildTime = "unknown"
)

const (
	// Protocol is the version of the activity notification stream.
	Protocol = "1.0.0"

	// MinProtocol is the oldest client protocol still served.
	MinProtocol = "1.0.0"
)
