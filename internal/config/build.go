package config

// Set at build time, for example:
//
//	go build -ldflags "-X hivewatch/internal/config.version=1.4.0 \
//	    -X hivewatch/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X hivewatch/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the linker-injected build metadata.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
