package version

// Version is the build version, overridden at build time:
//
//	go build -ldflags "-X github.com/detectivekit/casegraph/internal/version.Version=v1.2.3"
var Version = "dev"
