package platform

// Version is reported by the health endpoint and the CLI. Overridden at build
// time via -ldflags "-X tradeworks-estimate/pkg/platform.Version=...".
var Version = "dev"
