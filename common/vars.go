package common

var (
	// Version is overridden at build time via -ldflags "-X .../common.Version=..."
	Version = "dev"

	// PackageName is used as the metrics namespace.
	PackageName = "token_governance"
)
