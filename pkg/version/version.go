// Package version exposes build-time version metadata.
package version

// DomainkitVersion is the semantic version string embedded at build time.
var DomainkitVersion = "0.0.0-src"

// Set version at compile time with
// go build -ldflags "-X domainkit/pkg/version.DomainkitVersion=1.0.0" -o domainkit

// For a release build with version and optimization flags:
// go build -ldflags "-s -w -X domainkit/pkg/version.DomainkitVersion=1.0.0" -o domainkit
