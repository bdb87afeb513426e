// Package version reports the build of the running binary.
//
// Version, commit and build time are set at link time, falling back to the
// VCS stamp the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/talkback/version.Version=1.4.0"
package version
