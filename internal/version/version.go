package version

// Version is the build version of spreadfetch, set with
// -ldflags "-X github.com/rxtech-lab/argo-spreadfetch/internal/version.Version=1.2.3".
// "main" marks a development build.
var Version = "main"

// SchemaVersion is the tick store layout this build reads and writes.
const SchemaVersion = "1.0.0"

// GetVersion returns the build version.
func GetVersion() string {
	return Version
}
