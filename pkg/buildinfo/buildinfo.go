// Package buildinfo carries version metadata stamped in at link time.
package buildinfo

import (
	"encoding/json"
	"net/http"
	"runtime"
	"runtime/debug"
)

// These vars are set at build time via ldflags:
// -X github.com/otherjamesbrown/azurely-cli/pkg/buildinfo.Version=v0.3.0
// -X github.com/otherjamesbrown/azurely-cli/pkg/buildinfo.Commit=4e1c2a9
// -X github.com/otherjamesbrown/azurely-cli/pkg/buildinfo.BuildTime=2026-10-01T09:00:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// ServiceName identifies the binary in /version responses and the User-Agent.
const ServiceName = "azurely"

// Info holds build information for a binary.
type Info struct {
	ServiceName string `json:"service_name" yaml:"service_name"`
	Version     string `json:"version" yaml:"version"`
	Commit      string `json:"commit" yaml:"commit"`
	BuildTime   string `json:"build_time" yaml:"build_time"`
	GoVersion   string `json:"go_version" yaml:"go_version"`
}

// Get returns build info for the named service. When no version was stamped,
// the module version recorded by `go install` is used if there is one.
func Get(serviceName string) Info {
	return Info{
		ServiceName: serviceName,
		Version:     version(),
		Commit:      Commit,
		BuildTime:   BuildTime,
		GoVersion:   runtime.Version(),
	}
}

func version() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// String returns a human-readable one-liner like "v0.3.0 (4e1c2a9, 2026-10-01T09:00:00Z)"
func String() string {
	return version() + " (" + Commit + ", " + BuildTime + ")"
}

// UserAgent returns the User-Agent sent to the analysis service.
func UserAgent() string {
	return ServiceName + "-cli/" + version()
}

// Handler returns an HTTP handler that responds with build info JSON.
func Handler(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := Get(serviceName)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	}
}
