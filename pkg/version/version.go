package version

import "fmt"

// Set through -ldflags at build time; unset builds report "dev".
var (
	version   = "dev"
	revision  = "unknown"
	buildDate = "unknown"
)

// Info carries the build identity of the running binary.
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	BuildDate string `json:"build_date"`
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Version:   version,
		Revision:  revision,
		BuildDate: buildDate,
	}
}

// String renders the info on one line.
func (i Info) String() string {
	return fmt.Sprintf("lyrisync %s (revision %s, built %s)", i.Version, i.Revision, i.BuildDate)
}
