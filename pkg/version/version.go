package version

import (
	"fmt"
	"runtime"
)

// Version represents the current version of sbld.
type Version struct {
	Major    string
	Minor    string
	Patch    string
	Metadata string
}

// SBLDVersion is the current version of sbld.
var SBLDVersion = Version{
	Major: "0", Minor: "3", Patch: "1", Metadata: "",
}

func (v Version) String() string {
	ver := fmt.Sprintf("Version: %s.%s.%s", v.Major, v.Minor, v.Patch)
	if v.Metadata != "" {
		ver += "-" + v.Metadata
	}
	return ver
}

// BuildInfo returns the Go runtime the binary was built with.
func BuildInfo() string {
	return runtime.Version()
}
