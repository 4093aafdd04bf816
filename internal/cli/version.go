package cli

import "pkt.systems/version"

func init() {
	version.SetDefaultModule("github.com/fsmiamoto/rebalance")
}

// VersionString is the module path and build version, e.g. for `rebalance
// version` and the usage banner.
func VersionString() string {
	return version.Module() + " " + version.Current()
}
