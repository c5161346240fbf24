package common

import (
	"jobclean/status"
)

// MT: Constant after initialization; thread-safe
var Log status.Logger = status.Default()

// Apply the -v / -debug flags.  Only ever lowers the level so that a config file setting of
// "debug" is not undone by a missing -v.

func ApplyVerbosity(verbose, debug bool) {
	if debug {
		Log.LowerLevelTo(status.LogLevelDebug)
	} else if verbose {
		Log.LowerLevelTo(status.LogLevelInfo)
	}
}
