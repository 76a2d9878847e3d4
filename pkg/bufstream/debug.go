package bufstream

import (
	"os"
)

// DebugEnvironmentVariable is the environment variable that enables debug
// logging when set to "1".
const DebugEnvironmentVariable = "BUFSTREAM_DEBUG"

// DebugEnabled controls whether or not debugging is enabled. It is set
// automatically based on the BUFSTREAM_DEBUG environment variable.
var DebugEnabled bool

func init() {
	// Check whether or not debugging should be enabled.
	DebugEnabled = os.Getenv(DebugEnvironmentVariable) == "1"
}
