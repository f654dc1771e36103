package launcher

import (
	"os"
	"strconv"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// VerboseEnv names the environment variable holding the log verbosity.
const VerboseEnv = "LUASTOW_VERBOSE"

// quietVerbosity disables all log output, so that by default the only thing
// the launcher writes is a diagnostic line on failure.
const quietVerbosity = -4

var log = commonlog.GetLogger("luastow.launcher")

// ConfigureLogging sets up the log backend from VerboseEnv. 0 logs notices,
// 1 adds info, 2 and above add debug output.
func ConfigureLogging() {
	verbosity := quietVerbosity
	if v, ok := os.LookupEnv(VerboseEnv); ok {
		if n, err := strconv.Atoi(v); err == nil {
			verbosity = n
		}
	}
	commonlog.Configure(verbosity, nil)
}
