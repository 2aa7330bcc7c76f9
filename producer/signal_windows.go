//go:build windows

package producer

import "os"

// Windows has no SIGTERM; Kill is the only signal os.Process supports.
var terminateSignal = os.Kill
