//go:build !windows

package producer

import "syscall"

var terminateSignal = syscall.SIGTERM
