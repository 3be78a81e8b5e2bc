//go:build !linux

package sysinfo

import "errors"

func procMem() (ProcMem, error) {
	return ProcMem{}, errors.New("process memory stats not supported on this platform")
}
