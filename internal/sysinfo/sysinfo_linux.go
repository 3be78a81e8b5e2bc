//go:build linux

package sysinfo

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const procSelfStatm = "/proc/self/statm"

// procMem parses /proc/self/statm: total program size and resident set size,
// both in pages.
func procMem() (ProcMem, error) {
	mem := ProcMem{}

	data, err := os.ReadFile(procSelfStatm)
	if err != nil {
		return mem, err
	}

	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return mem, fmt.Errorf("unexpected statm format: %q", string(data))
	}

	pageSize := uint64(os.Getpagesize())

	size, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return mem, err
	}
	mem.Size = size * pageSize

	resident, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return mem, err
	}
	mem.Resident = resident * pageSize

	return mem, nil
}
