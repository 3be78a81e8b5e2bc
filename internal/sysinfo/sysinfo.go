// Package sysinfo reads process memory information from the operating system.
package sysinfo

// ProcMem holds the process memory sizes reported by the OS, in bytes.
type ProcMem struct {
	Size     uint64 // total virtual size
	Resident uint64 // resident set size
}

// ResidentMB returns the process resident set size in mebibytes, or 0 when
// the platform does not expose it.
func ResidentMB() int {
	mem, err := procMem()
	if err != nil {
		return 0
	}
	return int(mem.Resident >> 20)
}
