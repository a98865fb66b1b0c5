// Package system holds process-level helpers: file descriptor limits and a
// memory sanity check before large rasterizations.
package system

import (
	"fmt"
	"log"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open-file limit; LibreOffice and MuPDF both
// open a fair number of font and temp files per run.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not read file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not raise file limit: %v", err)
	}
}

// CheckRasterBudget estimates the RGBA pixmap size for rendering a page of
// the given point size at dpi and compares it against available memory.
// Returns an error describing the shortfall; callers typically log it as a
// warning rather than aborting.
func CheckRasterBudget(pageW, pageH float64, dpi int) error {
	px := pageW / 72 * float64(dpi)
	py := pageH / 72 * float64(dpi)
	if px <= 0 || py <= 0 {
		return nil
	}
	need := uint64(px) * uint64(py) * 4

	vm, err := mem.VirtualMemory()
	if err != nil {
		// Best effort; not every platform reports memory.
		return nil
	}

	if need > vm.Available {
		return fmt.Errorf("page raster at %d DPI needs ~%d MiB but only %d MiB available; consider a lower --dpi",
			dpi, need/(1<<20), vm.Available/(1<<20))
	}
	return nil
}
