package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

const fileLimit = 2048

// InitResourceLimits raises the open file limit; frame workers keep several
// files open at once.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Failed to read open file limit: %v", err)
		return
	}
	if rLimit.Cur >= fileLimit {
		return
	}

	rLimit.Cur = fileLimit
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Failed to raise open file limit: %v", err)
	} else {
		fmt.Printf("[*] Open file limit raised to %d\n", rLimit.Cur)
	}
}

// hardwareEncoders in order of preference; libx264 is the fallback
var hardwareEncoders = []string{"h264_videotoolbox", "h264_nvenc"}

const SoftwareEncoder = "libx264"

// GetBestH264Encoder asks ffmpeg which encoders it was built with and picks
// the preferred hardware one, or libx264.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return SoftwareEncoder
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range hardwareEncoders {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return SoftwareEncoder
}

// DefaultWorkers returns the number of logical CPUs
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// HostStats is a snapshot of memory use for the performance report
type HostStats struct {
	TotalMB     uint64
	UsedPercent float64
	ProcessRSS  uint64 // MB
	CPUs        int
}

// ReadHostStats collects host and process memory figures. Fields that cannot
// be read stay zero.
func ReadHostStats() HostStats {
	var s HostStats
	if vm, err := mem.VirtualMemory(); err == nil {
		s.TotalMB = vm.Total / 1024 / 1024
		s.UsedPercent = vm.UsedPercent
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			s.ProcessRSS = mi.RSS / 1024 / 1024
		}
	}
	s.CPUs = DefaultWorkers()
	return s
}

func (s HostStats) String() string {
	return fmt.Sprintf("cpus=%d mem=%dMB used=%.1f%% rss=%dMB", s.CPUs, s.TotalMB, s.UsedPercent, s.ProcessRSS)
}
