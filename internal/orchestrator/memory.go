package orchestrator

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// rssMB samples the current process's resident set size in megabytes. It is
// diagnostic only (see domain.Job.MemRSSStartMB/EndMB) and never fails the
// caller — an unreadable /proc/self/status just yields 0. No package in the
// retrieved corpus offers RSS sampling, so this one reads procfs directly.
func rssMB() float64 {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0
		}
		return kb / 1024.0
	}
	return 0
}
