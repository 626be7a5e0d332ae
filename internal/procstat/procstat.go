// Package procstat samples resource usage of the encoder process.
package procstat

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Stats is a point-in-time sample of one process.
type Stats struct {
	PID        int32         `json:"pid" yaml:"pid"`
	Name       string        `json:"name" yaml:"name"`
	CPUPercent float64       `json:"cpu_percent" yaml:"cpu_percent"`
	RSSBytes   uint64        `json:"rss_bytes" yaml:"rss_bytes"`
	Uptime     time.Duration `json:"uptime" yaml:"uptime"`
}

// Alive reports whether a process with pid exists. Non-positive pids are
// never alive.
func Alive(ctx context.Context, pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExistsWithContext(ctx, int32(pid))
	return err == nil && ok
}

// Sample reads CPU and memory usage for pid. CPU is averaged over the
// lifetime of the process.
func Sample(ctx context.Context, pid int) (Stats, error) {
	if pid <= 0 {
		return Stats{}, fmt.Errorf("invalid pid %d", pid)
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Stats{}, fmt.Errorf("process %d: %w", pid, err)
	}

	s := Stats{PID: p.Pid}
	if name, err := p.NameWithContext(ctx); err == nil {
		s.Name = name
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		s.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		s.RSSBytes = mem.RSS
	}
	if created, err := p.CreateTimeWithContext(ctx); err == nil && created > 0 {
		s.Uptime = time.Since(time.UnixMilli(created)).Truncate(time.Second)
	}
	return s, nil
}

// HumanBytes formats n with a binary unit suffix.
func HumanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
