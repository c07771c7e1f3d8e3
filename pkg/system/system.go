// SPDX-License-Identifier: GPL-2.0-or-later

package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kinectplay/pkg/log"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status stores system status.
type Status struct {
	CPUUsage int
	RAMUsage int
}

type cpuFunc func(context.Context, time.Duration, bool) ([]float64, error)
type ramFunc func() (*mem.VirtualMemoryStat, error)

// System samples resource usage while the decode pipes run.
type System struct {
	cpu cpuFunc
	ram ramFunc

	status   Status
	duration time.Duration

	logf func(log.Level, string, ...interface{})
	mu   sync.Mutex
	o    sync.Once
}

// New returns System.
func New(logf func(log.Level, string, ...interface{})) *System {
	return &System{
		cpu: cpu.PercentWithContext,
		ram: mem.VirtualMemory,

		duration: 10 * time.Second,

		logf: logf,
	}
}

func (s *System) update(ctx context.Context) error {
	cpuUsage, err := s.cpu(ctx, s.duration, false)
	if err != nil {
		return fmt.Errorf("could not get cpu usage %v", err)
	}
	ramUsage, err := s.ram()
	if err != nil {
		return fmt.Errorf("could not get ram usage %v", err)
	}

	s.mu.Lock()
	s.status = Status{
		CPUUsage: int(cpuUsage[0]),
		RAMUsage: int(ramUsage.UsedPercent),
	}
	s.mu.Unlock()

	s.logf(log.LevelDebug, "cpu %v%% ram %v%%", s.status.CPUUsage, s.status.RAMUsage)
	return nil
}

// StatusLoop updates system status until context is canceled.
func (s *System) StatusLoop(ctx context.Context) {
	s.o.Do(func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := s.update(ctx); err != nil {
				s.logf(log.LevelWarning, "could not update system status: %v", err)
			}
		}
	})
}

// Status returns cpu and ram usage.
func (s *System) Status() Status {
	defer s.mu.Unlock()
	s.mu.Lock()
	return s.status
}

// DiskSpace returns the free bytes on the volume holding path.
func DiskSpace(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("could not get disk usage: %w", err)
	}
	return usage.Free, nil
}
