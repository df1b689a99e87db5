package service

import (
	"runtime"
	"time"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Status is a snapshot of the host and the blog process.
type Status struct {
	Version  string    `json:"version"`
	Cpu      float64   `json:"cpu"`
	CpuCores int       `json:"cpuCores"`
	Loads    []float64 `json:"loads"`
	Uptime   uint64    `json:"uptime"`
	Mem      struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"mem"`
	Disk struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"disk"`
	AppStats struct {
		Goroutines int    `json:"goroutines"`
		Mem        uint64 `json:"mem"`
		Uptime     uint64 `json:"uptime"`
	} `json:"appStats"`
}

// ServerService reports host resource usage to admins. Probe failures are
// logged and leave the affected fields zero.
type ServerService struct {
	started time.Time
}

func NewServerService() *ServerService {
	return &ServerService{started: time.Now()}
}

func (s *ServerService) GetStatus() *Status {
	status := &Status{Version: config.GetVersion()}

	if percents, err := cpu.Percent(0, false); err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}

	cores, err := cpu.Counts(false)
	if err != nil {
		logger.Warning("get cpu cores count failed:", err)
	}
	status.CpuCores = cores

	if avg, err := load.Avg(); err != nil {
		logger.Warning("get load avg failed:", err)
	} else {
		status.Loads = []float64{avg.Load1, avg.Load5, avg.Load15}
	}

	if upTime, err := host.Uptime(); err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = upTime
	}

	if memInfo, err := mem.VirtualMemory(); err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.Mem.Current = memInfo.Used
		status.Mem.Total = memInfo.Total
	}

	if diskInfo, err := disk.Usage("/"); err != nil {
		logger.Warning("get disk usage failed:", err)
	} else {
		status.Disk.Current = diskInfo.Used
		status.Disk.Total = diskInfo.Total
	}

	var rtm runtime.MemStats
	runtime.ReadMemStats(&rtm)
	status.AppStats.Mem = rtm.Sys
	status.AppStats.Goroutines = runtime.NumGoroutine()
	status.AppStats.Uptime = uint64(time.Since(s.started).Seconds())

	return status
}
