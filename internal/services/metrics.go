package services

import (
	"context"
	"os"
	"time"

	"toursite-backend-go/internal/models"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostSample is a point-in-time view of the machine running the API.
type HostSample struct {
	CapturedAt        time.Time `json:"capturedAt"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	DiskTotalBytes    int64     `json:"diskTotalBytes"`
	DiskUsedBytes     int64     `json:"diskUsedBytes"`
	ProcessCpuLoad    float64   `json:"processCpuLoad"`
	SystemCpuLoad     float64   `json:"systemCpuLoad"`
}

// CaptureHost samples memory, disk and CPU. Probes that fail leave zeros.
func CaptureHost(diskPath string) HostSample {
	sample := HostSample{CapturedAt: time.Now().UTC()}
	if memStat, err := mem.VirtualMemory(); err == nil {
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.Usage(diskPath)
	if err != nil {
		diskStat, err = disk.Usage("/")
	}
	if err == nil && diskStat != nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if rss, err := proc.MemoryInfo(); err == nil && rss != nil {
			sample.ProcessRSSBytes = int64(rss.RSS)
		}
		if pct, err := proc.CPUPercent(); err == nil {
			sample.ProcessCpuLoad = pct / 100.0
		}
	}
	if sysCPU, err := cpu.Percent(0, false); err == nil && len(sysCPU) > 0 {
		sample.SystemCpuLoad = sysCPU[0] / 100.0
	}
	return sample
}

type DashboardSummary struct {
	Bookings     map[models.BookingStatus]int `json:"bookings"`
	Packages     int                          `json:"packages"`
	BlogPosts    int                          `json:"blogPosts"`
	GalleryItems int                          `json:"galleryItems"`
	Subscribers  int                          `json:"subscribers"`
	Host         HostSample                   `json:"host"`
	GeneratedAt  time.Time                    `json:"generatedAt"`
}

type CountFunc func(ctx context.Context) (int, error)

// Dashboard gathers the admin overview numbers.
type Dashboard struct {
	BookingsByStatus func(ctx context.Context) (map[models.BookingStatus]int, error)
	Packages         CountFunc
	BlogPosts        CountFunc
	GalleryItems     CountFunc
	Subscribers      CountFunc
	DiskPath         string
	Sample           func(diskPath string) HostSample
}

func (d Dashboard) Summary(ctx context.Context) (DashboardSummary, error) {
	summary := DashboardSummary{Bookings: map[models.BookingStatus]int{}, GeneratedAt: time.Now().UTC()}
	if d.BookingsByStatus != nil {
		counts, err := d.BookingsByStatus(ctx)
		if err != nil {
			return DashboardSummary{}, err
		}
		summary.Bookings = counts
	}
	for _, c := range []struct {
		fn  CountFunc
		dst *int
	}{
		{d.Packages, &summary.Packages},
		{d.BlogPosts, &summary.BlogPosts},
		{d.GalleryItems, &summary.GalleryItems},
		{d.Subscribers, &summary.Subscribers},
	} {
		if c.fn == nil {
			continue
		}
		n, err := c.fn(ctx)
		if err != nil {
			return DashboardSummary{}, err
		}
		*c.dst = n
	}
	sample := d.Sample
	if sample == nil {
		sample = CaptureHost
	}
	summary.Host = sample(d.DiskPath)
	return summary, nil
}

// StreamHost publishes a host sample to the hub every interval until ctx ends.
func StreamHost(ctx context.Context, hub *EventHub, diskPath string, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if hub.Count() == 0 {
				continue
			}
			hub.Publish("host.sample", CaptureHost(diskPath))
		case <-ctx.Done():
			return
		}
	}
}
