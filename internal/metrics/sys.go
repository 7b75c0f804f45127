package metrics

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"time"
)

var started = time.Now()

// Runtime is a snapshot of the serving process.
type Runtime struct {
	HeapMB     uint64 `json:"heap_mb"`
	SysMB      uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
	Uptime     string `json:"uptime"`
}

// DiskUsage is the footprint of the data directory: the catalog and ledger
// documents or the database, plus exported shopping lists.
type DiskUsage struct {
	Files int    `json:"files"`
	Bytes int64  `json:"bytes"`
	Size  string `json:"size"`
}

// RecordCounts is the size of the stored catalog and ledger.
type RecordCounts struct {
	Foods   int `json:"foods"`
	Entries int `json:"entries"`
	Usages  int `json:"usages"`
}

// Report is the payload served on the health endpoint.
type Report struct {
	Status    string       `json:"status"`
	Runtime   Runtime      `json:"runtime"`
	Disk      DiskUsage    `json:"disk"`
	Records   RecordCounts `json:"records"`
	CheckedAt time.Time    `json:"checked_at"`
}

// NewReport collects a health report for the data directory.
func NewReport(dataDir string, counts RecordCounts) Report {
	return Report{
		Status:    "ok",
		Runtime:   readRuntime(),
		Disk:      diskUsage(dataDir),
		Records:   counts,
		CheckedAt: time.Now().UTC(),
	}
}

func readRuntime() Runtime {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Runtime{
		HeapMB:     m.HeapAlloc >> 20,
		SysMB:      m.Sys >> 20,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(started).Round(time.Second).String(),
	}
}

// diskUsage counts regular files under dir. Unreadable parts are skipped and
// a missing dir reports zero.
func diskUsage(dir string) DiskUsage {
	var u DiskUsage
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		u.Files++
		u.Bytes += info.Size()
		return nil
	})
	u.Size = humanSize(u.Bytes)
	return u
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

func humanSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v, i := float64(n), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[i])
}
