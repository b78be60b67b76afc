package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"runtime"
	"time"

	"supplysphere/internal/core/session"
)

type Metric struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Status string  `json:"status"` // healthy | warning | critical
}

// SystemService 运行时指标快照
type SystemService struct {
	db       *sql.DB
	sessions session.Store
	started  time.Time
	now      func() time.Time
}

func NewSystemService(db *sql.DB, sessions session.Store) *SystemService {
	return &SystemService{db: db, sessions: sessions, started: time.Now(), now: time.Now}
}

func level(v, warn, crit float64) string {
	switch {
	case v >= crit:
		return "critical"
	case v >= warn:
		return "warning"
	}
	return "healthy"
}

func (s *SystemService) Snapshot(ctx context.Context) ([]Metric, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	heapMB := float64(ms.HeapAlloc) / (1 << 20)
	gor := float64(runtime.NumGoroutine())

	out := []Metric{
		{Name: "Uptime", Value: s.now().Sub(s.started).Round(time.Second).Seconds(), Unit: "s", Status: "healthy"},
		{Name: "Heap In Use", Value: round1(heapMB), Unit: "MB", Status: level(heapMB, 512, 1024)},
		{Name: "Goroutines", Value: gor, Unit: "count", Status: level(gor, 5000, 20000)},
		{Name: "GC Cycles", Value: float64(ms.NumGC), Unit: "count", Status: "healthy"},
	}

	if s.db != nil {
		st := s.db.Stats()
		dbStatus := "healthy"
		if err := s.db.PingContext(ctx); err != nil {
			dbStatus = "critical"
		}
		usage := 0.0
		if st.MaxOpenConnections > 0 {
			usage = float64(st.InUse) * 100 / float64(st.MaxOpenConnections)
		}
		out = append(out,
			Metric{Name: "DB Connections", Value: float64(st.OpenConnections), Unit: "count", Status: dbStatus},
			Metric{Name: "DB Pool Usage", Value: round1(usage), Unit: "%", Status: level(usage, 70, 90)},
			Metric{Name: "DB Wait Count", Value: float64(st.WaitCount), Unit: "count", Status: "healthy"},
		)
	}

	if s.sessions != nil {
		n, err := s.sessions.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count sessions: %w", err)
		}
		out = append(out, Metric{Name: "Active Sessions", Value: float64(n), Unit: "count", Status: "healthy"})
	}
	return out, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
