package dto

import "time"

// UpdateUserStatusRequest toggles a user's active flag.
type UpdateUserStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AdminStats aggregates platform counters for the admin overview.
type AdminStats struct {
	TotalUsers     int           `json:"total_users"`
	TotalLecturers int           `json:"total_lecturers"`
	TotalStudents  int           `json:"total_students"`
	TotalAdmins    int           `json:"total_admins"`
	System         SystemMetrics `json:"system"`
}

// SystemMetrics is a lightweight snapshot of runtime counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
