package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// ledgerTables must be readable for the service to accept clinical writes.
var ledgerTables = []string{"patient", "history_event"}

// Check is one named readiness check reported by /health/db.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// PoolStats is the subset of pgxpool statistics worth exposing.
type PoolStats struct {
	TotalConns    int32  `json:"total_conns"`
	IdleConns     int32  `json:"idle_conns"`
	AcquiredConns int32  `json:"acquired_conns"`
	MaxConns      int32  `json:"max_conns"`
	AcquireWait   string `json:"acquire_wait"`
}

func statsOf(pool *pgxpool.Pool) PoolStats {
	st := pool.Stat()
	return PoolStats{
		TotalConns:    st.TotalConns(),
		IdleConns:     st.IdleConns(),
		AcquiredConns: st.AcquiredConns(),
		MaxConns:      st.MaxConns(),
		AcquireWait:   st.AcquireDuration().String(),
	}
}

// StoreChecks pings the pool and confirms the registry and ledger tables
// exist, which fails on a database that was never migrated.
func StoreChecks(pool *pgxpool.Pool) []Check {
	checks := []Check{{Name: "ping", Run: pool.Ping}}
	for _, table := range ledgerTables {
		query := "SELECT 1 FROM " + table + " LIMIT 1"
		checks = append(checks, Check{Name: table, Run: func(ctx context.Context) error {
			rows, err := pool.Query(ctx, query)
			if err != nil {
				return err
			}
			rows.Close()
			return rows.Err()
		}})
	}
	return checks
}

// HealthResponse is the body of /health/db.
type HealthResponse struct {
	Status  string            `json:"status"`
	Store   string            `json:"store"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
	Pool    *PoolStats        `json:"pool,omitempty"`
}

// HealthHandler runs every check with a shared deadline. The response is 503
// as soon as one of them fails. A nil pool means the in-memory store.
func HealthHandler(pool *pgxpool.Pool, version string, checks ...Check) echo.HandlerFunc {
	store := "memory"
	if pool != nil {
		store = "postgres"
		checks = append(StoreChecks(pool), checks...)
	}
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		res := HealthResponse{Status: "ok", Store: store, Version: version, Checks: map[string]string{}}
		for _, ch := range checks {
			if err := ch.Run(ctx); err != nil {
				res.Status = "unhealthy"
				res.Checks[ch.Name] = err.Error()
				continue
			}
			res.Checks[ch.Name] = "ok"
		}
		if pool != nil {
			stats := statsOf(pool)
			res.Pool = &stats
		}
		code := http.StatusOK
		if res.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, res)
	}
}
