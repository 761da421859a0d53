package handler

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type SystemHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	started time.Time
}

func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client) *SystemHandler {
	return &SystemHandler{pool: pool, rdb: rdb, started: time.Now()}
}

// GET /health
//
// Process stats plus downstream connectivity. Returns 503 when Postgres or
// Redis is unreachable so load balancers rotate the instance out.
func (h *SystemHandler) Health(c fiber.Ctx) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	dbOK := h.pool.Ping(c.Context()) == nil
	redisOK := h.rdb.Ping(c.Context()).Err() == nil

	status := fiber.StatusOK
	if !dbOK || !redisOK {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"alloc_bytes":    mem.Alloc,
		"sys_bytes":      mem.Sys,
		"num_goroutine":  runtime.NumGoroutine(),
		"database":       dbOK,
		"redis":          redisOK,
	})
}
