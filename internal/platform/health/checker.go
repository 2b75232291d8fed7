package health

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/metrics"
	"github.com/SlpAus/ballpark-ranking-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const probeTimeout = 2 * time.Second

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// RunIDFunc returns the run_id of the Redis server currently behind the client.
type RunIDFunc func(ctx context.Context) (string, error)

// RebuildFunc repopulates the cache from the durable store.
type RebuildFunc func(ctx context.Context) error

// RedisRunID reads run_id from INFO server.
func RedisRunID(rdb redis.Cmdable) RunIDFunc {
	return func(ctx context.Context) (string, error) {
		info, err := rdb.Info(ctx, "server").Result()
		if err != nil {
			return "", err
		}
		m := runIDPattern.FindStringSubmatch(info)
		if len(m) < 2 {
			return "", errors.New("run_id missing from redis INFO")
		}
		return m[1], nil
	}
}

// Checker 监控Redis，在Redis重启或断连恢复后重建排行榜缓存。
type Checker struct {
	status  status
	runID   RunIDFunc
	rebuild RebuildFunc
}

func NewChecker(runID RunIDFunc, rebuild RebuildFunc) *Checker {
	c := &Checker{runID: runID, rebuild: rebuild}
	metrics.CacheHealthState.Set(float64(StateHealthy))
	return c
}

// Init 阻塞式获取初始Run ID，即首次构建缓存时所用Redis的run_id。
func (c *Checker) Init(ctx context.Context) error {
	id, err := c.probe(ctx)
	if err != nil {
		return err
	}
	c.status.setInitialRunID(id)
	log.Info().Str("run_id", id).Msg("健康检查: 已记录初始Redis Run ID")
	return nil
}

// Healthy reports whether the cache may serve reads.
func (c *Checker) Healthy() bool {
	return c.status.get() == StateHealthy
}

func (c *Checker) State() State {
	return c.status.get()
}

func (c *Checker) probe(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return c.runID(ctx)
}

// Check 执行一次探测，必要时执行一次缓存重建。
func (c *Checker) Check(ctx context.Context) {
	defer func() { metrics.CacheHealthState.Set(float64(c.status.get())) }()

	id, err := c.probe(ctx)
	if !c.status.assess(err == nil, id) {
		return
	}

	if err := c.rebuild(ctx); err != nil {
		log.Error().Err(err).Msg("健康检查: 缓存重建失败")
		c.status.rebuildDone(false, "")
		return
	}
	after, err := c.probe(ctx)
	if err != nil {
		log.Error().Err(err).Msg("健康检查: 重建完成后Redis立即断开")
		c.status.rebuildDone(false, "")
		return
	}
	c.status.rebuildDone(true, after)
}

// Run 按interval周期检查，直到优雅停机句柄被取消。探测和重建使用强制停机句柄的上下文。
func (c *Checker) Run(gracefulHandle, forcefulHandle *lifecycle.Handle, interval time.Duration) {
	log.Info().Dur("interval", interval).Msg("健康检查: Redis检查器已启动")
	for {
		if err := gracefulHandle.Sleep(interval); err != nil {
			log.Info().Msg("健康检查: 休眠被中断，正在关闭")
			return
		}
		c.Check(forcefulHandle.Ctx())
	}
}

// Handler serves GET /healthz.
func (c *Checker) Handler(ctx *gin.Context) {
	state := c.status.get()
	code := http.StatusOK
	if state != StateHealthy {
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, gin.H{"status": state.String()})
}
