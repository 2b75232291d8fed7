package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/pkg/lifecycle"
	"github.com/rs/zerolog/log"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
	forcefulTimeout = time.Second
)

// Coordinator 负责编排应用程序的停机流程：先关闭HTTP服务器，再优雅停止后台服务，
// 超时后强制停机。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager

	HTTPTimeout     time.Duration
	GracefulTimeout time.Duration
	ForcefulTimeout time.Duration
}

// NewCoordinator 创建一个使用默认超时的停机协调器。
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
		HTTPTimeout:     httpTimeout,
		GracefulTimeout: gracefulTimeout,
		ForcefulTimeout: forcefulTimeout,
	}
}

// ListenForSignalsAndShutdown 阻塞直到收到 SIGINT 或 SIGTERM，然后执行停机流程。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("收到关闭信号，开始优雅停机")

	c.Shutdown(server)
}

// Shutdown 关闭HTTP服务器，允许正在进行的请求完成，然后分两阶段停止后台服务。
func (c *Coordinator) Shutdown(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.HTTPTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Gin服务器关闭错误")
	} else {
		log.Info().Msg("Gin服务器已关闭")
	}

	// 阶段一: 优雅停机
	log.Info().Dur("timeout", c.GracefulTimeout).Msg("第一阶段停机：等待后台服务完成任务")
	c.GracefulManager.Shutdown()
	remaining := c.GracefulManager.WaitWithTimeout(c.GracefulTimeout)
	if len(remaining) > 0 {
		// 阶段二: 强制停机
		log.Warn().Strs("services", remaining).Dur("timeout", c.ForcefulTimeout).Msg("第一阶段超时，发送第二停机信号")
		c.ForcefulManager.Shutdown()
		if left := c.ForcefulManager.WaitWithTimeout(c.ForcefulTimeout); len(left) > 0 {
			log.Error().Strs("services", left).Msg("强制停机后仍有服务未退出")
		}
	}

	log.Info().Msg("优雅停机完成")
}
