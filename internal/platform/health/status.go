package health

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// State is the health of the ranking cache.
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateRebuilding:
		return "rebuilding"
	}
	return "unknown"
}

// status 是缓存健康状态机。它记录Redis的run_id，以区分重启（有序集合被清空）与正常连接。
type status struct {
	mu             sync.RWMutex
	state          State
	lastKnownRunID string
}

func (s *status) get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *status) setInitialRunID(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKnownRunID = runID
}

// assess 应用一次探测结果，并返回是否需要重建缓存。
//
// 从degraded恢复必须经过重建：断连期间的事件只写入了账本，没有写入缓存。
func (s *status) assess(connected bool, runID string) (needsRebuild bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateHealthy:
		if !connected {
			s.state = StateDegraded
			log.Warn().Msg("健康检查: Redis不可达，状态 -> degraded")
		} else if s.lastKnownRunID != "" && s.lastKnownRunID != runID {
			s.state = StateRebuilding
			needsRebuild = true
			log.Warn().Str("old_run_id", s.lastKnownRunID).Str("new_run_id", runID).Msg("健康检查: 检测到Redis重启，状态 -> rebuilding")
		}
	case StateDegraded:
		if connected {
			s.state = StateRebuilding
			needsRebuild = true
			log.Warn().Str("run_id", runID).Msg("健康检查: Redis恢复连接，状态 -> rebuilding")
		}
	case StateRebuilding:
		if !connected {
			s.state = StateDegraded
			log.Warn().Msg("健康检查: 重建期间Redis断开，状态 -> degraded")
		} else {
			// 仍处于rebuilding表示上一次重建失败
			needsRebuild = true
			log.Info().Msg("健康检查: 重试缓存重建")
		}
	}

	if connected {
		s.lastKnownRunID = runID
	}
	return needsRebuild
}

// rebuildDone 记录一次重建结果。只有重建期间run_id保持不变，重建才有效。
func (s *status) rebuildDone(success bool, runIDAfter string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRebuilding {
		return
	}
	if success && s.lastKnownRunID != runIDAfter {
		log.Error().Str("old_run_id", s.lastKnownRunID).Str("new_run_id", runIDAfter).Msg("健康检查: 重建期间Redis重启，本次重建作废")
		s.lastKnownRunID = runIDAfter
		return
	}
	if success {
		s.state = StateHealthy
		log.Info().Msg("健康检查: 缓存重建完成，状态 -> healthy")
		return
	}
	log.Error().Msg("健康检查: 缓存重建失败，保持rebuilding")
}
