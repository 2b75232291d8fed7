package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TeamChecker reports whether a team exists.
type TeamChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ResultListener is told about every recorded result so it can re-evaluate whatever
// depends on the game's outcome. It must tolerate being told the same result twice.
type ResultListener interface {
	OnGameResult(ctx context.Context, g Game) error
}

// CreateInput describes a new scheduled game.
type CreateInput struct {
	Date        time.Time
	HomeTeamID  int64
	AwayTeamID  int64
	StadiumName string
}

// ResultInput is a game's new status and, for FINISHED games, the final score.
type ResultInput struct {
	Status    Status
	HomeScore *int
	AwayScore *int
}

type Service struct {
	repo  *Repository
	teams TeamChecker

	mu        sync.RWMutex
	listeners []ResultListener
}

func NewService(repo *Repository, teams TeamChecker) *Service {
	return &Service{repo: repo, teams: teams}
}

// Subscribe registers l for result notifications.
func (s *Service) Subscribe(l ResultListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Game, error) {
	if in.HomeTeamID == in.AwayTeamID {
		return nil, ErrSameTeams
	}
	for _, id := range []int64{in.HomeTeamID, in.AwayTeamID} {
		ok, err := s.teams.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTeam, id)
		}
	}

	g := &Game{
		Date:        in.Date,
		HomeTeamID:  in.HomeTeamID,
		AwayTeamID:  in.AwayTeamID,
		Status:      StatusScheduled,
		StadiumName: in.StadiumName,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Game, error) {
	return s.repo.Get(ctx, id)
}

// RecordResult stores the result and notifies every listener, even when the result is
// unchanged, so a failed propagation can be retried by recording the result again.
// The returned game reflects the stored result also when a listener fails.
func (s *Service) RecordResult(ctx context.Context, id int64, in ResultInput) (*Game, error) {
	if err := validateResult(in); err != nil {
		return nil, err
	}
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	g.Status = in.Status
	g.HomeScore, g.AwayScore = nil, nil
	if in.Status == StatusFinished {
		g.HomeScore, g.AwayScore = in.HomeScore, in.AwayScore
	}
	if err := s.repo.SaveResult(ctx, g); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().
		Int64("game_id", g.ID).
		Str("status", string(g.Status)).
		Msg("game result recorded")

	s.mu.RLock()
	listeners := append([]ResultListener(nil), s.listeners...)
	s.mu.RUnlock()

	var errs []error
	for _, l := range listeners {
		if err := l.OnGameResult(ctx, *g); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return g, fmt.Errorf("propagate result of game %d: %w", g.ID, errors.Join(errs...))
	}
	return g, nil
}

func validateResult(in ResultInput) error {
	if !in.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidResult, string(in.Status))
	}
	if in.Status != StatusFinished {
		return nil
	}
	if in.HomeScore == nil || in.AwayScore == nil {
		return fmt.Errorf("%w: finished game needs both scores", ErrInvalidResult)
	}
	if *in.HomeScore < 0 || *in.AwayScore < 0 {
		return fmt.Errorf("%w: negative score", ErrInvalidResult)
	}
	return nil
}
