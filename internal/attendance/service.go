package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SlpAus/ballpark-ranking-backend/internal/game"
	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"github.com/rs/zerolog/log"
)

const gameLockStripes = 32

// GameReader loads games.
type GameReader interface {
	Get(ctx context.Context, id int64) (*game.Game, error)
}

// UserChecker reports whether a user account still exists.
type UserChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Synchronizer mirrors counted outcomes into the rank ledger and cache.
type Synchronizer interface {
	OnAttendanceOutcomeChanged(ctx context.Context, userID, teamID int64, year int, outcome rank.Outcome, added bool) error
	OnOutcomeReplaced(ctx context.Context, userID, teamID int64, year int, prev, next rank.Outcome) error
}

// CreateInput describes a new registration.
type CreateInput struct {
	GameID         int64
	CheeringTeamID int64
	Memo           string
}

// Service owns registered games and keeps the rank ledger in step with the outcome
// each registration counts.
//
// A registration row is written first and the ledger second. When the ledger write
// fails the row change is reverted, so the row and the ledger never disagree. A cache
// failure after the ledger write is returned but not reverted: the cache is a
// projection and heals on the next event or rebuild.
type Service struct {
	repo   *Repository
	games  GameReader
	users  UserChecker
	syncer Synchronizer

	// gameLocks serialize registration changes and result propagation of one game.
	gameLocks [gameLockStripes]sync.Mutex
}

func NewService(repo *Repository, games GameReader, users UserChecker, syncer Synchronizer) *Service {
	return &Service{repo: repo, games: games, users: users, syncer: syncer}
}

func (s *Service) lockGame(gameID int64) func() {
	mu := &s.gameLocks[uint64(gameID)%gameLockStripes]
	mu.Lock()
	return mu.Unlock
}

// Create registers the user's attendance. If the game already has a result the outcome
// is counted right away.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*RegisteredGame, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownUser
	}

	unlock := s.lockGame(in.GameID)
	defer unlock()

	g, err := s.games.Get(ctx, in.GameID)
	if err != nil {
		return nil, err
	}
	if !g.Plays(in.CheeringTeamID) {
		return nil, ErrTeamNotInGame
	}

	rg := &RegisteredGame{
		UserID:         userID,
		GameID:         g.ID,
		CheeringTeamID: in.CheeringTeamID,
		Memo:           in.Memo,
	}
	outcome, counted := game.Outcome(*g, in.CheeringTeamID)
	if counted {
		rg.Outcome = &outcome
	}
	if err := s.repo.Create(ctx, rg); err != nil {
		return nil, err
	}
	if !counted {
		return rg, nil
	}

	err = s.syncer.OnAttendanceOutcomeChanged(ctx, userID, in.CheeringTeamID, g.Season(), outcome, true)
	if err == nil {
		return rg, nil
	}
	if !ledgerFailed(err) {
		return nil, err
	}
	if derr := s.repo.Delete(ctx, rg.ID); derr != nil {
		log.Ctx(ctx).Error().Err(derr).Int64("registered_game_id", rg.ID).Msg("could not revert registration after ledger failure")
	}
	if errors.Is(err, rank.ErrUnknownUser) {
		// the account was deleted after the existence check
		return nil, ErrUnknownUser
	}
	return nil, err
}

// Delete removes one of the user's registrations and uncounts its outcome.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	rg, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rg.UserID != userID {
		return ErrForbidden
	}

	unlock := s.lockGame(rg.GameID)
	defer unlock()

	// re-read under the game lock: a result may have changed the counted outcome
	rg, err = s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	g, err := s.games.Get(ctx, rg.GameID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rg.ID); err != nil {
		return err
	}
	if rg.Outcome == nil {
		return nil
	}

	err = s.syncer.OnAttendanceOutcomeChanged(ctx, userID, rg.CheeringTeamID, g.Season(), *rg.Outcome, false)
	if !ledgerFailed(err) {
		return err
	}
	if errors.Is(err, rank.ErrUnknownUser) {
		// the account and its ledger rows are gone; nothing to restore
		return ErrUnknownUser
	}
	if cerr := s.repo.Create(ctx, rg); cerr != nil {
		log.Ctx(ctx).Error().Err(cerr).Int64("registered_game_id", rg.ID).Msg("could not restore registration after ledger failure")
	}
	return err
}

// ListForUser returns the user's registrations, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]RegisteredGame, error) {
	return s.repo.ListForUser(ctx, userID)
}

// OnGameResult re-evaluates every registration of the game against its new result:
// a first result is counted, a cleared result is uncounted and a changed result is
// replaced. Registrations already in step are skipped, so repeating a result is safe.
func (s *Service) OnGameResult(ctx context.Context, g game.Game) error {
	unlock := s.lockGame(g.ID)
	defer unlock()

	rgs, err := s.repo.ListForGame(ctx, g.ID)
	if err != nil {
		return err
	}

	var errs []error
	for i := range rgs {
		if err := s.reconcile(ctx, &rgs[i], g); err != nil {
			errs = append(errs, fmt.Errorf("registered game %d: %w", rgs[i].ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) reconcile(ctx context.Context, rg *RegisteredGame, g game.Game) error {
	next, counted := game.Outcome(g, rg.CheeringTeamID)
	prev := rg.Outcome
	switch {
	case prev == nil && !counted:
		return nil
	case prev != nil && counted && *prev == next:
		return nil
	}

	var nextPtr *rank.Outcome
	if counted {
		nextPtr = &next
	}
	if err := s.repo.SetOutcome(ctx, rg.ID, nextPtr); err != nil {
		return err
	}

	var err error
	switch {
	case prev == nil:
		err = s.syncer.OnAttendanceOutcomeChanged(ctx, rg.UserID, rg.CheeringTeamID, g.Season(), next, true)
	case !counted:
		err = s.syncer.OnAttendanceOutcomeChanged(ctx, rg.UserID, rg.CheeringTeamID, g.Season(), *prev, false)
	default:
		err = s.syncer.OnOutcomeReplaced(ctx, rg.UserID, rg.CheeringTeamID, g.Season(), *prev, next)
	}
	if !ledgerFailed(err) {
		return err
	}
	if errors.Is(err, rank.ErrUnknownUser) {
		// deleted together with its account
		return nil
	}
	if rerr := s.repo.SetOutcome(ctx, rg.ID, prev); rerr != nil {
		log.Ctx(ctx).Error().Err(rerr).Int64("registered_game_id", rg.ID).Msg("could not revert outcome after ledger failure")
	}
	return err
}

// ledgerFailed reports whether err left the ledger unchanged. A cache failure happens
// after the ledger write.
func ledgerFailed(err error) bool {
	return err != nil && !errors.Is(err, rank.ErrCacheUnavailable)
}
