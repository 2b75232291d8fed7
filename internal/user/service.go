package user

import (
	"context"
	"errors"

	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"github.com/rs/zerolog/log"
)

// RankSync keeps the ranking cache in step with account changes.
type RankSync interface {
	OnUserCreated(ctx context.Context, userID int64) error
	DeleteUser(ctx context.Context, userID int64, purge func(ctx context.Context) error) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// CreateInput is the data of a new account.
type CreateInput struct {
	Email        string
	Nickname     string
	ProfileImage *string
}

type Service struct {
	repo   *Repository
	ranks  RankSync
	tokens TokenIssuer
}

func NewService(repo *Repository, ranks RankSync, tokens TokenIssuer) *Service {
	return &Service{repo: repo, ranks: ranks, tokens: tokens}
}

// Create stores the account, ranks it at the base score and returns it with an access
// token. A cache failure does not fail the signup: the next rebuild ranks the user.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, string, error) {
	u := &User{Email: in.Email, Nickname: in.Nickname, ProfileImage: in.ProfileImage}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, "", err
	}

	if err := s.ranks.OnUserCreated(ctx, u.ID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("user_id", u.ID).Msg("new user not ranked until next rebuild")
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes the account and all its activity, then drops the user from every
// ranking scope it appeared in. Rank events of the user wait until the rows are gone and
// are then refused.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.ranks.DeleteUser(ctx, id, func(ctx context.Context) error {
		return s.repo.DeleteWithActivity(ctx, id)
	})
	if errors.Is(err, rank.ErrCacheUnavailable) {
		log.Ctx(ctx).Error().Err(err).Int64("user_id", id).Msg("deleted user still ranked until next rebuild")
	}
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Int64("user_id", id).Msg("user deleted")
	return nil
}
