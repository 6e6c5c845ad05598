package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"paper-trader-go/internal/models"
	"paper-trader-go/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound   = errors.New("user does not exist")
	ErrSelfRequest    = errors.New("cannot befriend yourself")
	ErrAlreadyFriends = errors.New("already friends")
	ErrRequestExists  = errors.New("friend request already sent")
	ErrLeagueNotFound = errors.New("league not found")
	ErrAlreadyMember  = errors.New("already a member of this league")
	ErrMissingName    = errors.New("league name is required")
)

// RequestOutcome says what SendFriendRequest did.
type RequestOutcome string

const (
	RequestSent     RequestOutcome = "sent"
	RequestAccepted RequestOutcome = "accepted"
)

// Friend is a friend as shown to the user.
type Friend struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// IncomingRequest is a pending request with the sender's username.
type IncomingRequest struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	From      string    `json:"from"`
	CreatedAt time.Time `json:"created_at"`
}

// Service manages friendships and leagues.
type Service struct {
	store  repository.Store
	logger *zap.Logger
}

func NewService(store repository.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger.Named("social")}
}

// requireUser fails with ErrUserNotFound when userID has no user row.
func requireUser(ctx context.Context, tx repository.Store, userID uint) error {
	_, err := tx.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	return nil
}

// SendFriendRequest asks receiverUsername to become a friend of senderID.
// If the receiver already asked the sender, the pending request is consumed
// and the friendship is created instead.
func (s *Service) SendFriendRequest(ctx context.Context, senderID uint, receiverUsername string) (RequestOutcome, error) {
	var outcome RequestOutcome
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := requireUser(ctx, tx, senderID); err != nil {
			return err
		}
		receiver, err := tx.GetUserByUsername(ctx, strings.TrimSpace(receiverUsername))
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load receiver: %w", err)
		}
		if receiver.ID == senderID {
			return ErrSelfRequest
		}

		friends, err := tx.AreFriends(ctx, senderID, receiver.ID)
		if err != nil {
			return fmt.Errorf("failed to check friendship: %w", err)
		}
		if friends {
			return ErrAlreadyFriends
		}

		reverse, err := tx.FindFriendRequest(ctx, models.RequestFriend, receiver.ID, senderID)
		switch {
		case err == nil:
			if err := tx.CreateFriendship(ctx, &models.Friendship{User1ID: receiver.ID, User2ID: senderID}); err != nil {
				return fmt.Errorf("failed to create friendship: %w", err)
			}
			if err := tx.DeleteFriendRequest(ctx, reverse.ID); err != nil {
				return fmt.Errorf("failed to remove request: %w", err)
			}
			outcome = RequestAccepted
		case errors.Is(err, repository.ErrNotFound):
			if _, err := tx.FindFriendRequest(ctx, models.RequestFriend, senderID, receiver.ID); err == nil {
				return ErrRequestExists
			} else if !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("failed to check requests: %w", err)
			}
			req := &models.FriendRequest{Type: models.RequestFriend, SenderID: senderID, ReceiverID: receiver.ID}
			if err := tx.CreateFriendRequest(ctx, req); err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			outcome = RequestSent
		default:
			return fmt.Errorf("failed to check requests: %w", err)
		}

		return tx.AppendHistory(ctx, &models.HistoryEvent{
			Type:     models.EventFriendRequest,
			Sender:   models.UserParty(senderID),
			Receiver: models.UserParty(receiver.ID),
			Symbol:   models.NotApplicable,
			Amount:   1,
		})
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Friend request handled",
		zap.Uint("sender_id", senderID),
		zap.String("receiver", receiverUsername),
		zap.String("outcome", string(outcome)),
	)
	return outcome, nil
}

func (s *Service) ListFriends(ctx context.Context, userID uint) ([]Friend, error) {
	ids, err := s.store.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	names, err := s.store.UsernamesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}

	friends := make([]Friend, 0, len(ids))
	for _, id := range ids {
		friends = append(friends, Friend{ID: id, Username: names[id]})
	}
	return friends, nil
}

func (s *Service) ListRequests(ctx context.Context, userID uint) ([]IncomingRequest, error) {
	reqs, err := s.store.ListIncomingRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	ids := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.SenderID)
	}
	names, err := s.store.UsernamesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}

	out := make([]IncomingRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, IncomingRequest{ID: r.ID, Type: r.Type, From: names[r.SenderID], CreatedAt: r.CreatedAt})
	}
	return out, nil
}

// CreateLeague creates a league owned by ownerID, who joins it immediately.
func (s *Service) CreateLeague(ctx context.Context, ownerID uint, name, description string) (*models.League, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	league := &models.League{OwnerID: ownerID, Name: name, Description: strings.TrimSpace(description)}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := requireUser(ctx, tx, ownerID); err != nil {
			return err
		}
		if err := tx.CreateLeague(ctx, league); err != nil {
			return fmt.Errorf("failed to create league: %w", err)
		}
		if err := tx.AddLeagueMember(ctx, &models.LeagueMember{UserID: ownerID, LeagueID: league.ID}); err != nil {
			return fmt.Errorf("failed to join league: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("League created", zap.Uint("league_id", league.ID), zap.Uint("owner_id", ownerID))
	return league, nil
}

func (s *Service) JoinLeague(ctx context.Context, userID, leagueID uint) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := tx.GetLeague(ctx, leagueID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrLeagueNotFound
			}
			return fmt.Errorf("failed to load league: %w", err)
		}

		err := tx.AddLeagueMember(ctx, &models.LeagueMember{UserID: userID, LeagueID: leagueID})
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrAlreadyMember
		}
		if err != nil {
			return fmt.Errorf("failed to join league: %w", err)
		}
		return nil
	})
}

func (s *Service) ListLeagues(ctx context.Context, userID uint) ([]models.League, error) {
	return s.store.ListLeaguesForUser(ctx, userID)
}
