package repository

import (
	"context"

	"paper-trader-go/internal/models"
)

type SocialRepository interface {
	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error
	FindFriendRequest(ctx context.Context, reqType string, senderID, receiverID uint) (*models.FriendRequest, error)
	DeleteFriendRequest(ctx context.Context, id uint) error
	ListIncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error)

	CreateFriendship(ctx context.Context, friendship *models.Friendship) error
	AreFriends(ctx context.Context, a, b uint) (bool, error)
	ListFriendIDs(ctx context.Context, userID uint) ([]uint, error)

	CreateLeague(ctx context.Context, league *models.League) error
	GetLeague(ctx context.Context, id uint) (*models.League, error)
	AddLeagueMember(ctx context.Context, member *models.LeagueMember) error
	ListLeaguesForUser(ctx context.Context, userID uint) ([]models.League, error)

	// DeleteSocialData removes requests, friendships and league memberships
	// that reference the user.
	DeleteSocialData(ctx context.Context, userID uint) error
}

func (s *gormStore) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	return translate(s.conn(ctx).Create(req).Error)
}

func (s *gormStore) FindFriendRequest(ctx context.Context, reqType string, senderID, receiverID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := s.conn(ctx).
		Where("type = ? AND sender_id = ? AND receiver_id = ?", reqType, senderID, receiverID).
		First(&req).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *gormStore) DeleteFriendRequest(ctx context.Context, id uint) error {
	return s.conn(ctx).Delete(&models.FriendRequest{}, id).Error
}

func (s *gormStore) ListIncomingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := s.conn(ctx).Where("receiver_id = ?", userID).Order("created_at asc, id asc").Find(&reqs).Error
	return reqs, err
}

func (s *gormStore) CreateFriendship(ctx context.Context, friendship *models.Friendship) error {
	return translate(s.conn(ctx).Create(friendship).Error)
}

func (s *gormStore) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Friendship{}).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) ListFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var friendships []models.Friendship
	err := s.conn(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at asc").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(friendships))
	for _, f := range friendships {
		if f.User1ID == userID {
			ids = append(ids, f.User2ID)
		} else {
			ids = append(ids, f.User1ID)
		}
	}
	return ids, nil
}

func (s *gormStore) CreateLeague(ctx context.Context, league *models.League) error {
	return translate(s.conn(ctx).Create(league).Error)
}

func (s *gormStore) GetLeague(ctx context.Context, id uint) (*models.League, error) {
	var league models.League
	if err := s.conn(ctx).First(&league, id).Error; err != nil {
		return nil, translate(err)
	}
	return &league, nil
}

func (s *gormStore) AddLeagueMember(ctx context.Context, member *models.LeagueMember) error {
	return translate(s.conn(ctx).Create(member).Error)
}

func (s *gormStore) ListLeaguesForUser(ctx context.Context, userID uint) ([]models.League, error) {
	var leagues []models.League
	err := s.conn(ctx).
		Joins("JOIN league_members ON league_members.league_id = leagues.id").
		Where("league_members.user_id = ?", userID).
		Order("leagues.id asc").
		Find(&leagues).Error
	return leagues, err
}

func (s *gormStore) DeleteSocialData(ctx context.Context, userID uint) error {
	db := s.conn(ctx)
	if err := db.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&models.FriendRequest{}).Error; err != nil {
		return err
	}
	if err := db.Where("user1_id = ? OR user2_id = ?", userID, userID).Delete(&models.Friendship{}).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&models.LeagueMember{}).Error
}
