package repository

import (
	"context"

	"paper-trader-go/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// LedgerRepository persists accounts, lots and history.
// Lot listings are always in FIFO order: oldest purchase first, insertion
// order breaking ties.
type LedgerRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, userID uint) (*models.Account, error)
	// GetAccountForUpdate reads the account and locks its row until the
	// surrounding transaction ends where the database supports row locks.
	GetAccountForUpdate(ctx context.Context, userID uint) (*models.Account, error)
	UpdateBalance(ctx context.Context, userID uint, balance decimal.Decimal) error
	DeleteAccount(ctx context.Context, userID uint) error

	ListLots(ctx context.Context, userID uint, symbol string) ([]models.Lot, error)
	ListAllLots(ctx context.Context, userID uint) ([]models.Lot, error)
	CreateLot(ctx context.Context, lot *models.Lot) error
	SaveLot(ctx context.Context, lot *models.Lot) error
	DeleteLot(ctx context.Context, id uint) error
	DeleteLots(ctx context.Context, userID uint) error

	AppendHistory(ctx context.Context, event *models.HistoryEvent) error
	ListHistory(ctx context.Context, userID uint) ([]models.HistoryEvent, error)
	EarliestBalanceEdit(ctx context.Context, userID uint) (*models.HistoryEvent, error)
	DeleteHistory(ctx context.Context, userID uint) error
}

const fifoOrder = "purchased_at asc, id asc"

func (s *gormStore) CreateAccount(ctx context.Context, account *models.Account) error {
	return translate(s.conn(ctx).Create(account).Error)
}

func (s *gormStore) GetAccount(ctx context.Context, userID uint) (*models.Account, error) {
	var account models.Account
	if err := s.conn(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *gormStore) GetAccountForUpdate(ctx context.Context, userID uint) (*models.Account, error) {
	var account models.Account
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *gormStore) UpdateBalance(ctx context.Context, userID uint, balance decimal.Decimal) error {
	result := s.conn(ctx).Model(&models.Account{}).Where("user_id = ?", userID).Update("balance", balance)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteAccount(ctx context.Context, userID uint) error {
	return s.conn(ctx).Where("user_id = ?", userID).Delete(&models.Account{}).Error
}

func (s *gormStore) ListLots(ctx context.Context, userID uint, symbol string) ([]models.Lot, error) {
	var lots []models.Lot
	err := s.conn(ctx).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Order(fifoOrder).
		Find(&lots).Error
	return lots, err
}

func (s *gormStore) ListAllLots(ctx context.Context, userID uint) ([]models.Lot, error) {
	var lots []models.Lot
	err := s.conn(ctx).Where("user_id = ?", userID).Order("symbol asc, " + fifoOrder).Find(&lots).Error
	return lots, err
}

func (s *gormStore) CreateLot(ctx context.Context, lot *models.Lot) error {
	return s.conn(ctx).Create(lot).Error
}

func (s *gormStore) SaveLot(ctx context.Context, lot *models.Lot) error {
	return s.conn(ctx).Save(lot).Error
}

func (s *gormStore) DeleteLot(ctx context.Context, id uint) error {
	result := s.conn(ctx).Delete(&models.Lot{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteLots(ctx context.Context, userID uint) error {
	return s.conn(ctx).Where("user_id = ?", userID).Delete(&models.Lot{}).Error
}

func (s *gormStore) AppendHistory(ctx context.Context, event *models.HistoryEvent) error {
	return s.conn(ctx).Create(event).Error
}

func (s *gormStore) ListHistory(ctx context.Context, userID uint) ([]models.HistoryEvent, error) {
	var events []models.HistoryEvent
	err := s.conn(ctx).
		Where("sender_user_id = ? OR receiver_user_id = ?", userID, userID).
		Order("created_at asc, id asc").
		Find(&events).Error
	return events, err
}

func (s *gormStore) EarliestBalanceEdit(ctx context.Context, userID uint) (*models.HistoryEvent, error) {
	var event models.HistoryEvent
	err := s.conn(ctx).
		Where("type = ? AND receiver_user_id = ?", models.EventBalanceEdit, userID).
		Order("created_at asc, id asc").
		First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *gormStore) DeleteHistory(ctx context.Context, userID uint) error {
	return s.conn(ctx).
		Where("sender_user_id = ? OR receiver_user_id = ?", userID, userID).
		Delete(&models.HistoryEvent{}).Error
}
