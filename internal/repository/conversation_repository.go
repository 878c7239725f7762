package repository

import (
	"github.com/lshigami/Mockingbird/internal/model"
	"gorm.io/gorm"
)

type ConversationRepository interface {
	Append(turn *model.ConversationTurn) error
	FindByRound(roundID uint) ([]model.ConversationTurn, error)
	NextTurnOrder(roundID uint) (int, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Append(turn *model.ConversationTurn) error {
	return r.db.Create(turn).Error
}

func (r *conversationRepository) FindByRound(roundID uint) ([]model.ConversationTurn, error) {
	var turns []model.ConversationTurn
	err := r.db.Where("round_id = ?", roundID).Order("turn_order ASC").Find(&turns).Error
	return turns, err
}

func (r *conversationRepository) NextTurnOrder(roundID uint) (int, error) {
	var max *int
	err := r.db.Model(&model.ConversationTurn{}).
		Where("round_id = ?", roundID).
		Select("MAX(turn_order)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}
