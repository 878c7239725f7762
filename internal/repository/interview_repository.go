package repository

import (
	"github.com/lshigami/Mockingbird/internal/model"
	"gorm.io/gorm"
)

type InterviewRepository interface {
	Create(interview *model.Interview) error
	// FindByIDAndUser loads the aggregate with rounds, questions, answers and
	// conversation turns. Queries are always scoped by the owning user.
	FindByIDAndUser(id uint, userID uint) (*model.Interview, error)
	FindAllByUser(userID uint) ([]model.Interview, error)
	// UpdateFields applies a partial update in a single write so that related
	// column changes (e.g. status + end_time) cannot race apart.
	UpdateFields(id uint, fields map[string]interface{}) error
}

type interviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

func (r *interviewRepository) Create(interview *model.Interview) error {
	return r.db.Create(interview).Error
}

func (r *interviewRepository) FindByIDAndUser(id uint, userID uint) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.
		Preload("Rounds", func(db *gorm.DB) *gorm.DB { return db.Order("rounds.round_number ASC") }).
		Preload("Rounds.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.order_in_round ASC") }).
		Preload("Rounds.Answers", func(db *gorm.DB) *gorm.DB { return db.Order("answers.id ASC") }).
		Preload("Rounds.ConversationTurns", func(db *gorm.DB) *gorm.DB { return db.Order("conversation_turns.turn_order ASC") }).
		Where("user_id = ?", userID).
		First(&interview, id).Error
	if err != nil {
		return nil, err
	}
	return &interview, nil
}

func (r *interviewRepository) FindAllByUser(userID uint) ([]model.Interview, error) {
	var interviews []model.Interview
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&interviews).Error
	return interviews, err
}

func (r *interviewRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&model.Interview{}).Where("id = ?", id).Updates(fields).Error
}
