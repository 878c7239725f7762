package repository

import (
	"errors"

	"github.com/lshigami/Mockingbird/internal/model"
	"gorm.io/gorm"
)

// ErrDuplicateAnswer is returned when an answer already exists for the same
// (round, question) pair. The unique index makes this a conditional write, not
// an in-memory check, so concurrent submissions cannot double-score.
var ErrDuplicateAnswer = errors.New("answer already recorded for this question")

type AnswerRepository interface {
	Insert(answer *model.Answer) error
	FindByRound(roundID uint) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Insert(answer *model.Answer) error {
	err := r.db.Create(answer).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateAnswer
	}
	return err
}

func (r *answerRepository) FindByRound(roundID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.Where("round_id = ?", roundID).Order("id ASC").Find(&answers).Error
	return answers, err
}
