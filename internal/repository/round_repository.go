package repository

import (
	"github.com/lshigami/Mockingbird/internal/model"
	"gorm.io/gorm"
)

type RoundRepository interface {
	// Create persists the round together with its generated questions.
	Create(round *model.Round) error
	// WithTx returns a view of the repository bound to the given transaction,
	// so round creation can join a larger atomic update.
	WithTx(tx *gorm.DB) RoundRepository
}

type roundRepository struct {
	db *gorm.DB
}

func NewRoundRepository(db *gorm.DB) RoundRepository {
	return &roundRepository{db: db}
}

func (r *roundRepository) Create(round *model.Round) error {
	return r.db.Create(round).Error
}

func (r *roundRepository) WithTx(tx *gorm.DB) RoundRepository {
	return &roundRepository{db: tx}
}
