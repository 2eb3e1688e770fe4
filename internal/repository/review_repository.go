package repository

import (
	"errors"

	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateReview is returned when an author submits a second
// review for the same title. The composite unique index is what
// actually decides the race between two concurrent submissions.
var ErrDuplicateReview = errors.New("author already reviewed this title")

type ReviewRepository interface {
	Create(review *models.Review) error
	Update(review *models.Review) error
	Delete(id int64) error
	GetByID(id int64) (*models.Review, error)
	GetByTitle(titleID int64, page, pageSize int) ([]models.Review, int64, error)
	ExistsByAuthorAndTitle(authorID string, titleID int64) (bool, error)
	AverageScores(titleIDs []int64) (map[int64]float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *models.Review) error {
	if err := r.db.Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReview
		}
		return err
	}
	return nil
}

func (r *reviewRepository) Update(review *models.Review) error {
	return r.db.Save(review).Error
}

func (r *reviewRepository) Delete(id int64) error {
	result := r.db.Delete(&models.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reviewRepository) GetByID(id int64) (*models.Review, error) {
	var review models.Review
	err := r.db.Preload("Author").First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetByTitle retrieves reviews for a title, newest first, with pagination
func (r *reviewRepository) GetByTitle(titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	var reviews []models.Review
	var total int64

	if err := r.db.Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.Where("title_id = ?", titleID).
		Preload("Author").
		Order("pub_date DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepository) ExistsByAuthorAndTitle(authorID string, titleID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Review{}).
		Where("author_id = ? AND title_id = ?", authorID, titleID).
		Count(&count).Error
	return count > 0, err
}

// AverageScores computes the mean review score per title. Titles with
// no reviews are absent from the returned map.
func (r *reviewRepository) AverageScores(titleIDs []int64) (map[int64]float64, error) {
	if len(titleIDs) == 0 {
		return map[int64]float64{}, nil
	}

	var rows []struct {
		TitleID int64
		Average float64
	}
	err := r.db.Model(&models.Review{}).
		Select("title_id, AVG(score) as average").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	averages := make(map[int64]float64, len(rows))
	for _, row := range rows {
		averages[row.TitleID] = row.Average
	}
	return averages, nil
}
