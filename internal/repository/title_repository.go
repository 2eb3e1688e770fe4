package repository

import (
	"reviewhub/internal/models"

	"gorm.io/gorm"
)

// TitleFilter narrows the title listing. Zero values mean "no filter".
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         int
}

type TitleRepository interface {
	Create(title *models.Title) error
	Update(title *models.Title) error
	ReplaceGenres(title *models.Title, genres []models.Genre) error
	Delete(id int64) error
	GetByID(id int64) (*models.Title, error)
	List(filter TitleFilter, page, pageSize int) ([]models.Title, int64, error)
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) Create(title *models.Title) error {
	return r.db.Create(title).Error
}

func (r *titleRepository) Update(title *models.Title) error {
	return r.db.Omit("Genres", "Category").Save(title).Error
}

// ReplaceGenres swaps the genre set of a title.
func (r *titleRepository) ReplaceGenres(title *models.Title, genres []models.Genre) error {
	return r.db.Model(title).Association("Genres").Replace(genres)
}

func (r *titleRepository) Delete(id int64) error {
	result := r.db.Delete(&models.Title{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *titleRepository) GetByID(id int64) (*models.Title, error) {
	var title models.Title
	err := r.db.Preload("Category").
		Preload("Genres").
		First(&title, id).Error
	if err != nil {
		return nil, err
	}
	return &title, nil
}

// List retrieves titles matching the filter with pagination.
func (r *titleRepository) List(filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	var titles []models.Title
	var total int64

	query := r.db.Model(&models.Title{})
	if filter.CategorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	if filter.GenreSlug != "" {
		query = query.Joins("JOIN title_genres ON title_genres.title_id = titles.id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", filter.GenreSlug)
	}
	if filter.Name != "" {
		query = query.Where("titles.name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Year != 0 {
		query = query.Where("titles.year = ?", filter.Year)
	}

	if err := query.Distinct("titles.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Group by primary key so the genre join cannot fan a title
	// out into duplicate page rows.
	offset := (page - 1) * pageSize
	err := query.Group("titles.id").
		Preload("Category").
		Preload("Genres").
		Order("titles.name ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&titles).Error
	if err != nil {
		return nil, 0, err
	}

	return titles, total, nil
}
