package service

import (
	"errors"
	"math"
	"regexp"
	"time"

	"gorm.io/gorm"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

var (
	ErrInvalidSlug      = errors.New("slug may only contain letters, digits, hyphens and underscores")
	ErrSlugTaken        = errors.New("slug is already in use")
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")
	ErrTitleNotFound    = errors.New("title not found")
	ErrYearOutOfRange   = errors.New("title year is out of range")
)

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type CatalogService interface {
	CreateCategory(req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	ListCategories(search string, page, pageSize int) (*dto.ListResponse, error)
	DeleteCategory(slug string) error

	CreateGenre(req *dto.CreateCategoryRequest) (*dto.GenreResponse, error)
	ListGenres(search string, page, pageSize int) (*dto.ListResponse, error)
	DeleteGenre(slug string) error

	CreateTitle(req *dto.CreateTitleRequest) (*dto.TitleResponse, error)
	ListTitles(filter repository.TitleFilter, page, pageSize int) (*dto.ListResponse, error)
	GetTitle(id int64) (*dto.TitleResponse, error)
	UpdateTitle(id int64, req *dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	DeleteTitle(id int64) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	titleRepo    repository.TitleRepository
	reviewRepo   repository.ReviewRepository
}

func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
	titleRepo repository.TitleRepository,
	reviewRepo repository.ReviewRepository,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		titleRepo:    titleRepo,
		reviewRepo:   reviewRepo,
	}
}

// validateYear rejects years after the current year or below the
// minimum bound.
func validateYear(year int) error {
	if year < models.MinTitleYear || year > time.Now().Year() {
		return ErrYearOutOfRange
	}
	return nil
}

// roundRating reports the mean to two decimal places.
func roundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}

func (s *catalogService) CreateCategory(req *dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	if !slugRe.MatchString(req.Slug) {
		return nil, ErrInvalidSlug
	}
	if _, err := s.categoryRepo.FindBySlug(req.Slug); err == nil {
		return nil, ErrSlugTaken
	}

	category := &models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return dto.FromModelToCategoryResponse(category), nil
}

func (s *catalogService) ListCategories(search string, page, pageSize int) (*dto.ListResponse, error) {
	categories, total, err := s.categoryRepo.List(search, page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.NewListResponse(dto.FromModelToCategoryResponses(categories), int(total), page, pageSize), nil
}

func (s *catalogService) DeleteCategory(slug string) error {
	if err := s.categoryRepo.DeleteBySlug(slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *catalogService) CreateGenre(req *dto.CreateCategoryRequest) (*dto.GenreResponse, error) {
	if !slugRe.MatchString(req.Slug) {
		return nil, ErrInvalidSlug
	}
	if _, err := s.genreRepo.FindBySlug(req.Slug); err == nil {
		return nil, ErrSlugTaken
	}

	genre := &models.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.genreRepo.Create(genre); err != nil {
		return nil, err
	}
	return dto.FromModelToGenreResponse(genre), nil
}

func (s *catalogService) ListGenres(search string, page, pageSize int) (*dto.ListResponse, error) {
	genres, total, err := s.genreRepo.List(search, page, pageSize)
	if err != nil {
		return nil, err
	}
	return dto.NewListResponse(dto.FromModelToGenreResponses(genres), int(total), page, pageSize), nil
}

func (s *catalogService) DeleteGenre(slug string) error {
	if err := s.genreRepo.DeleteBySlug(slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGenreNotFound
		}
		return err
	}
	return nil
}

func (s *catalogService) CreateTitle(req *dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	if err := validateYear(req.Year); err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}

	if req.Category != "" {
		category, err := s.categoryRepo.FindBySlug(req.Category)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	if len(req.Genre) > 0 {
		genres, err := s.genreRepo.FindBySlugs(req.Genre)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGenreNotFound
			}
			return nil, err
		}
		title.Genres = genres
	}

	if err := s.titleRepo.Create(title); err != nil {
		return nil, err
	}

	// A fresh title has no reviews, so no rating.
	return dto.FromModelToTitleResponse(title, nil), nil
}

func (s *catalogService) ListTitles(filter repository.TitleFilter, page, pageSize int) (*dto.ListResponse, error) {
	titles, total, err := s.titleRepo.List(filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(titles))
	for i := range titles {
		ids = append(ids, titles[i].ID)
	}
	averages, err := s.reviewRepo.AverageScores(ids)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TitleResponse, 0, len(titles))
	for i := range titles {
		responses = append(responses, *dto.FromModelToTitleResponse(&titles[i], ratingFor(averages, titles[i].ID)))
	}

	return dto.NewListResponse(responses, int(total), page, pageSize), nil
}

func (s *catalogService) GetTitle(id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	averages, err := s.reviewRepo.AverageScores([]int64{id})
	if err != nil {
		return nil, err
	}

	return dto.FromModelToTitleResponse(title, ratingFor(averages, id)), nil
}

func (s *catalogService) UpdateTitle(id int64, req *dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		if err := validateYear(*req.Year); err != nil {
			return nil, err
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil {
		if *req.Category == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.categoryRepo.FindBySlug(*req.Category)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrCategoryNotFound
				}
				return nil, err
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
	}

	if err := s.titleRepo.Update(title); err != nil {
		return nil, err
	}

	if req.Genre != nil {
		genres, err := s.genreRepo.FindBySlugs(*req.Genre)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGenreNotFound
			}
			return nil, err
		}
		if err := s.titleRepo.ReplaceGenres(title, genres); err != nil {
			return nil, err
		}
		title.Genres = genres
	}

	averages, err := s.reviewRepo.AverageScores([]int64{id})
	if err != nil {
		return nil, err
	}

	return dto.FromModelToTitleResponse(title, ratingFor(averages, id)), nil
}

func (s *catalogService) DeleteTitle(id int64) error {
	if err := s.titleRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}

// ratingFor returns the rounded mean for a title, or nil when the
// title has no reviews.
func ratingFor(averages map[int64]float64, titleID int64) *float64 {
	avg, ok := averages[titleID]
	if !ok {
		return nil
	}
	rounded := roundRating(avg)
	return &rounded
}
