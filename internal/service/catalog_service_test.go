package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

func newCatalogService() (*MockCategoryRepository, *MockGenreRepository, *MockTitleRepository, *MockReviewRepository, CatalogService) {
	categoryRepo := new(MockCategoryRepository)
	genreRepo := new(MockGenreRepository)
	titleRepo := new(MockTitleRepository)
	reviewRepo := new(MockReviewRepository)
	svc := NewCatalogService(categoryRepo, genreRepo, titleRepo, reviewRepo)
	return categoryRepo, genreRepo, titleRepo, reviewRepo, svc
}

func TestCreateCategory_InvalidSlug(t *testing.T) {
	_, _, _, _, svc := newCatalogService()

	_, err := svc.CreateCategory(&dto.CreateCategoryRequest{Name: "Books", Slug: "bad slug!"})
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestCreateCategory_SlugTaken(t *testing.T) {
	categoryRepo, _, _, _, svc := newCatalogService()

	categoryRepo.On("FindBySlug", "books").Return(&models.Category{ID: 1, Slug: "books"}, nil)

	_, err := svc.CreateCategory(&dto.CreateCategoryRequest{Name: "Books", Slug: "books"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	categoryRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateCategory_Success(t *testing.T) {
	categoryRepo, _, _, _, svc := newCatalogService()

	categoryRepo.On("FindBySlug", "films").Return(nil, gorm.ErrRecordNotFound)
	categoryRepo.On("Create", mock.AnythingOfType("*models.Category")).Return(nil)

	resp, err := svc.CreateCategory(&dto.CreateCategoryRequest{Name: "Films", Slug: "films"})
	assert.NoError(t, err)
	assert.Equal(t, "Films", resp.Name)
	assert.Equal(t, "films", resp.Slug)

	categoryRepo.AssertExpectations(t)
}

func TestDeleteCategory_NotFound(t *testing.T) {
	categoryRepo, _, _, _, svc := newCatalogService()

	categoryRepo.On("DeleteBySlug", "missing").Return(gorm.ErrRecordNotFound)

	err := svc.DeleteCategory("missing")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCreateGenre_Success(t *testing.T) {
	_, genreRepo, _, _, svc := newCatalogService()

	genreRepo.On("FindBySlug", "sci-fi").Return(nil, gorm.ErrRecordNotFound)
	genreRepo.On("Create", mock.AnythingOfType("*models.Genre")).Return(nil)

	resp, err := svc.CreateGenre(&dto.CreateCategoryRequest{Name: "Science Fiction", Slug: "sci-fi"})
	assert.NoError(t, err)
	assert.Equal(t, "sci-fi", resp.Slug)
}

func TestCreateTitle_FutureYear(t *testing.T) {
	_, _, titleRepo, _, svc := newCatalogService()

	_, err := svc.CreateTitle(&dto.CreateTitleRequest{
		Name: "From the Future",
		Year: time.Now().Year() + 1,
	})
	assert.ErrorIs(t, err, ErrYearOutOfRange)

	titleRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateTitle_YearBelowMinimum(t *testing.T) {
	_, _, _, _, svc := newCatalogService()

	_, err := svc.CreateTitle(&dto.CreateTitleRequest{Name: "Year Zero", Year: 0})
	assert.ErrorIs(t, err, ErrYearOutOfRange)
}

func TestCreateTitle_UnknownCategory(t *testing.T) {
	categoryRepo, _, titleRepo, _, svc := newCatalogService()

	categoryRepo.On("FindBySlug", "nope").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.CreateTitle(&dto.CreateTitleRequest{
		Name:     "Orphan",
		Year:     2020,
		Category: "nope",
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	titleRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateTitle_ResolvesSlugs(t *testing.T) {
	categoryRepo, genreRepo, titleRepo, _, svc := newCatalogService()

	category := &models.Category{ID: 3, Name: "Films", Slug: "films"}
	genres := []models.Genre{{ID: 7, Name: "Drama", Slug: "drama"}}

	var created *models.Title
	categoryRepo.On("FindBySlug", "films").Return(category, nil)
	genreRepo.On("FindBySlugs", []string{"drama"}).Return(genres, nil)
	titleRepo.On("Create", mock.AnythingOfType("*models.Title")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*models.Title)
	}).Return(nil)

	resp, err := svc.CreateTitle(&dto.CreateTitleRequest{
		Name:     "Quiet Town",
		Year:     2019,
		Category: "films",
		Genre:    []string{"drama"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "films", resp.Category.Slug)
	assert.Len(t, resp.Genre, 1)
	assert.Nil(t, resp.Rating)

	require.NotNil(t, created)
	assert.Equal(t, int64(3), *created.CategoryID)
	titleRepo.AssertExpectations(t)
}

func TestGetTitle_RatingIsMeanOfScores(t *testing.T) {
	_, _, titleRepo, reviewRepo, svc := newCatalogService()

	titleRepo.On("GetByID", int64(9)).Return(&models.Title{ID: 9, Name: "Rated", Year: 2001}, nil)
	// scores 8 and 4 average to 6
	reviewRepo.On("AverageScores", []int64{9}).Return(map[int64]float64{9: 6.0}, nil)

	resp, err := svc.GetTitle(9)
	assert.NoError(t, err)
	assert.NotNil(t, resp.Rating)
	assert.Equal(t, 6.0, *resp.Rating)
}

func TestGetTitle_RatingRounded(t *testing.T) {
	_, _, titleRepo, reviewRepo, svc := newCatalogService()

	titleRepo.On("GetByID", int64(5)).Return(&models.Title{ID: 5, Name: "Thirds", Year: 2001}, nil)
	reviewRepo.On("AverageScores", []int64{5}).Return(map[int64]float64{5: 7.0 / 3.0}, nil)

	resp, err := svc.GetTitle(5)
	assert.NoError(t, err)
	assert.Equal(t, 2.33, *resp.Rating)
}

func TestGetTitle_NoReviewsMeansNilRating(t *testing.T) {
	_, _, titleRepo, reviewRepo, svc := newCatalogService()

	titleRepo.On("GetByID", int64(2)).Return(&models.Title{ID: 2, Name: "Unreviewed", Year: 2015}, nil)
	reviewRepo.On("AverageScores", []int64{2}).Return(map[int64]float64{}, nil)

	resp, err := svc.GetTitle(2)
	assert.NoError(t, err)
	assert.Nil(t, resp.Rating)
}

func TestGetTitle_NotFound(t *testing.T) {
	_, _, titleRepo, _, svc := newCatalogService()

	titleRepo.On("GetByID", int64(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetTitle(404)
	assert.ErrorIs(t, err, ErrTitleNotFound)
}

func TestListTitles_MixedRatings(t *testing.T) {
	_, _, titleRepo, reviewRepo, svc := newCatalogService()

	titles := []models.Title{
		{ID: 1, Name: "Reviewed", Year: 2010},
		{ID: 2, Name: "Bare", Year: 2011},
	}
	titleRepo.On("List", repository.TitleFilter{}, 1, 20).Return(titles, int64(2), nil)
	reviewRepo.On("AverageScores", []int64{1, 2}).Return(map[int64]float64{1: 8.5}, nil)

	resp, err := svc.ListTitles(repository.TitleFilter{}, 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	responses := resp.Data.([]dto.TitleResponse)
	assert.Equal(t, 8.5, *responses[0].Rating)
	assert.Nil(t, responses[1].Rating)
}

func TestUpdateTitle_ClearsCategory(t *testing.T) {
	_, _, titleRepo, reviewRepo, svc := newCatalogService()

	categoryID := int64(4)
	existing := &models.Title{
		ID:         6,
		Name:       "Recat",
		Year:       2018,
		CategoryID: &categoryID,
		Category:   &models.Category{ID: 4, Slug: "old"},
	}
	var updated *models.Title
	titleRepo.On("GetByID", int64(6)).Return(existing, nil)
	titleRepo.On("Update", mock.AnythingOfType("*models.Title")).Run(func(args mock.Arguments) {
		updated = args.Get(0).(*models.Title)
	}).Return(nil)
	reviewRepo.On("AverageScores", []int64{6}).Return(map[int64]float64{}, nil)

	empty := ""
	resp, err := svc.UpdateTitle(6, &dto.UpdateTitleRequest{Category: &empty})
	assert.NoError(t, err)
	assert.Nil(t, resp.Category)

	require.NotNil(t, updated)
	assert.Nil(t, updated.CategoryID)
}

func TestUpdateTitle_ReplacesGenres(t *testing.T) {
	_, genreRepo, titleRepo, reviewRepo, svc := newCatalogService()

	existing := &models.Title{ID: 8, Name: "Regenre", Year: 2012}
	genres := []models.Genre{{ID: 1, Slug: "horror"}, {ID: 2, Slug: "comedy"}}

	titleRepo.On("GetByID", int64(8)).Return(existing, nil)
	titleRepo.On("Update", mock.AnythingOfType("*models.Title")).Return(nil)
	genreRepo.On("FindBySlugs", []string{"horror", "comedy"}).Return(genres, nil)
	titleRepo.On("ReplaceGenres", mock.AnythingOfType("*models.Title"), genres).Return(nil)
	reviewRepo.On("AverageScores", []int64{8}).Return(map[int64]float64{}, nil)

	slugs := []string{"horror", "comedy"}
	resp, err := svc.UpdateTitle(8, &dto.UpdateTitleRequest{Genre: &slugs})
	assert.NoError(t, err)
	assert.Len(t, resp.Genre, 2)

	titleRepo.AssertExpectations(t)
}

func TestDeleteTitle_NotFound(t *testing.T) {
	_, _, titleRepo, _, svc := newCatalogService()

	titleRepo.On("Delete", int64(77)).Return(gorm.ErrRecordNotFound)

	err := svc.DeleteTitle(77)
	assert.ErrorIs(t, err, ErrTitleNotFound)
}
