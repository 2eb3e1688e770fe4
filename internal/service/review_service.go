package service

import (
	"errors"

	"gorm.io/gorm"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = repository.ErrDuplicateReview
	ErrNotPermitted    = errors.New("only the author, a moderator or an admin may modify this")
	ErrScoreOutOfRange = errors.New("score must be between 1 and 10")
)

// Actor is the authenticated principal acting on a request, built
// from token claims without a database round-trip.
type Actor struct {
	ID          string
	Role        models.Role
	IsSuperuser bool
}

// canModerate reports whether the actor may edit someone else's
// review or comment.
func (a *Actor) canModerate() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleModerator || a.IsSuperuser
}

type ReviewService interface {
	Create(titleID int64, actor *Actor, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	ListByTitle(titleID int64, page, pageSize int) (*dto.ListResponse, error)
	Get(titleID, reviewID int64) (*dto.ReviewResponse, error)
	Update(titleID, reviewID int64, actor *Actor, req *dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	Delete(titleID, reviewID int64, actor *Actor) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo repository.TitleRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

// Create submits a review for a title. The existence check gives a
// clean validation error on the common path; the unique constraint in
// the store settles any race between two concurrent submissions.
func (s *reviewService) Create(titleID int64, actor *Actor, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if req.Score < 1 || req.Score > 10 {
		return nil, ErrScoreOutOfRange
	}

	if _, err := s.titleRepo.GetByID(titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsByAuthorAndTitle(actor.ID, titleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     req.Text,
		Score:    req.Score,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	// Reload with author data
	review, err = s.reviewRepo.GetByID(review.ID)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) ListByTitle(titleID int64, page, pageSize int) (*dto.ListResponse, error) {
	if _, err := s.titleRepo.GetByID(titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	reviews, total, err := s.reviewRepo.GetByTitle(titleID, page, pageSize)
	if err != nil {
		return nil, err
	}

	return dto.NewListResponse(dto.FromModelToReviewResponses(reviews), int(total), page, pageSize), nil
}

// getForTitle loads a review and checks it belongs to the title in
// the URL, so review IDs cannot be reached through the wrong nest.
func (s *reviewService) getForTitle(titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.TitleID != titleID {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

func (s *reviewService) Get(titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.getForTitle(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Update(titleID, reviewID int64, actor *Actor, req *dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.getForTitle(titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if review.AuthorID != actor.ID && !actor.canModerate() {
		return nil, ErrNotPermitted
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		// omitempty skips a zero score at binding time
		if *req.Score < 1 || *req.Score > 10 {
			return nil, ErrScoreOutOfRange
		}
		review.Score = *req.Score
	}

	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}

	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Delete(titleID, reviewID int64, actor *Actor) error {
	review, err := s.getForTitle(titleID, reviewID)
	if err != nil {
		return err
	}

	if review.AuthorID != actor.ID && !actor.canModerate() {
		return ErrNotPermitted
	}

	return s.reviewRepo.Delete(reviewID)
}
