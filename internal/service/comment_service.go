package service

import (
	"errors"

	"gorm.io/gorm"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentService interface {
	Create(titleID, reviewID int64, actor *Actor, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	ListByReview(titleID, reviewID int64, page, pageSize int) (*dto.ListResponse, error)
	Get(titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Update(titleID, reviewID, commentID int64, actor *Actor, req *dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	Delete(titleID, reviewID, commentID int64, actor *Actor) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
	}
}

// reviewForTitle resolves the parent review and checks the nesting.
func (s *commentService) reviewForTitle(titleID, reviewID int64) (*models.Review, error) {
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

func (s *commentService) Create(titleID, reviewID int64, actor *Actor, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if _, err := s.reviewForTitle(titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     req.Text,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	// Reload with author data
	comment, err := s.commentRepo.GetByID(comment.ID)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) ListByReview(titleID, reviewID int64, page, pageSize int) (*dto.ListResponse, error) {
	if _, err := s.reviewForTitle(titleID, reviewID); err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.GetByReview(reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}

	return dto.NewListResponse(dto.FromModelToCommentResponses(comments), int(total), page, pageSize), nil
}

func (s *commentService) getForReview(titleID, reviewID, commentID int64) (*models.Comment, error) {
	if _, err := s.reviewForTitle(titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *commentService) Get(titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	comment, err := s.getForReview(titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Update(titleID, reviewID, commentID int64, actor *Actor, req *dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	comment, err := s.getForReview(titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if comment.AuthorID != actor.ID && !actor.canModerate() {
		return nil, ErrNotPermitted
	}

	comment.Text = req.Text
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}

	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Delete(titleID, reviewID, commentID int64, actor *Actor) error {
	comment, err := s.getForReview(titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if comment.AuthorID != actor.ID && !actor.canModerate() {
		return ErrNotPermitted
	}

	return s.commentRepo.Delete(commentID)
}
