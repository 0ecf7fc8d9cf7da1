package services

import (
	"context"

	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

// CommentService appends comments to posts and lists them.
type CommentService struct {
	store *store.Store
}

// NewCommentService returns a CommentService.
func NewCommentService(s *store.Store) *CommentService {
	return &CommentService{store: s}
}

// AddComment appends a comment by authorID to postID. Blank text is rejected
// before anything is written.
func (s *CommentService) AddComment(ctx context.Context, postID, authorID uint, text string) (*models.Comment, error) {
	if _, err := s.store.PostByID(ctx, postID); err != nil {
		return nil, err
	}
	if authorID == 0 {
		return nil, utils.ErrUnauthenticated
	}
	text = utils.CleanText(text)
	if text == "" {
		return nil, utils.NewValidationError("text", "this field is required")
	}
	c := &models.Comment{PostID: postID, UserID: authorID, Text: text}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	author, err := s.store.UserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	c.User = *author
	return c, nil
}

// ListComments returns postID's comments in the order they were added.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.store.ListComments(ctx, postID)
}
