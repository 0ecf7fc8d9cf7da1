// Package services holds the write paths for posts and comments: validation,
// ownership checks and persistence through the entity store.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

// ImageChecker reports whether an image reference resolves to a stored blob.
type ImageChecker interface {
	Exists(ctx context.Context, ref string) bool
}

// PostInput is the editable part of a post.
type PostInput struct {
	Text     string `json:"text"`
	GroupID  *uint  `json:"group_id"`
	ImageRef string `json:"image_ref"`
}

// PostService creates, edits and deletes posts on behalf of a user.
type PostService struct {
	store  *store.Store
	images ImageChecker
}

// NewPostService returns a PostService. images may be nil when uploads are disabled,
// in which case any image reference is rejected.
func NewPostService(s *store.Store, images ImageChecker) *PostService {
	return &PostService{store: s, images: images}
}

// validate cleans in and returns the field errors it finds.
func (s *PostService) validate(ctx context.Context, in *PostInput) error {
	verr := &utils.ValidationError{}
	in.Text = utils.CleanText(in.Text)
	if in.Text == "" {
		verr.Add("text", "this field is required")
	}
	if in.GroupID != nil {
		if _, err := s.store.GroupByID(ctx, *in.GroupID); err != nil {
			if !errors.Is(err, utils.ErrNotFound) {
				return err
			}
			verr.Add("group", "select a valid group")
		}
	}
	if in.ImageRef != "" && (s.images == nil || !s.images.Exists(ctx, in.ImageRef)) {
		verr.Add("image", "upload a valid image")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

// CreatePost validates in and stores a new post written by authorID.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, in PostInput) (*models.Post, error) {
	if authorID == 0 {
		return nil, utils.ErrUnauthenticated
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	post := &models.Post{
		Text:     in.Text,
		UserID:   authorID,
		GroupID:  in.GroupID,
		ImageRef: in.ImageRef,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	utils.Sugar.Infof("post %d created by user %d", post.ID, authorID)
	return s.store.PostByID(ctx, post.ID)
}

// EditPost replaces text, group and image of postID. Only the author may edit;
// anyone else gets utils.ErrUnauthorized and the post is left untouched.
func (s *PostService) EditPost(ctx context.Context, postID, editorID uint, in PostInput) (*models.Post, error) {
	post, err := s.store.PostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if editorID == 0 {
		return nil, utils.ErrUnauthenticated
	}
	if post.UserID != editorID {
		return nil, utils.ErrUnauthorized
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}
	post.Text = in.Text
	post.GroupID = in.GroupID
	post.ImageRef = in.ImageRef
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return s.store.PostByID(ctx, postID)
}

// DeletePost removes postID and its comments. The author and admins may delete.
func (s *PostService) DeletePost(ctx context.Context, postID, actorID uint, isAdmin bool) (*models.Post, error) {
	post, err := s.store.PostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if actorID == 0 {
		return nil, utils.ErrUnauthenticated
	}
	if post.UserID != actorID && !isAdmin {
		return nil, utils.ErrUnauthorized
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}
	utils.Sugar.Infof("post %d deleted by user %d", postID, actorID)
	return post, nil
}
