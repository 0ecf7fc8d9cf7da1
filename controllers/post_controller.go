package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/middleware"
	"github.com/cppla/blogfeed/services"
	"github.com/cppla/blogfeed/store"
	"github.com/cppla/blogfeed/utils"
)

// PostController handles post detail, post writes, comments and image uploads.
type PostController struct {
	store    *store.Store
	posts    *services.PostService
	comments *services.CommentService
	blobs    *utils.BlobStore
}

// NewPostController creates a new PostController instance.
func NewPostController(s *store.Store, posts *services.PostService, comments *services.CommentService, blobs *utils.BlobStore) *PostController {
	return &PostController{store: s, posts: posts, comments: comments, blobs: blobs}
}

type postRequest struct {
	Text     string `json:"text"`
	GroupID  *uint  `json:"group_id"`
	ImageRef string `json:"image_ref"`
}

func (r postRequest) input() services.PostInput {
	return services.PostInput{Text: r.Text, GroupID: r.GroupID, ImageRef: strings.TrimSpace(r.ImageRef)}
}

// commentForm describes the empty form the detail view offers.
var commentForm = gin.H{"fields": []string{"text"}}

// GetPost returns a post with its comments oldest first.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	post, err := p.store.PostByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	comments, err := p.comments.ListComments(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{
		"post":         post,
		"image_url":    p.blobs.URL(post.ImageRef),
		"comments":     comments,
		"comment_form": commentForm,
	})
}

// CreatePost publishes a post for the viewer and points at their profile.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	post, err := p.posts.CreatePost(ctx.Request.Context(), viewerID(ctx), req.input())
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{"post": post, "redirect": profilePath(post.User.Username)})
}

// UpdatePost edits a post the viewer wrote.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}
	post, err := p.posts.EditPost(ctx.Request.Context(), id, viewerID(ctx), req.input())
	if err != nil {
		respondError(ctx, err, postPath(id))
		return
	}
	utils.Success(ctx, gin.H{"post": post, "redirect": postPath(id)})
}

// DeletePost removes a post written by the viewer, or any post for admins.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	post, err := p.posts.DeletePost(ctx.Request.Context(), id, viewerID(ctx), middleware.IsAdmin(ctx))
	if err != nil {
		respondError(ctx, err, postPath(id))
		return
	}
	utils.Success(ctx, gin.H{"redirect": profilePath(post.User.Username)})
}

// CreateComment appends the viewer's comment to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}
	comment, err := p.comments.AddComment(ctx.Request.Context(), id, viewerID(ctx), req.Text)
	if err != nil {
		respondError(ctx, err, postPath(id))
		return
	}
	utils.Success(ctx, gin.H{"comment": comment, "redirect": postPath(id)})
}

// UploadImage stores a post image and returns its reference.
func (p *PostController) UploadImage(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("image")
	if err != nil {
		file, header, err = ctx.Request.FormFile("file")
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
			return
		}
	}
	defer file.Close()

	maxSize := p.blobs.MaxSize()
	if header.Size > maxSize {
		respondError(ctx, utils.ErrTooLarge, "")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to read upload")
		return
	}

	ref, err := p.blobs.Store(ctx.Request.Context(), data, "")
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Sugar.Infof("user %d uploaded %s (%d bytes)", viewerID(ctx), ref, len(data))
	utils.Success(ctx, gin.H{"image_ref": ref, "url": p.blobs.URL(ref)})
}

// Media streams a stored image.
func (p *PostController) Media(ctx *gin.Context) {
	data, contentType, err := p.blobs.Retrieve(ctx.Request.Context(), strings.TrimPrefix(ctx.Param("ref"), "/"))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	ctx.Header("Cache-Control", "public, max-age=86400")
	ctx.Data(http.StatusOK, contentType, data)
}
