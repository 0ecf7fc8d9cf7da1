package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/middleware"
	"github.com/cppla/blogfeed/utils"
)

// respondError maps domain errors onto the JSON envelope. readPath is where a
// viewer lacking permission is sent instead.
func respondError(ctx *gin.Context, err error, readPath string) {
	var verr *utils.ValidationError
	switch {
	case errors.Is(err, utils.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	case errors.As(err, &verr):
		utils.ErrorWithData(ctx, http.StatusBadRequest, 40000, "invalid form", gin.H{"errors": verr.Fields})
	case errors.Is(err, utils.ErrUnauthorized):
		utils.ErrorWithData(ctx, http.StatusForbidden, 40300, "not allowed", gin.H{"redirect": readPath})
	case errors.Is(err, utils.ErrUnauthenticated):
		middleware.RespondUnauthenticated(ctx)
	case errors.Is(err, utils.ErrTooLarge):
		utils.ErrorWithData(ctx, http.StatusBadRequest, 40032, "file too large", gin.H{"errors": gin.H{"image": "file too large"}})
	case errors.Is(err, utils.ErrUnsupportedMedia):
		utils.Error(ctx, http.StatusUnsupportedMediaType, 41500, "unsupported media type")
	default:
		utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal error")
	}
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
		return 0, false
	}
	return uint(n), true
}

func viewerID(ctx *gin.Context) uint {
	id, _ := middleware.ViewerID(ctx)
	return id
}

func postPath(id uint) string { return "/api/v1/posts/" + strconv.FormatUint(uint64(id), 10) }

func profilePath(username string) string { return "/api/v1/profile/" + username }
