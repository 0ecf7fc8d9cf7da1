package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/blogfeed/config"
	"github.com/cppla/blogfeed/utils"
)

// AboutController serves the static about pages from configuration.
type AboutController struct{}

func NewAboutController() *AboutController { return &AboutController{} }

// Author describes who runs the site.
func (a *AboutController) Author(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{"title": cfg.AboutAuthorTitle, "html": cfg.AboutAuthorHTML})
}

// Tech describes the technology behind the site.
func (a *AboutController) Tech(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{"title": cfg.AboutTechTitle, "html": cfg.AboutTechHTML})
}
