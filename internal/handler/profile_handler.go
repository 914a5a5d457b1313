package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/pkg/response"
)

func (h *Handler) ListProfiles(c *gin.Context) {
	page, err := h.identity.ListProfiles(c.Request.Context(), pageOf(c))
	if err != nil {
		fail(c, err, "failed to list profiles")
		return
	}
	response.Success(c, page)
}

func (h *Handler) TopProfiles(c *gin.Context) {
	page, err := h.identity.TopProfiles(c.Request.Context(), pageOf(c))
	if err != nil {
		fail(c, err, "failed to list top profiles")
		return
	}
	response.Success(c, page)
}

func (h *Handler) GetProfile(c *gin.Context) {
	detail, err := h.identity.GetProfile(c.Request.Context(), viewerOf(c), c.Param("username"))
	if err != nil {
		fail(c, err, "failed to load profile")
		return
	}
	response.Success(c, detail)
}

func (h *Handler) ProfileDiaries(c *gin.Context) {
	page, err := h.feeds.ProfileDiaries(c.Request.Context(), viewerOf(c), c.Param("username"), pageOf(c))
	if err != nil {
		fail(c, err, "failed to load profile diaries")
		return
	}
	response.Success(c, page)
}

func (h *Handler) Followers(c *gin.Context) {
	page, err := h.identity.Followers(c.Request.Context(), c.Param("username"), pageOf(c))
	if err != nil {
		fail(c, err, "failed to list followers")
		return
	}
	response.Success(c, page)
}

func (h *Handler) Following(c *gin.Context) {
	page, err := h.identity.Following(c.Request.Context(), c.Param("username"), pageOf(c))
	if err != nil {
		fail(c, err, "failed to list following")
		return
	}
	response.Success(c, page)
}

func (h *Handler) ToggleFollow(c *gin.Context) {
	state, err := h.identity.ToggleFollow(c.Request.Context(), viewerOf(c), c.Param("username"))
	if err != nil {
		fail(c, err, "failed to toggle follow")
		return
	}
	response.Success(c, state)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req domain.UpdateProfileRequest
	if !bind(c, &req) {
		return
	}

	profile, err := h.identity.UpdateProfile(c.Request.Context(), viewerOf(c), &req)
	if err != nil {
		fail(c, err, "failed to update profile")
		return
	}
	response.Success(c, profile)
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	upload, closeUpload, err := formFile(c, "image")
	if err != nil || upload == nil {
		response.BadRequest(c, "missing image file")
		return
	}
	defer closeUpload()

	profile, err := h.identity.UpdateAvatar(c.Request.Context(), viewerOf(c), *upload)
	if err != nil {
		fail(c, err, "failed to update avatar")
		return
	}
	response.Success(c, profile)
}
