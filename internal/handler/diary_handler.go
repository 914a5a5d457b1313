package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/pkg/response"
)

func (h *Handler) HomeFeed(c *gin.Context) {
	page, err := h.feeds.Home(c.Request.Context(), viewerOf(c), pageOf(c))
	if err != nil {
		fail(c, err, "failed to load home feed")
		return
	}
	response.Success(c, page)
}

func (h *Handler) PopularFeed(c *gin.Context) {
	page, err := h.feeds.Popular(c.Request.Context(), viewerOf(c), pageOf(c))
	if err != nil {
		fail(c, err, "failed to load popular feed")
		return
	}
	response.Success(c, page)
}

func (h *Handler) DiscoverFeed(c *gin.Context) {
	page, err := h.feeds.Discover(c.Request.Context(), viewerOf(c), pageOf(c))
	if err != nil {
		fail(c, err, "failed to load discover feed")
		return
	}
	response.Success(c, page)
}

func (h *Handler) Search(c *gin.Context) {
	result, err := h.feeds.Search(c.Request.Context(), viewerOf(c), c.Query("q"), pageOf(c))
	if err != nil {
		fail(c, err, "failed to search")
		return
	}
	response.Success(c, result)
}

func (h *Handler) GetDiary(c *gin.Context) {
	detail, err := h.diaries.Get(c.Request.Context(), viewerOf(c), c.Param("slug"))
	if err != nil {
		fail(c, err, "failed to load diary")
		return
	}
	response.Success(c, detail)
}

// CreateDiary accepts JSON, or a multipart form with an optional "image" file.
func (h *Handler) CreateDiary(c *gin.Context) {
	var req domain.CreateDiaryRequest
	if !bind(c, &req) {
		return
	}

	image, closeImage, err := formFile(c, "image")
	if err != nil {
		response.BadRequest(c, "invalid image upload")
		return
	}
	defer closeImage()

	diary, err := h.diaries.Create(c.Request.Context(), viewerOf(c), &req, image)
	if err != nil {
		fail(c, err, "failed to create diary")
		return
	}
	response.Created(c, diary)
}

func (h *Handler) UpdateDiary(c *gin.Context) {
	var req domain.UpdateDiaryRequest
	if !bind(c, &req) {
		return
	}

	image, closeImage, err := formFile(c, "image")
	if err != nil {
		response.BadRequest(c, "invalid image upload")
		return
	}
	defer closeImage()

	diary, err := h.diaries.Update(c.Request.Context(), viewerOf(c), c.Param("slug"), &req, image)
	if err != nil {
		fail(c, err, "failed to update diary")
		return
	}
	response.Success(c, diary)
}

func (h *Handler) DeleteDiary(c *gin.Context) {
	if err := h.diaries.Delete(c.Request.Context(), viewerOf(c), c.Param("slug")); err != nil {
		fail(c, err, "failed to delete diary")
		return
	}
	response.NoContent(c)
}

// UploadImage stores an image embedded in diary content. The file field is
// "upload", as rich text editors send it.
func (h *Handler) UploadImage(c *gin.Context) {
	upload, closeUpload, err := formFile(c, "upload")
	if err != nil || upload == nil {
		response.BadRequest(c, "missing upload file")
		return
	}
	defer closeUpload()

	url, err := h.diaries.UploadImage(c.Request.Context(), viewerOf(c), *upload)
	if err != nil {
		fail(c, err, "failed to upload image")
		return
	}
	response.Created(c, gin.H{"url": url})
}

func (h *Handler) ToggleDiaryLike(c *gin.Context) {
	state, err := h.engagement.ToggleDiaryLike(c.Request.Context(), viewerOf(c), c.Param("slug"))
	if err != nil {
		fail(c, err, "failed to toggle like")
		return
	}
	response.Success(c, state)
}

func (h *Handler) AddComment(c *gin.Context) {
	var req domain.AddCommentRequest
	if !bind(c, &req) {
		return
	}

	comment, err := h.engagement.AddComment(c.Request.Context(), viewerOf(c), c.Param("slug"), &req)
	if err != nil {
		fail(c, err, "failed to add comment")
		return
	}
	response.Created(c, comment)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	err := h.engagement.DeleteComment(c.Request.Context(), viewerOf(c), c.Param("slug"), c.Param("comment_id"))
	if err != nil {
		fail(c, err, "failed to delete comment")
		return
	}
	response.NoContent(c)
}

func (h *Handler) ToggleCommentLike(c *gin.Context) {
	state, err := h.engagement.ToggleCommentLike(c.Request.Context(), viewerOf(c), c.Param("slug"), c.Param("comment_id"))
	if err != nil {
		fail(c, err, "failed to toggle comment like")
		return
	}
	response.Success(c, state)
}
