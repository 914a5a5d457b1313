package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/service"
	"github.com/omar-ramo/yawm/pkg/log"
	"github.com/omar-ramo/yawm/pkg/middleware"
	"github.com/omar-ramo/yawm/pkg/pagination"
	"github.com/omar-ramo/yawm/pkg/response"
)

const viewerKey = "viewer"

// Handler handles HTTP requests for the journaling API.
type Handler struct {
	identity       service.IdentityService
	diaries        service.DiaryService
	engagement     service.EngagementService
	feeds          service.FeedService
	notifications  service.NotificationService
	authMiddleware *middleware.AuthMiddleware
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	identity service.IdentityService,
	diaries service.DiaryService,
	engagement service.EngagementService,
	feeds service.FeedService,
	notifications service.NotificationService,
	authMiddleware *middleware.AuthMiddleware,
	maxUploadBytes int64,
) *Handler {
	// Report binding failures by json field name, like the services do.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		service.RegisterJSONNames(v)
	}

	return &Handler{
		identity:       identity,
		diaries:        diaries,
		engagement:     engagement,
		feeds:          feeds,
		notifications:  notifications,
		authMiddleware: authMiddleware,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api/v1")

	// Readable by anyone; a valid token personalises the result.
	public := api.Group("", h.authMiddleware.OptionalAuth(), h.resolveViewer())
	{
		public.GET("/diaries", h.HomeFeed)
		public.GET("/diaries/popular", h.PopularFeed)
		public.GET("/diaries/discover", h.DiscoverFeed)
		public.GET("/diaries/:slug", h.GetDiary)
		public.GET("/search", h.Search)

		public.GET("/profiles", h.ListProfiles)
		public.GET("/profiles/top", h.TopProfiles)
		public.GET("/profiles/:username", h.GetProfile)
		public.GET("/profiles/:username/diaries", h.ProfileDiaries)
		public.GET("/profiles/:username/followers", h.Followers)
		public.GET("/profiles/:username/following", h.Following)
	}

	private := api.Group("", h.authMiddleware.RequireAuth(), h.resolveViewer(), h.limitBody())
	{
		private.POST("/diaries", h.CreateDiary)
		private.PATCH("/diaries/:slug", h.UpdateDiary)
		private.DELETE("/diaries/:slug", h.DeleteDiary)
		private.POST("/diaries/:slug/like", h.ToggleDiaryLike)
		private.POST("/diaries/:slug/comments", h.AddComment)
		private.DELETE("/diaries/:slug/comments/:comment_id", h.DeleteComment)
		private.POST("/diaries/:slug/comments/:comment_id/like", h.ToggleCommentLike)
		private.POST("/uploads", h.UploadImage)

		private.POST("/profiles/:username/follow", h.ToggleFollow)
		private.PATCH("/profiles/me", h.UpdateProfile)
		private.PUT("/profiles/me/avatar", h.UpdateAvatar)

		private.GET("/notifications", h.ListNotifications)
		private.GET("/notifications/unread-count", h.UnreadCount)
		private.POST("/notifications/read-all", h.MarkAllRead)
		private.POST("/notifications/:id/read", h.MarkRead)
	}
}

// resolveViewer loads the profile of the authenticated user, creating it on
// first sight. Requests without a user stay anonymous.
func (h *Handler) resolveViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.Next()
			return
		}

		username := middleware.GetUsername(c)
		if username == "" {
			username = userID
		}

		ctx := c.Request.Context()
		profile, err := h.identity.EnsureProfile(ctx, userID, username)
		if err != nil {
			l := log.Ctx(ctx)
			l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to resolve viewer")
			response.InternalError(c, "failed to resolve profile")
			c.Abort()
			return
		}

		c.Set(viewerKey, domain.Viewer{ProfileID: profile.ID, Username: profile.Username})
		c.Set(log.FieldProfileID, profile.ID)
		c.Request = c.Request.WithContext(log.WithStr(ctx, log.FieldProfileID, profile.ID))
		c.Next()
	}
}

func (h *Handler) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.maxUploadBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
		}
		c.Next()
	}
}

func viewerOf(c *gin.Context) domain.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		return v.(domain.Viewer)
	}
	return domain.Anonymous
}

func pageOf(c *gin.Context) int {
	return pagination.ParsePage(c.Query("page"))
}

// fail maps service errors to responses. Unexpected errors are logged and
// reported with msg.
func fail(c *gin.Context, err error, msg string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.ValidationFailed(c, ve.Fields)
	case errors.Is(err, service.ErrSelfFollow):
		response.BadRequest(c, "you cannot follow yourself")
	case errors.Is(err, service.ErrValidationFailed):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, "authentication required")
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}

// bind decodes the request body into req and reports malformed input.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBind(req); err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			response.ValidationFailed(c, ve.Fields)
			return false
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")
			return false
		}
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("invalid request body")
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formFile opens an optional uploaded file. The returned close func is never nil.
func formFile(c *gin.Context, field string) (*service.Upload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	return open(header)
}

func open(header *multipart.FileHeader) (*service.Upload, func(), error) {
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &service.Upload{Filename: header.Filename, Body: f}, func() { f.Close() }, nil
}
