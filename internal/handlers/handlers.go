package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"necessities/swap/internal/config"
	"necessities/swap/internal/events"
	"necessities/swap/internal/middleware"
	"necessities/swap/internal/repository"
	"necessities/swap/internal/security"
	"necessities/swap/internal/service"
	"necessities/swap/internal/storage"
)

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	userService  *service.UserService
	itemService  *service.ItemService
	adminService *service.AdminService
	store        *repository.Store
	cache        redis.UniversalClient
	photos       *storage.ObjectStore
}

// NewHandlerSet builds the services over store. photos is nil when image
// uploads are disabled.
func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	store *repository.Store,
	cache redis.UniversalClient,
	photos *storage.ObjectStore,
	publisher events.Publisher,
	hasher *security.Hasher,
) HandlerSet {
	users := repository.NewUserRepository(store.Users)
	items := repository.NewItemRepository(store.Items)
	guard := service.NewGuard(users)

	var photoStore service.PhotoStore
	if photos != nil {
		photoStore = photos
	}

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		userService:  service.NewUserService(users, guard, hasher, log),
		itemService:  service.NewItemService(items, guard, photoStore, cfg.Storage.MaxUploadBytes, publisher, log),
		adminService: service.NewAdminService(users, items, guard, hasher, service.NewAnalytics(users, items), publisher, log),
		store:        store,
		cache:        cache,
		photos:       photos,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	limit := middleware.RateLimit(h.cache, h.cfg.RateLimit.AuthPerMinute, h.log)

	users := router.Group("/users")
	{
		users.POST("/register", limit, h.RegisterUser)
		users.POST("/login", limit, h.Login)
		users.POST("/logout", h.Logout)
		users.GET("/profile", h.GetProfile)
		users.PUT("/profile", h.UpdateProfile)
	}

	items := router.Group("/items")
	{
		items.GET("", h.ListItems)
		items.POST("", h.CreateItem)
		items.GET("/my-items", h.MyItems)
		items.GET("/:id", h.GetItem)
		items.POST("/:id/claim", h.ClaimItem)
		items.POST("/:id/image", h.UploadItemImage)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/login", limit, h.AdminLogin)
		admin.GET("/users", h.AdminListUsers)
		admin.PATCH("/users/:id", h.AdminUpdateUser)
		admin.GET("/items", h.AdminListItems)
		admin.POST("/items", h.AdminAddItem)
		admin.POST("/items/:id/moderate", h.AdminModerateItem)
		admin.GET("/analytics/users", h.AdminUserStats)
		admin.GET("/analytics/activity", h.AdminActivity)
	}
}

// Root answers the bare service URL.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Necessities Swap API is running",
	})
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"status":  "error",
		"message": "The requested resource was not found",
	})
}
