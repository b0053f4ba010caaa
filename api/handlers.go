package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"snelos/models"
	"snelos/service"
)

// Handler exposes the ledger over HTTP
type Handler struct {
	accounts service.AccountService
	ledger   service.LedgerService
	treasury service.TreasuryService
	posts    service.PostService
	search   service.SearchService
	tasks    service.TaskService
}

// NewHandler creates a new API handler
func NewHandler(
	accounts service.AccountService,
	ledger service.LedgerService,
	treasury service.TreasuryService,
	posts service.PostService,
	search service.SearchService,
	tasks service.TaskService,
) *Handler {
	return &Handler{
		accounts: accounts,
		ledger:   ledger,
		treasury: treasury,
		posts:    posts,
		search:   search,
		tasks:    tasks,
	}
}

// SetupRoutes registers all routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine, jwtSecret []byte) {
	router.Use(RequestID(), AccessLog())

	router.GET("/healthz", h.health)

	public := router.Group("/api")
	public.GET("/treasury", h.getTreasury)

	authed := router.Group("/api")
	authed.Use(Auth(jwtSecret))
	{
		authed.GET("/me", h.getMe)
		authed.GET("/me/history", h.getHistory)

		authed.POST("/posts", h.createPost)
		authed.GET("/posts", h.getFeed)
		authed.POST("/posts/:id/like", h.likePost)

		authed.POST("/search/reroll", h.reroll)
		authed.GET("/search/status", h.rerollStatus)

		authed.GET("/tasks", h.getTasks)
		authed.POST("/tasks/:id/complete", h.completeTask)

		admin := authed.Group("/admin")
		admin.Use(AdminOnly())
		admin.POST("/credits", h.adjustCredits)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getMe(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)

	if _, err := h.accounts.GetOrCreateAccount(c.Request.Context(), accountID); err != nil {
		respondError(c, err)
		return
	}

	profile, err := h.accounts.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) getHistory(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)
	limit := intQuery(c, "limit", 50)

	entries, err := h.ledger.GetHistory(c.Request.Context(), accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *Handler) getTreasury(c *gin.Context) {
	summary, err := h.treasury.GetSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

type createPostRequest struct {
	ImageURL  string  `json:"imageUrl" binding:"required"`
	PromptTag *string `json:"promptTag"`
}

func (h *Handler) createPost(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image URL is required"})
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), accountID, req.ImageURL, req.PromptTag)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *Handler) getFeed(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	posts, err := h.posts.GetFeed(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) likePost(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)
	postID := c.Param("id")

	if err := h.posts.LikePost(c.Request.Context(), accountID, postID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post liked successfully"})
}

func (h *Handler) reroll(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)

	result, err := h.search.Reroll(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) rerollStatus(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)

	result, err := h.search.Status(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) getTasks(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)

	tasks, err := h.tasks.GetTodaysTasks(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) completeTask(c *gin.Context) {
	accountID := c.GetString(contextKeyAccountID)
	taskID := c.Param("id")

	task, err := h.tasks.CompleteTask(c.Request.Context(), accountID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

type adjustCreditsRequest struct {
	AccountID  string `json:"accountId" binding:"required"`
	DeltaCents int64  `json:"deltaCents" binding:"required"`
	Note       string `json:"note"`
}

func (h *Handler) adjustCredits(c *gin.Context) {
	var req adjustCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountId and a non-zero deltaCents are required"})
		return
	}

	meta := map[string]any{"admin_id": c.GetString(contextKeyAccountID)}
	if req.Note != "" {
		meta["note"] = req.Note
	}

	var err error
	if req.DeltaCents > 0 {
		err = h.ledger.Credit(c.Request.Context(), req.AccountID, req.DeltaCents, models.CreditReasonAdminAdjustment, meta)
	} else {
		err = h.ledger.Debit(c.Request.Context(), req.AccountID, -req.DeltaCents, models.CreditReasonAdminAdjustment, meta)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "balanceCents": balance})
}

// respondError maps ledger errors onto HTTP statuses. Anything outside the
// error taxonomy is a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, models.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, models.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, models.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient credits"})
	case errors.Is(err, models.ErrAlreadyLiked):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Post already liked"})
	case errors.Is(err, models.ErrSelfLike):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot like your own post"})
	case errors.Is(err, models.ErrTaskAlreadyCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task already completed"})
	case errors.Is(err, models.ErrRerollOnCooldown):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reroll is on cooldown"})
	case errors.Is(err, models.ErrDailyPostLimit):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Daily post limit reached"})
	case errors.Is(err, models.ErrAlreadyUsedToday):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Daily free action already used"})
	case errors.Is(err, models.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	default:
		log.WithError(err).WithField("requestId", c.GetString(contextKeyRequestID)).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
