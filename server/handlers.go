// Package server is the thin transport over the core: it parses requests,
// calls the one operation they map to, and serializes the result. No
// business rule lives here.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/potluckapp/potluck/content"
	"github.com/potluckapp/potluck/model"
	"github.com/potluckapp/potluck/recipe"
	"github.com/potluckapp/potluck/registry"
	"github.com/potluckapp/potluck/server/middlewares"
	"github.com/potluckapp/potluck/social"
	"github.com/potluckapp/potluck/status"
	"github.com/potluckapp/potluck/utils"
	Logger "github.com/potluckapp/potluck/utils/log"
)

type Handler struct {
	Registry *registry.Registry
	Graph    *social.GraphManager
	Content  *content.Manager

	// ReadStatus is optional; when redis is not configured the read-status
	// routes answer Unavailable instead of failing startup.
	ReadStatus *utils.RedisStatusStore
}

// httpCode maps the core's error kinds to protocol status codes. The core
// kinds are the single source of truth for what went wrong, this table is
// the only place they are translated.
func httpCode(kind status.Kind) int {
	switch kind {
	case status.KindNotFound:
		return http.StatusNotFound
	case status.KindConflict:
		return http.StatusConflict
	case status.KindForbidden:
		return http.StatusForbidden
	case status.KindValidation, status.KindInvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func writeError(c *gin.Context, err error) {
	kind := status.KindOf(err)
	if kind == status.KindUnavailable {
		Logger.Log.Error("operation failed: ", err)
	}
	code := httpCode(kind)
	c.JSON(code, model.ErrorResponse{Code: code, Reason: status.ReasonOf(err), Error: err.Error()})
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}

	user, err := h.Registry.Register(c.Request.Context(), middlewares.Subject(c), req.Handle, req.DisplayName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.RegisterResponse{Message: "User has been registered successfully", User: user})
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	user, err := h.Registry.GetBySubject(c.Request.Context(), middlewares.Subject(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.Registry.GetByHandle(c.Request.Context(), c.Param("handle"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}

	user, err := h.Registry.UpdateProfile(c.Request.Context(), middlewares.Subject(c), registry.ProfileUpdate{
		DisplayName:    req.DisplayName,
		Description:    req.Description,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func (h *Handler) Follow(c *gin.Context) {
	if err := h.Graph.Follow(c.Request.Context(), middlewares.Subject(c), c.Param("handle")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You are now following " + c.Param("handle")})
}

func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.Graph.Unfollow(c.Request.Context(), middlewares.Subject(c), c.Param("handle")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have unfollowed " + c.Param("handle")})
}

func (h *Handler) ListFollowers(c *gin.Context) {
	users, err := h.Graph.ListFollowers(c.Request.Context(), c.Param("handle"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ProfileListResponse{Users: users})
}

func (h *Handler) ListFollowing(c *gin.Context) {
	users, err := h.Graph.ListFollowing(c.Request.Context(), c.Param("handle"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ProfileListResponse{Users: users})
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req model.NewPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}

	post, err := h.Content.CreatePost(c.Request.Context(), middlewares.Subject(c), req.Text, req.Media, req.Recipe)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// PreviewRecipe runs draft recipe chunks through validation without
// touching any post, so clients can validate while composing.
func (h *Handler) PreviewRecipe(c *gin.Context) {
	var req model.PreviewRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}

	ordered, err := recipe.ValidateAndOrder(req.Recipe)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": ordered})
}

func (h *Handler) GetThread(c *gin.Context) {
	thread, err := h.Content.GetThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *Handler) AddReply(c *gin.Context) {
	var req model.NewReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}

	reply, err := h.Content.AddReply(c.Request.Context(), middlewares.Subject(c), c.Param("id"), req.ParentReplyId, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reply": reply})
}

func (h *Handler) EditPost(c *gin.Context) {
	var req model.EditTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}

	post, err := h.Content.EditPost(c.Request.Context(), middlewares.Subject(c), c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *Handler) EditReply(c *gin.Context) {
	var req model.EditTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}

	reply, err := h.Content.EditReply(c.Request.Context(), middlewares.Subject(c), c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handler) markReadUser(c *gin.Context) (string, bool) {
	user, err := h.Registry.GetBySubject(c.Request.Context(), middlewares.Subject(c))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return user.Id, true
}

func (h *Handler) SetReadStatus(c *gin.Context) {
	if h.ReadStatus == nil {
		writeError(c, status.Unavailable(errReadStatusDisabled))
		return
	}
	var req model.ReadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}
	userId, ok := h.markReadUser(c)
	if !ok {
		return
	}

	if err := h.ReadStatus.SetPostsReadStatus(req.PostIds, userId, req.Read); err != nil {
		writeError(c, status.Unavailable(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "read status updated"})
}

func (h *Handler) GetReadStatus(c *gin.Context) {
	if h.ReadStatus == nil {
		writeError(c, status.Unavailable(errReadStatusDisabled))
		return
	}
	var req model.ReadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, status.Validation("malformed request body"))
		return
	}
	userId, ok := h.markReadUser(c)
	if !ok {
		return
	}

	readStatus, err := h.ReadStatus.GetPostsReadStatus(req.PostIds, userId)
	if err != nil {
		writeError(c, status.Unavailable(err))
		return
	}
	c.JSON(http.StatusOK, model.ReadStatusResponse{PostIds: req.PostIds, Status: readStatus})
}
