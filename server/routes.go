package server

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/potluckapp/potluck/server/middlewares"
	"github.com/potluckapp/potluck/utils/flag"
)

var errReadStatusDisabled = errors.New("read status store is not configured")

// RegisterRoutes attaches the API surface to the router. Authenticated
// routes sit behind the subject-header middleware; the identity provider
// verified the credential upstream, this layer only requires its result.
//
// Static and parameterized segments never share a position, gin's route
// tree rejects that mix at startup.
func RegisterRoutes(router *gin.Engine, h *Handler) {
	auth := middlewares.Auth()
	if flag.ByPassAuth {
		auth = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api")

	users := api.Group("/users")
	users.POST("/register", auth, h.Register)
	users.GET("/me", auth, h.GetMyProfile)
	users.GET("/profile/:handle", h.GetProfile)
	users.PUT("/profile", auth, h.UpdateProfile)
	users.POST("/follow/:handle", auth, h.Follow)
	users.POST("/unfollow/:handle", auth, h.Unfollow)
	users.GET("/profile/:handle/followers", h.ListFollowers)
	users.GET("/profile/:handle/following", h.ListFollowing)

	posts := api.Group("/posts")
	posts.POST("", auth, h.CreatePost)
	posts.GET("/:id/thread", h.GetThread)
	posts.POST("/:id/replies", auth, h.AddReply)
	posts.PUT("/:id", auth, h.EditPost)

	api.PUT("/replies/:id", auth, h.EditReply)
	api.POST("/recipes/preview", auth, h.PreviewRecipe)
	api.POST("/read-status", auth, h.SetReadStatus)
	api.POST("/read-status/query", auth, h.GetReadStatus)
}
