package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/potluckapp/potluck/content"
	"github.com/potluckapp/potluck/registry"
	"github.com/potluckapp/potluck/server"
	"github.com/potluckapp/potluck/social"
	"github.com/potluckapp/potluck/utils"
	"github.com/potluckapp/potluck/utils/dotenv"
	"github.com/potluckapp/potluck/utils/flag"
	Logger "github.com/potluckapp/potluck/utils/log"
)

func main() {
	flag.ParseFlags()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	if !flag.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatal("cannot connect to DB: ", err)
	}
	utils.DatabaseSetupAndMigration(db)

	reg := registry.NewRegistry(db)
	handler := &server.Handler{
		Registry: reg,
		Graph:    social.NewGraphManager(db, reg),
		Content:  content.NewManager(db, reg),
	}

	// Read status is best effort, the API serves without redis.
	readStatus, err := utils.GetRedisStatusStore()
	if err != nil {
		Logger.Log.Warn("read status store disabled: ", err)
	} else {
		handler.ReadStatus = readStatus
	}

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	server.RegisterRoutes(router, handler)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	Logger.Log.Info("api server starts up")
	router.Run(":8080")
}
