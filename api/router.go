// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"medialib/content-api/db"
	"medialib/content-api/middleware"
	"medialib/content-api/service"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

// Headroom for the text fields and multipart framing around an upload
const formOverhead = 1 << 20

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Media    *service.MediaStore
	Tags     *service.TagStore
	Contents *service.Contents
}

func NewRouter() (*API, error) {
	a := &API{}

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = database

	a.Media = service.NewMediaStore()
	if err := a.Media.EnsureLayout(); err != nil {
		return nil, fmt.Errorf("failed to prepare media root, %w", err)
	}

	a.Tags = service.NewTagStore(database)
	a.Contents = service.NewContents(database, a.Media, a.Tags)

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000", "http://localhost:3001"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 8 << 20

	maxUploadSize := viper.GetInt64("upload.max_size")

	// HEAD /heartbeat			-> Used to check if the server is alive
	router.HEAD("/heartbeat", a.Heartbeat)

	contents := router.Group("/contents")
	{
		// GET /contents 		-> Returns a filtered, paginated content listing
		contents.GET("", a.ContentList)

		// GET /contents/media/*path	-> Serves a stored media file directly.
		// Registered before :id so media paths never parse as IDs
		contents.GET("/media/*path", a.MediaServe)

		// GET /contents/:id		-> Returns a single content with its tags
		contents.GET("/:id", a.ContentFetch)

		// POST /contents		-> Uploads a new file and creates a content
		contents.POST("", middleware.BodySizeLimiter(maxUploadSize+formOverhead), a.ContentCreate)

		// PUT /contents/:id		-> Partially updates a content, optionally replacing its file
		contents.PUT("/:id", middleware.BodySizeLimiter(maxUploadSize+formOverhead), a.ContentUpdate)

		// DELETE /contents/:id		-> Deletes a content and its backing file
		contents.DELETE("/:id", a.ContentDelete)
	}

	tags := router.Group("/tags")
	{
		// GET /tags			-> Returns every tag ordered by name
		tags.GET("", cacheFor(30), a.TagList)

		// GET /tags/:id		-> Returns one tag with its associated contents
		tags.GET("/:id", a.TagFetch)
	}

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
