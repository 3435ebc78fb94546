package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/appheap/tase/internal/database"
	"github.com/appheap/tase/internal/models"
	"github.com/appheap/tase/internal/scheduler"
	"github.com/appheap/tase/pkg/config"
	"github.com/appheap/tase/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	db := database.New(driver)

	// Counts are served from the refresher's snapshot, not per request.
	countJob := scheduler.NewCountRefreshJob(db, cfg.StatusRefreshInterval)
	sched := scheduler.New()
	sched.Add(countJob)
	go func() {
		if err := sched.Run(ctx); err != nil && err != context.Canceled {
			log.Error("Scheduler stopped", zap.Error(err))
		}
	}()

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		// Collection counts snapshot
		api.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"counts": countJob.Counts()})
		})

		// Audio lookup by key
		api.GET("/audio/:key", func(c *gin.Context) {
			ctx := c.Request.Context()

			audio, err := db.Audios.Get(ctx, c.Param("key"))
			if err != nil {
				log.Error("Failed to fetch audio", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audio"})
				return
			}
			if audio == nil || audio.IsSoftDeleted {
				c.JSON(http.StatusNotFound, gin.H{"error": "Audio not found"})
				return
			}

			resp := gin.H{
				"key":       audio.Key,
				"title":     audio.Title,
				"performer": audio.Performer,
				"file_name": audio.FileName,
				"mime_type": audio.MimeType,
				"duration":  audio.Duration,
				"file_size": audio.FileSize,
			}
			if file := db.GetAudioFile(ctx, audio); file != nil {
				resp["file_id"] = file.FileID
			}
			c.JSON(http.StatusOK, resp)
		})

		// Audios of a playlist
		api.GET("/playlist/:key/audios", func(c *gin.Context) {
			playlist, err := db.Playlists.Get(c.Request.Context(), c.Param("key"))
			if err != nil {
				log.Error("Failed to fetch playlist", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch playlist"})
				return
			}
			if playlist == nil || playlist.IsSoftDeleted || !playlist.IsPublic {
				c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
				return
			}

			audios := db.GetPlaylistAudios(c.Request.Context(), playlist.Key, 0, 100)
			items := make([]gin.H, 0, len(audios))
			for _, a := range audios {
				items = append(items, gin.H{
					"key":       a.Key,
					"title":     a.Title,
					"performer": a.Performer,
				})
			}
			c.JSON(http.StatusOK, gin.H{
				"title":  playlist.Title,
				"audios": items,
			})
		})

		// Username crawl verdict
		api.GET("/username/:name", func(c *gin.Context) {
			u, err := db.Usernames.Get(c.Request.Context(), models.UsernameKey(c.Param("name")))
			if err != nil {
				log.Error("Failed to fetch username", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch username"})
				return
			}
			if u == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Username not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"username":   u.Username,
				"is_checked": u.IsChecked,
				"checked_at": u.CheckedAt,
				"is_valid":   u.IsValid,
			})
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
