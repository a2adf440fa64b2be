package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"paper-shelf/config"
	"paper-shelf/models"
	"paper-shelf/services"
	"paper-shelf/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	papersCreatedCounter prometheus.Counter
	uploadsStoredCounter prometheus.Counter
	orphanGauge          prometheus.Gauge
)

func init() {
	papersCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_created_total",
			Help: "Total number of paper records created.",
		},
	)
	uploadsStoredCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uploads_stored_total",
			Help: "Total number of attachment files stored.",
		},
	)
	orphanGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orphan_attachments",
			Help: "Attachment files on disk referenced by no paper record.",
		},
	)
	prometheus.MustRegister(papersCreatedCounter, uploadsStoredCounter, orphanGauge)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to open database", zap.Error(err))
	}
	logging.Info("Connected to papers database", zap.String("path", cfg.DBPath))

	paperService := services.NewPaperService(db, logging)
	if err := paperService.EnsureSchema(); err != nil {
		logging.Fatal("Schema migration failed", zap.Error(err))
	}

	uploads, err := storage.NewUploadStore(cfg.UploadDir)
	if err != nil {
		logging.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	cleanupService := services.NewCleanupService(db, uploads, logging)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupPaperRoutes(router, paperService, uploads, logging)
	setupUploadRoutes(router, uploads, logging)
	setupMaintenanceRoutes(router, cleanupService, logging)

	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		orphans, err := cleanupService.OrphanScan()
		if err != nil {
			logging.Error("Scheduled orphan scan failed", zap.Error(err))
			return
		}
		orphanGauge.Set(float64(len(orphans)))
		logging.Info("Scheduled orphan scan completed", zap.Int("orphans", len(orphans)))
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupPaperRoutes(router *gin.Engine, papers *services.PaperService, uploads *storage.UploadStore, log *zap.Logger) {
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/papers")
	})

	rg := router.Group("/papers")

	rg.GET("", func(c *gin.Context) {
		filter := services.ListFilter{
			Query:    c.Query("q"),
			Category: c.Query("category"),
		}
		result, err := papers.List(filter)
		if err != nil {
			log.Error("Database query for papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	rg.POST("", func(c *gin.Context) {
		input, err := paperInputFromForm(c, uploads, log)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store attachment"})
			return
		}
		paper, err := papers.Insert(input)
		if err != nil {
			log.Error("Failed to create paper", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		papersCreatedCounter.Inc()
		log.Info("Paper created", zap.Uint("id", paper.ID), zap.String("title", paper.Title))
		c.Redirect(http.StatusSeeOther, "/papers")
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, ok := paperID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/papers")
			return
		}
		paper, err := papers.Get(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.Redirect(http.StatusFound, "/papers")
				return
			}
			log.Error("Database error fetching paper", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		// The keyword slots prefill the edit form.
		type PaperDetail struct {
			models.Paper
			Keyword1 string `json:"keyword1"`
			Keyword2 string `json:"keyword2"`
			Keyword3 string `json:"keyword3"`
		}
		slots := models.SplitKeywords(paper.Keywords)
		c.JSON(http.StatusOK, PaperDetail{
			Paper:    *paper,
			Keyword1: slots[0],
			Keyword2: slots[1],
			Keyword3: slots[2],
		})
	})

	rg.POST("/:id/edit", func(c *gin.Context) {
		id, ok := paperID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/papers")
			return
		}
		if _, err := papers.Get(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.Redirect(http.StatusFound, "/papers")
				return
			}
			log.Error("Database error fetching paper for edit", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		input, err := paperInputFromForm(c, uploads, log)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store attachment"})
			return
		}
		if err := papers.Update(id, input); err != nil {
			log.Error("Failed to update paper", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/papers/"+c.Param("id"))
	})

	rg.POST("/:id/generate_ai", func(c *gin.Context) {
		id, ok := paperID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/papers")
			return
		}
		err := papers.RegenerateSummary(id)
		switch {
		case err == nil, errors.Is(err, services.ErrNoSourceText):
			// No source text still lands on the detail view, unchanged.
			c.Redirect(http.StatusSeeOther, "/papers/"+c.Param("id"))
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.Redirect(http.StatusFound, "/papers")
		default:
			log.Error("Failed to regenerate summary", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		}
	})

	rg.POST("/:id/delete", func(c *gin.Context) {
		id, ok := paperID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/papers")
			return
		}
		if err := papers.Delete(id); err != nil {
			log.Error("Failed to delete paper", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/papers")
	})
}

func setupUploadRoutes(router *gin.Engine, uploads *storage.UploadStore, log *zap.Logger) {
	router.GET("/uploads/:filename", func(c *gin.Context) {
		full, err := uploads.Resolve(c.Param("filename"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.File(full)
	})
}

func setupMaintenanceRoutes(router *gin.Engine, cleanup *services.CleanupService, log *zap.Logger) {
	rg := router.Group("/maintenance")

	rg.GET("/orphans", func(c *gin.Context) {
		orphans, err := cleanup.OrphanScan()
		if err != nil {
			log.Error("Orphan scan failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
			return
		}
		orphanGauge.Set(float64(len(orphans)))
		c.JSON(http.StatusOK, gin.H{"orphans": orphans, "count": len(orphans)})
	})

	rg.POST("/orphans/purge", func(c *gin.Context) {
		removed, err := cleanup.PurgeOrphans()
		if err != nil {
			log.Error("Orphan purge failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "purge failed"})
			return
		}
		orphanGauge.Set(0)
		log.Info("Orphaned attachments purged", zap.Int("removed", removed))
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	})
}

// paperID parses the :id route parameter. A non-numeric id is treated like
// a missing record.
func paperID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// paperInputFromForm collects the recognized form fields and stores any
// present, allowed attachment files. Disallowed or missing files leave the
// slot nil so the store keeps existing paths; a filesystem failure aborts
// the request.
func paperInputFromForm(c *gin.Context, uploads *storage.UploadStore, log *zap.Logger) (services.PaperInput, error) {
	input := services.PaperInput{
		Title:         c.PostForm("title"),
		Authors:       c.PostForm("authors"),
		Year:          c.PostForm("year"),
		Journal:       c.PostForm("journal"),
		SummaryShort:  c.PostForm("summary_short"),
		SummaryDetail: c.PostForm("summary_detail"),
		Category:      c.PostForm("category"),
		Keyword1:      c.PostForm("keyword1"),
		Keyword2:      c.PostForm("keyword2"),
		Keyword3:      c.PostForm("keyword3"),
	}

	var err error
	if input.PDFPath, err = storeFormFile(c, uploads, "pdf_file", log); err != nil {
		return input, err
	}
	if input.WordPath, err = storeFormFile(c, uploads, "word_file", log); err != nil {
		return input, err
	}
	if input.PPTPath, err = storeFormFile(c, uploads, "ppt_file", log); err != nil {
		return input, err
	}
	return input, nil
}

// storeFormFile places one uploaded file slot. Returns nil when the slot is
// empty or the extension is not allowed; such files are skipped without
// failing the submission.
func storeFormFile(c *gin.Context, uploads *storage.UploadStore, field string, log *zap.Logger) (*string, error) {
	header, err := c.FormFile(field)
	if err != nil || header == nil || header.Filename == "" {
		return nil, nil
	}
	if !storage.IsAllowed(header.Filename) {
		log.Warn("Skipping attachment with disallowed extension",
			zap.String("field", field), zap.String("filename", header.Filename))
		return nil, nil
	}

	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.String("field", field), zap.Error(err))
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("Failed to read uploaded file", zap.String("field", field), zap.Error(err))
		return nil, err
	}

	ref, err := uploads.Store(data, header.Filename)
	if err != nil {
		log.Error("Failed to store uploaded file", zap.String("field", field), zap.Error(err))
		return nil, err
	}
	uploadsStoredCounter.Inc()
	return &ref, nil
}
