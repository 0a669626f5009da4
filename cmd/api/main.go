package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"councilportal/internal/attendance"
	"councilportal/internal/auth"
	"councilportal/internal/config"
	"councilportal/internal/geo"
	"councilportal/internal/httpmiddleware"
	"councilportal/internal/portal"
	"councilportal/internal/queue"
	"councilportal/internal/session"
	"councilportal/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(context.Background(), db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "councilportal:audit")
	}

	sessionRepo := session.NewRepository(db.Client)
	catalog := session.NewService(sessionRepo, cfg.PageSize)
	attendanceRepo := attendance.NewRepository(db.Client)
	verifier := attendance.NewService(catalog, attendanceRepo, nil, cfg.GeofenceKm)
	portalRepo := portal.NewRepository(db.Client)
	portals := portal.NewService(portalRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())

	limiter := httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Identity itself lives elsewhere; this endpoint records the supplied
	// user and hands out portal tokens for the role it asserts.
	r.POST("/v1/auth/register", limiter.GinMiddleware(), func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id" binding:"required"`
			Role   string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !auth.KnownRole(req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
			return
		}
		if err := portalRepo.UpsertUser(c.Request.Context(), req.UserID, req.Role); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user registration failed"})
			return
		}
		tokens, err := auth.Issue(req.UserID, req.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	// Limiter sits after auth so authenticated callers are keyed by user id.
	v1 := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer), limiter.GinMiddleware())

	v1.GET("/locations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"locations": geo.Sites()})
	})

	v1.GET("/sessions", func(c *gin.Context) {
		page, err := catalog.List(c.Request.Context(), c.Query("cursor"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
			return
		}
		c.JSON(http.StatusOK, page)
	})

	v1.POST("/sessions", auth.RequireRoles(auth.RoleSuperadmin), func(c *gin.Context) {
		var in session.CreateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := catalog.Create(c.Request.Context(), in, time.Now().UTC())
		if err != nil {
			if errors.Is(err, session.ErrValidation) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session creation failed"})
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	v1.POST("/sessions/:id/claims", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		var req struct {
			PIN       string   `json:"pin" binding:"required"`
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claim := attendance.ClaimRequest{
			SessionID: c.Param("id"),
			UserID:    claims.UserID,
			PIN:       req.PIN,
		}
		if req.Latitude != nil && req.Longitude != nil {
			claim.Position = &geo.Position{Latitude: *req.Latitude, Longitude: *req.Longitude}
		}

		now := time.Now().UTC()
		res, err := verifier.Claim(c.Request.Context(), claim, now)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "claim failed"})
			return
		}

		publishAudit(c.Request.Context(), q, attendance.AuditEvent{
			UserID:    claims.UserID,
			SessionID: claim.SessionID,
			Accepted:  res.Accepted,
			Reason:    res.Reason,
			At:        now,
		})

		c.JSON(http.StatusOK, res)
	})

	v1.GET("/attendance/status", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		statuses, err := attendanceRepo.StatusBySession(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"statuses": statuses})
	})

	v1.GET("/attendance/summary", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		sum, err := attendanceRepo.Summarize(c.Request.Context(), claims.UserID, c.Query("year"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
			return
		}
		c.JSON(http.StatusOK, sum)
	})

	v1.POST("/complaints", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		var req struct {
			Subject     string `json:"subject" binding:"required"`
			Description string `json:"description" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := portals.SubmitComplaint(c.Request.Context(), portal.Complaint{
			UserID:      claims.UserID,
			Subject:     req.Subject,
			Description: req.Description,
		})
		if err != nil {
			respondPortalError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	v1.POST("/misconduct-reports", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		var req struct {
			AccusedName string `json:"accused_name" binding:"required"`
			Description string `json:"description" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := portals.SubmitMisconductReport(c.Request.Context(), portal.MisconductReport{
			ReporterID:  claims.UserID,
			AccusedName: req.AccusedName,
			Description: req.Description,
		})
		if err != nil {
			respondPortalError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	v1.POST("/rule-changes", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		var req struct {
			Rule      string `json:"rule" binding:"required"`
			Rationale string `json:"rationale" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := portals.SubmitRuleChange(c.Request.Context(), portal.RuleChangeProposal{
			UserID:    claims.UserID,
			Rule:      req.Rule,
			Rationale: req.Rationale,
		})
		if err != nil {
			respondPortalError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	// Review surfaces for the council.
	review := v1.Group("", auth.RequireRoles(auth.RoleJECR, auth.RoleSuperadmin))

	review.GET("/complaints", func(c *gin.Context) {
		complaints, err := portals.Complaints(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"complaints": complaints})
	})

	review.GET("/misconduct-reports", func(c *gin.Context) {
		reports, err := portals.MisconductReports(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reports": reports})
	})

	review.GET("/rule-changes", func(c *gin.Context) {
		proposals, err := portals.RuleChanges(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rule_changes": proposals})
	})

	v1.POST("/persons", auth.RequireRoles(auth.RoleSuperadmin), func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
			Role string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		added, err := portals.AddPerson(c.Request.Context(), portal.Person{Name: req.Name, Role: req.Role})
		if err != nil {
			respondPortalError(c, err)
			return
		}
		c.JSON(http.StatusCreated, added)
	})

	v1.DELETE("/persons/:id", auth.RequireRoles(auth.RoleSuperadmin), func(c *gin.Context) {
		if err := portals.RemovePerson(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, portal.ErrValidation) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	v1.GET("/persons", func(c *gin.Context) {
		persons, err := portals.Persons(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"persons": persons})
	})

	v1.POST("/meetings", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		var req struct {
			PersonName string    `json:"person_name" binding:"required"`
			StartTime  time.Time `json:"start_time" binding:"required"`
			EndTime    time.Time `json:"end_time" binding:"required"`
			Purpose    string    `json:"purpose"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		booked, err := portals.BookMeeting(c.Request.Context(), portal.Meeting{
			UserID:     claims.UserID,
			PersonName: req.PersonName,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
			Purpose:    req.Purpose,
		}, time.Now().UTC())
		if err != nil {
			respondPortalError(c, err)
			return
		}
		c.JSON(http.StatusCreated, booked)
	})

	v1.GET("/meetings", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		meetings, err := portals.Meetings(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"meetings": meetings})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func publishAudit(ctx context.Context, q queue.Queue, evt attendance.AuditEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("audit encode failed: %v", err)
		return
	}
	if err := q.Publish(ctx, queue.Message{Type: "attendance.decision", Body: body}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

func respondPortalError(c *gin.Context, err error) {
	if errors.Is(err, portal.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "submission failed"})
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
