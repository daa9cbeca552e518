package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lecturehub/lecturehub-api/api/swagger"
	"github.com/lecturehub/lecturehub-api/internal/handler"
	"github.com/lecturehub/lecturehub-api/internal/middleware"
	"github.com/lecturehub/lecturehub-api/internal/models"
	"github.com/lecturehub/lecturehub-api/internal/repository"
	"github.com/lecturehub/lecturehub-api/internal/service"
	"github.com/lecturehub/lecturehub-api/pkg/cache"
	"github.com/lecturehub/lecturehub-api/pkg/config"
	"github.com/lecturehub/lecturehub-api/pkg/database"
	"github.com/lecturehub/lecturehub-api/pkg/jobs"
	"github.com/lecturehub/lecturehub-api/pkg/logger"
	corsmiddleware "github.com/lecturehub/lecturehub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lecturehub/lecturehub-api/pkg/middleware/requestid"
	"github.com/lecturehub/lecturehub-api/pkg/storage"
)

// @title LectureHub API
// @version 1.0.0
// @description REST backend for the LectureHub scheduling platform
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	assetStore, err := storage.NewLocalStorage(cfg.Assets.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init asset storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled)
	}

	authSvc := service.NewAuthService(userRepo, lecturerRepo, studentRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	lecturerSvc := service.NewLecturerService(lecturerRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, assetStore, cacheSvc, nil, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, courseRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, groupRepo, nil, logr)
	groupSvc := service.NewGroupService(groupRepo, nil, logr)
	userSvc := service.NewUserService(userRepo, metricsSvc, nil, logr)
	exportSvc := service.NewExportService(classRepo, exportStore, exportSigner, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	// Stale export files are pruned in the background.
	cleanupQueue := jobs.NewQueue("export-cleanup", func(ctx context.Context, job jobs.Job) error {
		removed, err := exportSvc.Cleanup(0)
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			logr.Sugar().Infow("stale exports removed", "count", len(removed))
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleanupQueue.Start(ctx)
	defer cleanupQueue.Stop()
	go func() {
		ticker := time.NewTicker(cfg.Exports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = cleanupQueue.Enqueue(jobs.Job{ID: fmt.Sprintf("cleanup-%d", time.Now().Unix()), Type: "cleanup"})
			}
		}
	}()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, enrollmentSvc, lecturerSvc, studentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, lecturerSvc, studentSvc)
	groupHandler := handler.NewGroupHandler(groupSvc, studentSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc, lecturerSvc)
	classHandler := handler.NewClassHandler(classSvc, lecturerSvc, studentSvc)
	lecturerHandler := handler.NewLecturerHandler(lecturerSvc, exportSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", middleware.OptionalJWT(authSvc), courseHandler.Get)

		lecturerOnly := courses.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleLecturer))
		lecturerOnly.POST("", courseHandler.Create)
		lecturerOnly.PUT("/:id", courseHandler.Update)
		lecturerOnly.DELETE("/:id", courseHandler.Delete)
		lecturerOnly.GET("/:id/enrollments", courseHandler.ListEnrollments)

		studentOnly := courses.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
		studentOnly.POST("/:id/enroll", courseHandler.Enroll)
	}

	enrollments := api.Group("/enrollments", middleware.JWT(authSvc))
	{
		enrollments.GET("", enrollmentHandler.List)
		enrollments.PUT("/:id/status", middleware.RequireRoles(models.RoleLecturer), enrollmentHandler.Decide)
	}

	groups := api.Group("/groups", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	{
		groups.POST("", groupHandler.Create)
		groups.GET("", groupHandler.ListMine)
		groups.GET("/:id", groupHandler.Get)
		groups.DELETE("/:id", groupHandler.Delete)
		groups.POST("/join/:groupCode", groupHandler.Join)
		groups.GET("/:id/requests", groupHandler.ListRequests)
		groups.POST("/requests/:enrollmentId/approve", groupHandler.Approve)
		groups.POST("/requests/:enrollmentId/reject", groupHandler.Reject)
		groups.DELETE("/:id/members/:studentId", groupHandler.RemoveMember)
	}

	availability := api.Group("/availability", middleware.JWT(authSvc))
	{
		availability.GET("", availabilityHandler.List)

		lecturerOnly := availability.Group("", middleware.RequireRoles(models.RoleLecturer))
		lecturerOnly.POST("", availabilityHandler.Create)
		lecturerOnly.PUT("/:id", availabilityHandler.Update)
		lecturerOnly.DELETE("/:id", availabilityHandler.Delete)
	}

	classes := api.Group("/classes", middleware.JWT(authSvc))
	{
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)

		lecturerOnly := classes.Group("", middleware.RequireRoles(models.RoleLecturer))
		lecturerOnly.POST("", classHandler.Schedule)
		lecturerOnly.PUT("/:id/status", classHandler.UpdateStatus)
	}

	lecturers := api.Group("/lecturers")
	{
		lecturers.GET("", lecturerHandler.List)

		me := lecturers.Group("/me", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleLecturer))
		me.GET("", lecturerHandler.Me)
		me.PUT("", lecturerHandler.UpdateMe)
		me.GET("/schedule/export", lecturerHandler.ExportSchedule)

		lecturers.GET("/:id", lecturerHandler.Get)
	}
	api.GET("/export/:token", lecturerHandler.DownloadExport)

	students := api.Group("/students/me", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	{
		students.GET("", studentHandler.Me)
		students.PUT("", studentHandler.UpdateMe)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.PUT("/users/:id/status", userHandler.SetStatus)
		admin.GET("/stats", userHandler.Stats)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
