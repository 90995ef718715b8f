package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/controller"
	"edu_admin_backend/internal/repository"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
	"edu_admin_backend/pkg/configwatcher"
	"edu_admin_backend/pkg/database"
	"edu_admin_backend/pkg/logger"
	"edu_admin_backend/pkg/monitoring"
	"edu_admin_backend/pkg/security"
	"edu_admin_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Policies *service.Policies

	services        *services
	limiter         *security.Limiter
	configCallbacks []func(*config.Config)
	tracerShutdown  func(context.Context) error
}

type repositories struct {
	definition service.DefinitionRepository
	version    service.VersionRepository
	question   service.QuestionRepository
	delivery   service.DeliveryRepository
	directory  service.DirectoryRepository
}

type services struct {
	storage    *service.StorageService
	definition *service.DefinitionService
	version    *service.VersionService
	question   *service.QuestionVersionService
	directory  *service.DirectoryService
	delivery   *service.DeliveryService
}

type controllers struct {
	definition *controller.DefinitionController
	version    *controller.VersionController
	question   *controller.QuestionController
	delivery   *controller.DeliveryController
	directory  *controller.DirectoryController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func gormRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		definition: repository.NewDefinitionRepository(db),
		version:    repository.NewVersionRepository(db),
		question:   repository.NewQuestionRepository(db),
		delivery:   repository.NewDeliveryRepository(db),
		directory:  repository.NewDirectoryRepository(db, rdb),
	}
}

func initServices(repos *repositories, cfg *config.Config, policies *service.Policies) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.definition = service.NewDefinitionService(repos.definition)
	s.version = service.NewVersionService(repos.definition, repos.version, policies)
	s.question = service.NewQuestionVersionService(repos.question, repos.definition)
	s.directory = service.NewDirectoryService(repos.directory, policies)
	s.delivery = service.NewDeliveryService(
		repos.delivery,
		repos.definition,
		repos.version,
		s.directory,
		policies,
		s.storage,
	)

	return s
}

func initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		definition: controller.NewDefinitionController(s.definition),
		version:    controller.NewVersionController(s.version),
		question:   controller.NewQuestionController(s.question),
		delivery:   controller.NewDeliveryController(s.delivery),
		directory:  controller.NewDirectoryController(s.directory),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	a.limiter = security.NewLimiter(cfg.RateLimit)

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs until ctx is done: limiter housekeeping, the optional
// delivery status sync and the optional config watcher.
func (a *App) startBackgroundTasks(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				a.limiter.Sweep(now)
			}
		}
	}()

	if interval := a.Config.Delivery.StatusSyncInterval; interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					if _, err := a.services.delivery.SyncStatuses(ctx, now); err != nil {
						logger.Log.Error("delivery status sync error", zap.Error(err))
					}
				}
			}
		}()
	}

	if a.Config.Server.WatchConfig {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := configwatcher.WatchConfig(ctx, a.Config.Path, config.LoadConfig, a.applyConfig); err != nil {
				logger.Log.Error("config watcher stopped", zap.Error(err))
			}
		}()
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	app.Policies = service.NewPolicies(cfg.Content, cfg.Delivery)
	app.RegisterConfigCallback(app.Policies.Update)

	repos := gormRepositories(db, rdb)
	app.services = initServices(repos, cfg, app.Policies)
	controllers := initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerShutdown = tp.Shutdown
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	a.startBackgroundTasks(ctx, &wg)

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	cancel()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
