package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyerfyer/motorsport-site/api"
	"github.com/fyerfyer/motorsport-site/api/handler"
	"github.com/fyerfyer/motorsport-site/api/middleware"
	siteconfig "github.com/fyerfyer/motorsport-site/config"
	"github.com/fyerfyer/motorsport-site/internal/cache"
	"github.com/fyerfyer/motorsport-site/internal/contact"
	"github.com/fyerfyer/motorsport-site/internal/content"
	"github.com/fyerfyer/motorsport-site/internal/database"
	"github.com/fyerfyer/motorsport-site/internal/imageurl"
	"github.com/fyerfyer/motorsport-site/internal/repository"
	"github.com/fyerfyer/motorsport-site/internal/richtext"
	"github.com/fyerfyer/motorsport-site/internal/view"
	"github.com/fyerfyer/motorsport-site/pkg/storage"
	"github.com/fyerfyer/motorsport-site/pkg/taskqueue"
	"github.com/fyerfyer/motorsport-site/web"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// 切分结果缓存时间，同一正文的切分结果不会变化
const splitMemoTTL = 24 * time.Hour

// 命令行选项，非空时覆盖配置文件
type flags struct {
	ConfigFile      string // 配置文件路径
	Port            int    // 服务端口
	Mode            string // 运行模式 (debug/release)
	LogLevel        string // 日志级别
	ListSubmissions string // 列出联系表单提交后退出
	ListLimit       int    // 列出的条数
}

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	opts := parseFlags()

	cfg, err := siteconfig.Load(opts.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg, opts)

	// 初始化日志
	logger, err := middleware.ConfigureLogger(cfg.Log.Level, middleware.LogFileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to open log file, logging to stdout only")
	}

	// 初始化数据库
	var repo repository.SubmissionRepository
	if cfg.Database.Enable {
		if err := setupDatabase(cfg, logger); err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		repo = repository.NewSubmissionRepository()
	}

	if opts.ListSubmissions != "" {
		if repo == nil {
			logger.Fatal("Database is disabled, no submissions to list")
		}
		if err := listSubmissions(os.Stdout, repo, opts.ListSubmissions, opts.ListLimit); err != nil {
			logger.Fatalf("Failed to list submissions: %v", err)
		}
		return
	}

	gin.SetMode(cfg.Server.Mode)
	logger.Info("Starting motorsport site...")

	// 创建缓存服务
	var cacheService cache.Cache
	if cfg.Cache.Enable {
		cacheService, err = setupCache(cfg)
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
	}

	// 创建快照存储
	var snapshots storage.Storage
	if cfg.Storage.Enable {
		snapshots, err = storage.New(storage.Config{
			Type:      cfg.Storage.Type,
			Path:      cfg.Storage.Path,
			Bucket:    cfg.Storage.Bucket,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize snapshot storage: %v", err)
		}
	}

	// 创建内容服务
	contentService, err := setupContent(cfg, cacheService, snapshots, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize content client: %v", err)
	}

	views := view.NewBuilder(
		imageurl.New(cfg.Sanity.ProjectID, cfg.Sanity.Dataset),
		view.WithSiteName(cfg.Site.Name),
		view.WithBioMaxChars(cfg.Site.BioMaxChars),
		view.WithMemo(richtext.NewMemo(cacheService, splitMemoTTL)),
		view.WithRecaptchaSiteKey(cfg.Contact.RecaptchaSiteKey),
	)

	// 邮件服务未配置时联系表单返回500
	var mailer contact.Mailer
	if cfg.Contact.ResendAPIKey != "" {
		mailer = contact.NewResendMailer(cfg.Contact.ResendAPIKey)
	} else {
		logger.Warn("RESEND_API_KEY is not set, contact form is disabled")
	}

	// 初始化任务队列（如果启用）
	var (
		queue  taskqueue.Queue
		worker taskqueue.Worker
	)
	if cfg.Queue.Enable {
		queue, worker, err = setupTaskQueue(cfg, mailer, repo, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		logger.Info("Contact emails will be delivered through the task queue")
	}

	contactOpts := []contact.Option{contact.WithLogger(logger)}
	if repo != nil {
		contactOpts = append(contactOpts, contact.WithRepository(repo))
	}
	if queue != nil {
		contactOpts = append(contactOpts, contact.WithQueue(queue))
	}
	if cfg.Contact.RecaptchaSecret != "" {
		contactOpts = append(contactOpts, contact.WithVerifier(contact.NewRecaptchaVerifier(cfg.Contact.RecaptchaSecret, "")))
	}
	contactService := contact.NewService(contact.Config{
		FromEmail: cfg.Contact.FromEmail,
		ToEmail:   cfg.Contact.ToEmail,
		Subject:   cfg.Contact.Subject,
		MinScore:  cfg.Contact.MinScore,
	}, mailer, contactOpts...)

	templates, err := web.Templates()
	if err != nil {
		logger.Fatalf("Failed to parse templates: %v", err)
	}

	// 设置路由
	r := api.SetupRouter(api.Handlers{
		Page:            handler.NewPageHandler(contentService, views),
		SEO:             handler.NewSEOHandler(contentService, cfg.Site.BaseURL),
		Contact:         handler.NewContactHandler(contactService),
		Health:          handler.NewHealthHandler(healthChecks(repo != nil, cacheService)),
		RevalidateToken: cfg.Site.RevalidateToken,
	}, templates)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if worker != nil {
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
	}

	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	// 等待处理中的邮件任务结束
	if worker != nil {
		worker.Stop()
	}

	logger.Info("Server exited")
}

// parseFlags 解析命令行参数
func parseFlags() flags {
	var f flags
	flag.StringVar(&f.ConfigFile, "config", "config.yaml", "Path to config file")
	flag.IntVar(&f.Port, "port", 0, "Server port (overrides config)")
	flag.StringVar(&f.Mode, "mode", "", "Run mode (debug/release)")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug/info/warn/error)")
	flag.StringVar(&f.ListSubmissions, "list-submissions", "", "List contact submissions with the given status (queued/sent/failed/all) and exit")
	flag.IntVar(&f.ListLimit, "list-limit", 20, "Number of submissions to list")
	flag.Parse()
	return f
}

// applyFlags 命令行参数覆盖配置文件
func applyFlags(cfg *siteconfig.Config, f flags) {
	if f.Port > 0 {
		cfg.Server.Port = f.Port
	}
	if f.Mode != "" {
		cfg.Server.Mode = f.Mode
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
}

// setupCache 设置缓存服务
func setupCache(cfg *siteconfig.Config) (cache.Cache, error) {
	cacheConfig := cache.DefaultConfig()
	cacheConfig.Type = cfg.Cache.Type
	cacheConfig.DefaultTTL = cfg.Site.Revalidate
	if cfg.Cache.KeyPrefix != "" {
		cacheConfig.KeyPrefix = cfg.Cache.KeyPrefix
	}

	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}

	return cache.NewCache(cacheConfig)
}

// setupContent 设置内容服务
func setupContent(cfg *siteconfig.Config, c cache.Cache, snapshots storage.Storage, logger *logrus.Logger) (*content.Service, error) {
	contentConfig := content.DefaultConfig().
		WithProject(cfg.Sanity.ProjectID, cfg.Sanity.Dataset).
		WithRetry(cfg.Sanity.MaxRetries, cfg.Sanity.RetryDelay).
		WithToken(cfg.Sanity.Token)
	contentConfig.UseCDN = cfg.Sanity.UseCDN
	if cfg.Sanity.APIVersion != "" {
		contentConfig.APIVersion = cfg.Sanity.APIVersion
	}
	if cfg.Sanity.Timeout > 0 {
		contentConfig.Timeout = cfg.Sanity.Timeout
	}

	client, err := content.NewClient(contentConfig, logger)
	if err != nil {
		return nil, err
	}

	opts := []content.Option{
		content.WithRevalidate(cfg.Site.Revalidate),
		content.WithLogger(logger),
	}
	if c != nil {
		opts = append(opts, content.WithCache(c))
	}
	if snapshots != nil {
		opts = append(opts, content.WithSnapshotStore(snapshots))
	}
	return content.NewService(client, opts...), nil
}

// setupDatabase 设置数据库
func setupDatabase(cfg *siteconfig.Config, logger *logrus.Logger) error {
	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Database.Type
	dbConfig.DSN = cfg.Database.DSN
	return database.Setup(dbConfig, logger)
}

// setupTaskQueue 设置任务队列和邮件投递工作者
func setupTaskQueue(cfg *siteconfig.Config, mailer contact.Mailer, repo repository.SubmissionRepository, logger *logrus.Logger) (taskqueue.Queue, taskqueue.Worker, error) {
	queueConfig := taskqueue.DefaultConfig()
	queueConfig.RedisAddr = cfg.Queue.RedisAddr
	queueConfig.RedisPassword = cfg.Queue.RedisPassword
	queueConfig.RedisDB = cfg.Queue.RedisDB
	queueConfig.Concurrency = cfg.Queue.Concurrency
	queueConfig.RetryLimit = cfg.Queue.RetryLimit
	queueConfig.RetryDelay = cfg.Queue.RetryDelay
	queueConfig.Logger = logger

	logger.WithFields(logrus.Fields{
		"type":        cfg.Queue.Type,
		"redis_addr":  cfg.Queue.RedisAddr,
		"concurrency": cfg.Queue.Concurrency,
		"retry_limit": cfg.Queue.RetryLimit,
	}).Info("Setting up task queue")

	queue, err := taskqueue.NewQueue(cfg.Queue.Type, queueConfig)
	if err != nil {
		return nil, nil, err
	}

	redisQueue, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		queue.Close()
		return nil, nil, fmt.Errorf("queue type %s has no worker implementation", cfg.Queue.Type)
	}

	worker := taskqueue.NewRedisWorker(redisQueue, queueConfig)
	emailHandler := contact.NewEmailTaskHandler(mailer, repo, logger)
	for _, t := range emailHandler.GetTaskTypes() {
		worker.RegisterHandler(t, emailHandler)
	}
	return queue, worker, nil
}

// healthChecks 健康检查项
func healthChecks(withDatabase bool, c cache.Cache) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{}
	if c != nil {
		// 读一个不存在的键即可验证缓存连接
		checks["cache"] = func(ctx context.Context) error {
			_, _, err := c.Get("health_probe")
			return err
		}
	}
	if withDatabase {
		checks["database"] = database.Ping
	}
	return checks
}
