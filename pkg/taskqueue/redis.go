package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// 任务键前缀
	taskKeyPrefix = "task:"
	// 业务ID到任务集合的键前缀
	refTasksKeyPrefix = "ref_tasks:"
	// 任务状态通知频道前缀
	taskStatusChannelPrefix = "task_status:"
	// 默认任务过期时间（7天）
	defaultTaskExpiry = 7 * 24 * time.Hour
	// 联系表单邮件所在的 asynq 队列
	contactQueueName = "contact"
)

// RedisQueue Redis任务队列实现
type RedisQueue struct {
	client      *asynq.Client  // 用于添加任务
	redisClient *redis.Client  // 存储任务记录
	cfg         *Config        // 队列配置
	logger      *logrus.Logger // 日志记录器
}

var (
	_ Queue  = (*RedisQueue)(nil)
	_ Worker = (*RedisWorker)(nil)
)

func redisOpt(cfg *Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// NewRedisQueue 创建Redis任务队列实例
func NewRedisQueue(cfg *Config) (*RedisQueue, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 测试Redis连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &RedisQueue{
		client:      asynq.NewClient(redisOpt(cfg)),
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// Enqueue 将任务加入队列
func (q *RedisQueue) Enqueue(ctx context.Context, taskType TaskType, refID string, payload interface{}) (string, error) {
	return q.enqueue(ctx, taskType, refID, payload)
}

// EnqueueIn 在指定延迟后将任务加入队列
func (q *RedisQueue) EnqueueIn(ctx context.Context, taskType TaskType, refID string, payload interface{}, delay time.Duration) (string, error) {
	return q.enqueue(ctx, taskType, refID, payload, asynq.ProcessIn(delay))
}

func (q *RedisQueue) enqueue(ctx context.Context, taskType TaskType, refID string, payload interface{}, extra ...asynq.Option) (string, error) {
	taskID := uuid.New().String()

	payloadBytes, err := MarshalPayload(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := time.Now()
	task := &Task{
		ID:         taskID,
		Type:       taskType,
		RefID:      refID,
		Status:     StatusPending,
		Payload:    payloadBytes,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: q.cfg.RetryLimit,
	}

	// 先保存任务记录，worker 取到任务时记录必须已存在
	if err := q.saveTaskToRedis(ctx, task); err != nil {
		return "", fmt.Errorf("failed to save task to redis: %w", err)
	}

	opts := append([]asynq.Option{
		asynq.TaskID(taskID),
		asynq.Queue(contactQueueName),
		asynq.MaxRetry(q.cfg.RetryLimit),
	}, extra...)

	// asynq 载荷只携带任务ID，完整数据在任务记录中
	if _, err := q.client.EnqueueContext(ctx, asynq.NewTask(string(taskType), []byte(taskID)), opts...); err != nil {
		q.redisClient.Del(ctx, taskKeyPrefix+taskID)
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	q.logger.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": taskType,
		"ref_id":    refID,
	}).Info("Task enqueued successfully")

	return taskID, nil
}

// GetTask 获取任务信息
func (q *RedisQueue) GetTask(ctx context.Context, taskID string) (*Task, error) {
	data, err := q.redisClient.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task from redis: %w", err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task data: %w", err)
	}

	return &task, nil
}

// GetTasksByRef 获取业务ID关联的所有任务
func (q *RedisQueue) GetTasksByRef(ctx context.Context, refID string) ([]*Task, error) {
	taskIDs, err := q.redisClient.SMembers(ctx, refTasksKeyPrefix+refID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get ref tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		task, err := q.GetTask(ctx, taskID)
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				// 任务记录可能已过期
				continue
			}
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// Close 关闭队列连接
func (q *RedisQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	return q.redisClient.Close()
}

// saveTaskToRedis 将任务信息保存到Redis
func (q *RedisQueue) saveTaskToRedis(ctx context.Context, task *Task) error {
	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.redisClient.Set(ctx, taskKeyPrefix+task.ID, taskData, defaultTaskExpiry).Err(); err != nil {
		return fmt.Errorf("failed to save task data: %w", err)
	}

	if task.RefID != "" {
		refKey := refTasksKeyPrefix + task.RefID
		if err := q.redisClient.SAdd(ctx, refKey, task.ID).Err(); err != nil {
			return fmt.Errorf("failed to add task to ref tasks: %w", err)
		}
		q.redisClient.Expire(ctx, refKey, defaultTaskExpiry)
	}

	return nil
}

// UpdateTaskStatus 更新任务状态
func (q *RedisQueue) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errMsg string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	now := time.Now()
	task.Status = status
	task.UpdatedAt = now

	if status == StatusProcessing {
		task.Attempts++
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
	}

	if task.Finished() {
		task.CompletedAt = &now
	}

	if result != nil {
		resultBytes, err := MarshalPayload(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		task.Result = resultBytes
	}

	if errMsg != "" {
		task.Error = errMsg
	}

	return q.saveTaskToRedis(ctx, task)
}

// NotifyTaskUpdate 通知任务状态更新
func (q *RedisQueue) NotifyTaskUpdate(ctx context.Context, taskID string) error {
	return q.redisClient.Publish(ctx, taskStatusChannelPrefix+taskID, "updated").Err()
}

// RedisWorker Redis工作者实现
type RedisWorker struct {
	server   *asynq.Server
	queue    *RedisQueue
	handlers map[TaskType]Handler
	logger   *logrus.Logger
}

// NewRedisWorker 创建Redis工作者
func NewRedisWorker(queue *RedisQueue, cfg *Config) *RedisWorker {
	if cfg == nil {
		cfg = queue.cfg
	}

	retryDelay := cfg.RetryDelay
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{contactQueueName: 1}
	}
	serverConfig := asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      queues,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			// 线性退避
			return retryDelay * time.Duration(n+1)
		},
		Logger: queue.logger,
	}

	return &RedisWorker{
		server:   asynq.NewServer(redisOpt(cfg), serverConfig),
		queue:    queue,
		handlers: make(map[TaskType]Handler),
		logger:   queue.logger,
	}
}

// RegisterHandler 注册任务处理器
func (w *RedisWorker) RegisterHandler(taskType TaskType, handler Handler) {
	w.handlers[taskType] = handler
}

// Start 启动工作者，不阻塞
func (w *RedisWorker) Start() error {
	mux := asynq.NewServeMux()

	for taskType, handler := range w.handlers {
		h := handler
		mux.HandleFunc(string(taskType), func(ctx context.Context, t *asynq.Task) error {
			return w.process(ctx, h, string(t.Payload()))
		})
		w.logger.WithField("task_type", taskType).Info("Registered handler for task type")
	}

	return w.server.Start(mux)
}

// Stop 停止工作者，等待处理中的任务结束
func (w *RedisWorker) Stop() {
	w.server.Shutdown()
}

// process 执行一次任务并维护任务记录
// 失败且还有重试机会时状态回到 pending，重试耗尽才标记 failed
func (w *RedisWorker) process(ctx context.Context, h Handler, taskID string) error {
	log := w.logger.WithField("task_id", taskID)

	task, err := w.queue.GetTask(ctx, taskID)
	if err != nil {
		log.WithError(err).Error("Failed to get task info")
		if errors.Is(err, ErrTaskNotFound) {
			// 记录已过期，重试也无法恢复
			return fmt.Errorf("%w: %v", SkipRetry, err)
		}
		return err
	}

	if err := w.queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, ""); err != nil {
		log.WithError(err).Error("Failed to update task status to processing")
	}
	_ = w.queue.NotifyTaskUpdate(ctx, taskID)

	procErr := h.ProcessTask(ctx, task)

	status := StatusCompleted
	errMsg := ""
	if procErr != nil {
		errMsg = procErr.Error()
		status = StatusFailed
		if !errors.Is(procErr, SkipRetry) && !LastAttempt(ctx) {
			status = StatusPending
		}
		log.WithError(procErr).WithField("status", status).Warn("Task attempt failed")
	}

	// 处理器可以把结果写进 task.Result
	var result interface{}
	if procErr == nil && len(task.Result) > 0 {
		result = task.Result
	}

	if err := w.queue.UpdateTaskStatus(ctx, taskID, status, result, errMsg); err != nil {
		log.WithError(err).Error("Failed to update task status")
	}
	_ = w.queue.NotifyTaskUpdate(ctx, taskID)

	return procErr
}

// SkipRetry 处理器返回的错误包裹它时不再重试
var SkipRetry = asynq.SkipRetry

// LastAttempt 当前是否为最后一次尝试，不在 asynq 上下文中时视为最后一次
func LastAttempt(ctx context.Context) bool {
	retried, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return true
	}
	return retried >= maxRetry
}

func init() {
	RegisterQueueFactory("redis", func(cfg *Config) (Queue, error) {
		return NewRedisQueue(cfg)
	})
}
