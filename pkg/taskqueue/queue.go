package taskqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Queue 任务队列
// 每个任务在 Redis 中有一条独立的记录，按业务ID（例如联系表单提交ID）建立索引，
// 调用方可以在任务执行前后查询它的状态
type Queue interface {
	// Enqueue 立即入队，返回任务ID
	Enqueue(ctx context.Context, taskType TaskType, refID string, payload interface{}) (string, error)

	// EnqueueIn 延迟入队
	EnqueueIn(ctx context.Context, taskType TaskType, refID string, payload interface{}, delay time.Duration) (string, error)

	GetTask(ctx context.Context, taskID string) (*Task, error)

	// GetTasksByRef 业务ID关联的全部任务，过期的记录不返回
	GetTasksByRef(ctx context.Context, refID string) ([]*Task, error)

	// UpdateTaskStatus 更新任务记录，status 为 processing 时累加尝试次数
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// NotifyTaskUpdate 在 task_status:<id> 频道上发布更新通知
	NotifyTaskUpdate(ctx context.Context, taskID string) error

	Close() error
}

// Handler 任务处理器
// 返回包裹 SkipRetry 的错误时不再重试
type Handler interface {
	ProcessTask(ctx context.Context, task *Task) error
	GetTaskTypes() []TaskType
}

// Worker 后台执行任务
type Worker interface {
	RegisterHandler(taskType TaskType, handler Handler)
	// Start 不阻塞
	Start() error
	// Stop 等待处理中的任务结束
	Stop()
}

// Config 队列配置
type Config struct {
	RedisAddr     string         // Redis地址
	RedisPassword string         // Redis密码
	RedisDB       int            // Redis数据库
	Concurrency   int            // 并发处理任务数
	RetryLimit    int            // 最大重试次数
	RetryDelay    time.Duration  // 首次重试间隔，之后线性增长
	Queues        map[string]int // 队列名称到优先级的映射
	Logger        *logrus.Logger // 日志记录器，为空时新建
}

// DefaultConfig 返回默认配置
// 邮件投递量很小，并发数保持较低
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		Concurrency: 2,
		RetryLimit:  5,
		RetryDelay:  30 * time.Second,
		Queues: map[string]int{
			contactQueueName: 1,
		},
	}
}

// Factory 队列工厂函数类型
type Factory func(cfg *Config) (Queue, error)

var queueFactories = make(map[string]Factory)

// RegisterQueueFactory 注册队列实现
func RegisterQueueFactory(name string, factory Factory) {
	queueFactories[name] = factory
}

// NewQueue 根据 queue.type 配置创建队列实例
func NewQueue(name string, cfg *Config) (Queue, error) {
	factory, exists := queueFactories[name]
	if !exists {
		return nil, fmt.Errorf("unknown queue implementation: %s", name)
	}
	return factory(cfg)
}
