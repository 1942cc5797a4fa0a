package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/cache"
	"github.com/fyerfyer/motorsport-site/pkg/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound 请求的文档不存在
var ErrNotFound = errors.New("content not found")

const (
	// 默认重新验证窗口
	defaultRevalidate = 60 * time.Second
	// 首页快照的对象键
	homeSnapshotKey = "snapshots/home.json"
)

// Service 内容服务
// 查询结果在重新验证窗口内缓存，首页额外保留最近一次成功的快照
type Service struct {
	client     Client
	cache      cache.Cache
	snapshots  storage.Storage
	revalidate time.Duration
	logger     *logrus.Logger
}

// Option 服务配置选项
type Option func(*Service)

// WithCache 设置查询结果缓存
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithSnapshotStore 设置快照存储
func WithSnapshotStore(st storage.Storage) Option {
	return func(s *Service) {
		s.snapshots = st
	}
}

// WithRevalidate 设置重新验证窗口
func WithRevalidate(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.revalidate = d
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService 创建内容服务
func NewService(client Client, opts ...Option) *Service {
	s := &Service{
		client:     client,
		revalidate: defaultRevalidate,
		logger:     logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HomePage 获取首页数据
// 后端失败且缓存为空时回退到快照
func (s *Service) HomePage(ctx context.Context) (*HomePage, error) {
	var page HomePage
	fromBackend, err := s.fetch(ctx, cache.GenerateCacheKey("content", "home"), HomePageQuery, nil, &page)
	if err != nil {
		snapshot, snapErr := s.loadSnapshot(ctx)
		if snapErr != nil {
			return nil, fmt.Errorf("failed to fetch home page: %w", err)
		}
		s.logger.WithError(err).Warn("Content backend unavailable, serving home page snapshot")
		return snapshot, nil
	}

	if fromBackend {
		s.saveSnapshot(ctx, &page)
	}
	return &page, nil
}

// SiteSettings 获取站点设置，文档不存在时返回nil
func (s *Service) SiteSettings(ctx context.Context) (*SiteSettings, error) {
	var settings *SiteSettings
	if _, err := s.fetch(ctx, cache.GenerateCacheKey("content", "settings"), SiteSettingsQuery, nil, &settings); err != nil {
		return nil, fmt.Errorf("failed to fetch site settings: %w", err)
	}
	return settings, nil
}

// LegalPage 按slug获取法律页面
func (s *Service) LegalPage(ctx context.Context, slug string) (*LegalPage, error) {
	if slug == "" {
		return nil, ErrNotFound
	}

	var page *LegalPage
	key := cache.GenerateCacheKey("content", "legal", slug)
	params := map[string]interface{}{"slug": slug}
	if _, err := s.fetch(ctx, key, LegalPageQuery, params, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch legal page %s: %w", slug, err)
	}
	if page == nil {
		return nil, fmt.Errorf("legal page %s: %w", slug, ErrNotFound)
	}
	return page, nil
}

// LegalPageWithSettings 并发获取法律页面和站点设置
func (s *Service) LegalPageWithSettings(ctx context.Context, slug string) (*LegalPage, *SiteSettings, error) {
	var (
		page     *LegalPage
		settings *SiteSettings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = s.LegalPage(gctx, slug)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.SiteSettings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return page, settings, nil
}

// LegalPageSlugs 获取站点地图所需的法律页面列表
func (s *Service) LegalPageSlugs(ctx context.Context) ([]SitemapEntry, error) {
	var entries []SitemapEntry
	if _, err := s.fetch(ctx, cache.GenerateCacheKey("content", "legal_slugs"), LegalPageSlugsQuery, nil, &entries); err != nil {
		return nil, fmt.Errorf("failed to fetch legal page slugs: %w", err)
	}
	return entries, nil
}

// Invalidate 清除内容缓存，下次请求重新查询后端
func (s *Service) Invalidate() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear()
}

// fetch 先查缓存，未命中时查询后端并写入缓存
// 返回值表示结果是否来自后端
func (s *Service) fetch(ctx context.Context, key, query string, params map[string]interface{}, out interface{}) (bool, error) {
	if s.cache != nil {
		found, err := cache.GetJSON(s.cache, key, out)
		if err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to read content cache")
		} else if found {
			return false, nil
		}
	}

	start := time.Now()
	if err := s.client.Query(ctx, query, params, out); err != nil {
		return false, err
	}
	s.logger.WithFields(logrus.Fields{
		"key":     key,
		"latency": time.Since(start).String(),
	}).Debug("Content fetched from backend")

	if s.cache != nil {
		if err := cache.SetJSON(s.cache, key, out, s.revalidate); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to write content cache")
		}
	}
	return true, nil
}

func (s *Service) saveSnapshot(ctx context.Context, page *HomePage) {
	if s.snapshots == nil {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode home page snapshot")
		return
	}
	if _, err := s.snapshots.Put(ctx, homeSnapshotKey, bytes.NewReader(data), "application/json"); err != nil {
		s.logger.WithError(err).Warn("Failed to save home page snapshot")
	}
}

func (s *Service) loadSnapshot(ctx context.Context) (*HomePage, error) {
	if s.snapshots == nil {
		return nil, storage.ErrObjectNotFound
	}
	r, err := s.snapshots.Get(context.WithoutCancel(ctx), homeSnapshotKey)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var page HomePage
	if err := json.NewDecoder(r).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode home page snapshot: %w", err)
	}
	return &page, nil
}
