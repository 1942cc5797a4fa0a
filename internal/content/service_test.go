package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/cache"
	"github.com/fyerfyer/motorsport-site/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient 内容查询客户端的模拟实现
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Query(ctx context.Context, query string, params map[string]interface{}, out interface{}) error {
	args := m.Called(ctx, query, params, out)
	return args.Error(0)
}

// respondWith 把JSON结果解码到调用方提供的目标
func respondWith(result string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		if err := json.Unmarshal([]byte(result), args.Get(3)); err != nil {
			panic(err)
		}
	}
}

const homeResult = `{
  "siteSettings": {"_id":"settings","footerText":"Race hard","socialLinks":{"youtube":"https://youtube.com/@team"}},
  "hero": {"_id":"hero","image":{"asset":{"_ref":"image-hero-1920x1080-jpg"}}},
  "bio": {"_id":"bio","heading":"About","body":[{"_type":"block","_key":"b1","style":"normal","children":[{"_type":"span","_key":"s1","text":"Racing since 2010."}]}]},
  "newsArticles": [],
  "videos": [{"_id":"v1","youtubeUrl":"https://youtu.be/dQw4w9WgXcQ"}],
  "galleryImages": [],
  "scheduleEvents": [{"_id":"e1","raceName":"Sebring","startDate":"2026-03-04","endDate":"2026-03-08"}],
  "sponsors": [],
  "contactSection": null
}`

func newMemoryCache(t *testing.T) cache.Cache {
	c, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)
	return c
}

func TestServiceHomePageCached(t *testing.T) {
	client := new(MockClient)
	client.On("Query", mock.Anything, HomePageQuery, mock.Anything, mock.Anything).
		Run(respondWith(homeResult)).Return(nil).Once()

	svc := NewService(client, WithCache(newMemoryCache(t)), WithRevalidate(time.Minute))

	page, err := svc.HomePage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "About", page.Bio.Heading)
	assert.Equal(t, "Racing since 2010.", page.Bio.Body.PlainText())
	assert.Nil(t, page.ContactSection)
	assert.False(t, page.HasSponsors())
	require.Len(t, page.ScheduleEvents, 1)

	// 第二次命中缓存，不再查询后端
	again, err := svc.HomePage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, page.Bio.Body.Keys(), again.Bio.Body.Keys())
	client.AssertNumberOfCalls(t, "Query", 1)

	// 清除缓存后重新查询
	require.NoError(t, svc.Invalidate())
	client.On("Query", mock.Anything, HomePageQuery, mock.Anything, mock.Anything).
		Run(respondWith(homeResult)).Return(nil).Once()
	_, err = svc.HomePage(context.Background())
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Query", 2)
}

func TestServiceHomePageSnapshotFallback(t *testing.T) {
	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	client := new(MockClient)
	client.On("Query", mock.Anything, HomePageQuery, mock.Anything, mock.Anything).
		Run(respondWith(homeResult)).Return(nil).Once()
	client.On("Query", mock.Anything, HomePageQuery, mock.Anything, mock.Anything).
		Return(errors.New("backend down"))

	svc := NewService(client, WithSnapshotStore(store))

	_, err = svc.HomePage(context.Background())
	require.NoError(t, err)

	exists, err := store.Exists(context.Background(), homeSnapshotKey)
	require.NoError(t, err)
	assert.True(t, exists)

	page, err := svc.HomePage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Race hard", page.SiteSettings.FooterText)
	assert.Equal(t, "Racing since 2010.", page.Bio.Body.PlainText())
}

func TestServiceHomePageErrorWithoutSnapshot(t *testing.T) {
	client := new(MockClient)
	client.On("Query", mock.Anything, HomePageQuery, mock.Anything, mock.Anything).
		Return(errors.New("backend down"))

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	svc := NewService(client, WithSnapshotStore(store))

	_, err = svc.HomePage(context.Background())
	assert.ErrorContains(t, err, "backend down")
}

func TestServiceLegalPage(t *testing.T) {
	client := new(MockClient)
	client.On("Query", mock.Anything, LegalPageQuery, map[string]interface{}{"slug": "privacy-policy"}, mock.Anything).
		Run(respondWith(`{"_id":"lp1","title":"Privacy Policy","slug":{"current":"privacy-policy"},"body":[]}`)).Return(nil)
	client.On("Query", mock.Anything, LegalPageQuery, map[string]interface{}{"slug": "missing"}, mock.Anything).
		Run(respondWith(`null`)).Return(nil).Once()

	svc := NewService(client, WithCache(newMemoryCache(t)))

	page, err := svc.LegalPage(context.Background(), "privacy-policy")
	require.NoError(t, err)
	assert.Equal(t, "Privacy Policy", page.Title)

	_, err = svc.LegalPage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// 不存在的结果同样被缓存
	_, err = svc.LegalPage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	client.AssertNumberOfCalls(t, "Query", 2)

	_, err = svc.LegalPage(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceLegalPageWithSettings(t *testing.T) {
	client := new(MockClient)
	client.On("Query", mock.Anything, LegalPageQuery, mock.Anything, mock.Anything).
		Run(respondWith(`{"_id":"lp2","title":"Terms of Use","slug":{"current":"terms"}}`)).Return(nil)
	client.On("Query", mock.Anything, SiteSettingsQuery, mock.Anything, mock.Anything).
		Run(respondWith(`{"_id":"settings","termsOfUsePage":{"_id":"lp2","title":"Terms of Use","slug":{"current":"terms"}}}`)).Return(nil)

	svc := NewService(client)
	page, settings, err := svc.LegalPageWithSettings(context.Background(), "terms")
	require.NoError(t, err)
	assert.Equal(t, "Terms of Use", page.Title)
	require.NotNil(t, settings.TermsOfUsePage)
	assert.Equal(t, "terms", settings.TermsOfUsePage.Slug.Current)
	assert.Nil(t, settings.PrivacyPolicyPage)
}

func TestServiceLegalPageSlugs(t *testing.T) {
	client := new(MockClient)
	client.On("Query", mock.Anything, LegalPageSlugsQuery, mock.Anything, mock.Anything).
		Run(respondWith(`[{"slug":"privacy-policy","_updatedAt":"2025-01-02T03:04:05Z"},{"slug":"terms","_updatedAt":"2025-02-01T00:00:00Z"}]`)).Return(nil)

	svc := NewService(client)
	entries, err := svc.LegalPageSlugs(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "privacy-policy", entries[0].Slug)
	assert.Equal(t, "2025-01-02T03:04:05Z", entries[0].UpdatedAt)
}

func TestSocialLinksList(t *testing.T) {
	links := SocialLinks{YouTube: "https://youtube.com/@team", Instagram: "https://instagram.com/team"}.List()
	require.Len(t, links, 2)
	assert.Equal(t, "youtube", links[0].Key)
	assert.Equal(t, "instagram", links[1].Key)
}
