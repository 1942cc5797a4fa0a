// Package view 把内容后端的文档组装成页面模板使用的数据
package view

import (
	"fmt"
	"html/template"

	"github.com/fyerfyer/motorsport-site/internal/content"
	"github.com/fyerfyer/motorsport-site/internal/imageurl"
	"github.com/fyerfyer/motorsport-site/internal/media"
	"github.com/fyerfyer/motorsport-site/internal/richtext"
	"github.com/fyerfyer/motorsport-site/internal/schedule"
)

const (
	// DefaultBioMaxChars 简介折叠前显示的字符数
	DefaultBioMaxChars = 1516
	// DefaultSiteName 站点名称，也是没有logo时的文字标识
	DefaultSiteName = "Torres Motorsports"
	// 图库初始显示数量
	defaultGalleryInitial = 12
	// 首页最多显示的新闻数
	maxNewsItems = 3

	defaultContactTitle  = "Get In Touch"
	defaultContactBody   = "Interested in sponsorship opportunities, media inquiries, or just want to connect? We'd love to hear from you."
	defaultContactButton = "Contact Us"
)

// 各区块的图片尺寸
var (
	logoParams       = imageurl.Params{Width: 200, Height: 60}
	footerLogoParams = imageurl.Params{Width: 150, Height: 50}
	heroParams       = imageurl.Params{Width: 1920, Height: 1080, Quality: 90}
	bioParams        = imageurl.Params{Width: 600, Height: 750, Quality: 85}
	newsParams       = imageurl.Params{Width: 600, Height: 340, Quality: 80}
	posterParams     = imageurl.Params{Width: 1280, Height: 720}
	thumbParams      = imageurl.Params{Width: 400, Height: 225}
	galleryParams    = imageurl.Params{Width: 600, Height: 600, Fit: "crop", Quality: 80}
	lightboxParams   = imageurl.Params{Width: 1600, Height: 1200, Quality: 90}
	sponsorParams    = imageurl.Params{Width: 300, Height: 200, Quality: 85}
)

// Builder 页面数据组装器
type Builder struct {
	images         *imageurl.Builder
	memo           *richtext.Memo
	bioStyles      *richtext.Renderer
	legalStyles    *richtext.Renderer
	siteName       string
	bioMaxChars    int
	galleryInitial int
	recaptchaKey   string
}

// Option 组装器配置选项
type Option func(*Builder)

// WithSiteName 设置站点名称
func WithSiteName(name string) Option {
	return func(b *Builder) {
		if name != "" {
			b.siteName = name
		}
	}
}

// WithBioMaxChars 设置简介折叠阈值，0 表示正文全部折叠，负数忽略
func WithBioMaxChars(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.bioMaxChars = n
		}
	}
}

// WithMemo 设置切分结果缓存
func WithMemo(m *richtext.Memo) Option {
	return func(b *Builder) {
		b.memo = m
	}
}

// WithRecaptchaSiteKey 设置联系表单使用的reCAPTCHA站点密钥
func WithRecaptchaSiteKey(key string) Option {
	return func(b *Builder) {
		b.recaptchaKey = key
	}
}

// NewBuilder 创建页面数据组装器
func NewBuilder(images *imageurl.Builder, opts ...Option) *Builder {
	b := &Builder{
		images:         images,
		bioStyles:      richtext.BioStyles(),
		legalStyles:    richtext.LegalStyles(),
		siteName:       DefaultSiteName,
		bioMaxChars:    DefaultBioMaxChars,
		galleryInitial: defaultGalleryInitial,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SiteName 返回站点名称
func (b *Builder) SiteName() string {
	return b.siteName
}

// BioMaxChars 返回简介折叠阈值
func (b *Builder) BioMaxChars() int {
	return b.bioMaxChars
}

// SplitBio 按阈值切分简介正文
func (b *Builder) SplitBio(bio *content.Bio) richtext.SplitResult {
	var body richtext.Document
	if bio != nil {
		body = bio.Body
	}
	return b.memo.Split(body, b.bioMaxChars)
}

// Home 组装首页数据
func (b *Builder) Home(page *content.HomePage) (*Home, error) {
	if page == nil {
		page = &content.HomePage{}
	}

	home := &Home{
		Chrome:      b.chrome(page.SiteSettings, page.HasSponsors()),
		Title:       b.siteName,
		Description: fmt.Sprintf("Official website of %s. Follow the racing journey, latest news, videos, and sponsorship opportunities.", b.siteName),
	}

	if page.Hero != nil {
		home.Hero = b.image(page.Hero.Image, heroParams, b.siteName)
	}

	if page.Bio != nil {
		bio, err := b.bio(page.Bio)
		if err != nil {
			return nil, err
		}
		home.Bio = bio
	}

	for i, article := range page.NewsArticles {
		if i >= maxNewsItems {
			break
		}
		home.News = append(home.News, NewsItem{
			Title:        article.Title,
			Date:         schedule.FormatTimestamp(article.Date),
			Image:        b.image(article.Image, newsParams, article.Title),
			ExternalLink: article.ExternalLink,
		})
	}

	for _, v := range page.Videos {
		home.Videos = append(home.Videos, b.video(v))
	}

	for _, g := range page.GalleryImages {
		ref := g.Image.AssetRef()
		if ref == "" {
			continue
		}
		item := GalleryItem{
			ThumbURL: b.images.URL(ref, galleryParams),
			FullURL:  b.images.URL(ref, lightboxParams),
			Alt:      g.AltText,
		}
		if len(home.Gallery.Visible) < b.galleryInitial {
			home.Gallery.Visible = append(home.Gallery.Visible, item)
		} else {
			home.Gallery.Hidden = append(home.Gallery.Hidden, item)
		}
	}

	for _, ev := range page.ScheduleEvents {
		home.Schedule = append(home.Schedule, ScheduleRow{
			Dates:    schedule.FormatDateRange(ev.StartDate, ev.EndDate),
			RaceName: ev.RaceName,
		})
	}

	for _, sp := range page.Sponsors {
		img := b.image(sp.Image, sponsorParams, sp.AltText)
		if img == nil {
			continue
		}
		home.Sponsors = append(home.Sponsors, SponsorItem{Image: img, Link: sp.Link})
	}

	home.Contact = b.contact(page.ContactSection)
	return home, nil
}

// Legal 组装法律页面数据
func (b *Builder) Legal(page *content.LegalPage, settings *content.SiteSettings) (*Legal, error) {
	if page == nil {
		return nil, content.ErrNotFound
	}

	body, err := b.legalStyles.Render(page.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to render legal page %s: %w", page.Slug.Current, err)
	}

	return &Legal{
		Chrome:      b.chrome(settings, false),
		Title:       page.Title + " | " + b.siteName,
		Heading:     page.Title,
		Body:        body,
		Description: fmt.Sprintf("%s for %s", page.Title, b.siteName),
		UpdatedAt:   schedule.FormatTimestamp(page.UpdatedAt),
	}, nil
}

// NotFound 组装404页面数据
func (b *Builder) NotFound(settings *content.SiteSettings) *Status {
	return &Status{
		Chrome: b.chrome(settings, false),
		Title:  "Page Not Found | " + b.siteName,
	}
}

// Error 组装错误页面数据
func (b *Builder) Error(traceID string) *Status {
	return &Status{
		Chrome:  b.chrome(nil, false),
		Title:   b.siteName,
		TraceID: traceID,
	}
}

func (b *Builder) chrome(settings *content.SiteSettings, hasSponsors bool) Chrome {
	c := Chrome{SiteName: b.siteName}

	c.Nav = []Link{
		{Label: "About", Href: "#about"},
		{Label: "News", Href: "#news"},
		{Label: "Videos", Href: "#videos"},
		{Label: "Gallery", Href: "#gallery"},
	}
	if hasSponsors {
		c.Nav = append(c.Nav, Link{Label: "Sponsors", Href: "#sponsors"})
	}
	c.Nav = append(c.Nav, Link{Label: "Contact", Href: "#contact"})

	if settings == nil {
		return c
	}

	c.LogoURL = b.images.URL(settings.Logo.AssetRef(), logoParams)
	// 页脚优先使用单独的页脚logo
	c.FooterLogoURL = b.images.URL(settings.FooterLogo.AssetRef(), footerLogoParams)
	if c.FooterLogoURL == "" {
		c.FooterLogoURL = b.images.URL(settings.Logo.AssetRef(), footerLogoParams)
	}
	c.FooterText = settings.FooterText
	c.Social = settings.SocialLinks.List()

	if p := settings.PrivacyPolicyPage; p != nil && p.Slug.Current != "" {
		c.LegalLinks = append(c.LegalLinks, Link{Label: "Privacy Policy", Href: "/" + p.Slug.Current})
	}
	if p := settings.TermsOfUsePage; p != nil && p.Slug.Current != "" {
		c.LegalLinks = append(c.LegalLinks, Link{Label: "Terms of Use", Href: "/" + p.Slug.Current})
	}
	return c
}

func (b *Builder) bio(bio *content.Bio) (*Bio, error) {
	split := b.SplitBio(bio)

	before, err := b.bioStyles.Render(split.Before)
	if err != nil {
		return nil, fmt.Errorf("failed to render bio: %w", err)
	}
	var after template.HTML
	if split.HasMore() {
		after, err = b.bioStyles.Render(split.After)
		if err != nil {
			return nil, fmt.Errorf("failed to render bio: %w", err)
		}
	}

	return &Bio{
		Heading: bio.Heading,
		Image:   b.image(bio.Image, bioParams, bio.Heading),
		Before:  before,
		After:   after,
		HasMore: split.HasMore(),
	}, nil
}

func (b *Builder) video(v content.Video) VideoItem {
	item := VideoItem{FileURL: v.VideoFileURL}

	if id := media.YouTubeID(v.YouTubeURL); id != "" {
		item.YouTubeID = id
		item.EmbedURL = media.YouTubeEmbedURL(id)
		item.FileURL = ""
	}

	ref := v.Thumbnail.AssetRef()
	if ref != "" {
		item.PosterURL = b.images.URL(ref, posterParams)
		item.ThumbnailURL = b.images.URL(ref, thumbParams)
	}
	if item.ThumbnailURL == "" && item.YouTubeID != "" {
		item.ThumbnailURL = media.YouTubeThumbnail(item.YouTubeID)
	}
	return item
}

func (b *Builder) contact(section *content.ContactSection) Contact {
	c := Contact{
		Title:      defaultContactTitle,
		Body:       Markdown(defaultContactBody),
		ButtonText: defaultContactButton,
		Recaptcha:  b.recaptchaKey,
	}
	if section == nil {
		return c
	}
	if section.Title != "" {
		c.Title = section.Title
	}
	if section.Body != "" {
		c.Body = Markdown(section.Body)
	}
	if section.ButtonText != "" {
		c.ButtonText = section.ButtonText
	}
	return c
}

// image 生成图片地址，没有有效引用时返回nil
func (b *Builder) image(img *content.Image, p imageurl.Params, fallbackAlt string) *Image {
	u := b.images.URL(img.AssetRef(), p)
	if u == "" {
		return nil
	}
	alt := img.Alt
	if alt == "" {
		alt = fallbackAlt
	}
	return &Image{URL: u, Alt: alt}
}
