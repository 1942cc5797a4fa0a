package content

import (
	"github.com/fyerfyer/motorsport-site/internal/richtext"
)

// Reference 资源引用
type Reference struct {
	Ref  string `json:"_ref"`
	Type string `json:"_type,omitempty"`
}

// Image 图片字段
type Image struct {
	Type  string     `json:"_type,omitempty"`
	Asset *Reference `json:"asset,omitempty"`
	Alt   string     `json:"alt,omitempty"`
}

// AssetRef 返回资源引用ID，没有资源时为空
func (i *Image) AssetRef() string {
	if i == nil || i.Asset == nil {
		return ""
	}
	return i.Asset.Ref
}

// Slug 路径片段
type Slug struct {
	Current string `json:"current"`
}

// SocialLinks 社交媒体链接
type SocialLinks struct {
	TikTok    string `json:"tiktok,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Threads   string `json:"threads,omitempty"`
}

// SocialLink 单个社交链接
type SocialLink struct {
	Key   string
	Label string
	URL   string
}

// List 按固定顺序返回已配置的链接
func (s SocialLinks) List() []SocialLink {
	all := []SocialLink{
		{Key: "tiktok", Label: "TikTok", URL: s.TikTok},
		{Key: "youtube", Label: "YouTube", URL: s.YouTube},
		{Key: "facebook", Label: "Facebook", URL: s.Facebook},
		{Key: "twitter", Label: "X", URL: s.Twitter},
		{Key: "instagram", Label: "Instagram", URL: s.Instagram},
		{Key: "threads", Label: "Threads", URL: s.Threads},
	}
	links := make([]SocialLink, 0, len(all))
	for _, l := range all {
		if l.URL != "" {
			links = append(links, l)
		}
	}
	return links
}

// SiteSettings 站点设置
type SiteSettings struct {
	ID                string      `json:"_id"`
	Logo              *Image      `json:"logo,omitempty"`
	FooterLogo        *Image      `json:"footerLogo,omitempty"`
	FooterText        string      `json:"footerText,omitempty"`
	SocialLinks       SocialLinks `json:"socialLinks"`
	PrivacyPolicyPage *LegalPage  `json:"privacyPolicyPage,omitempty"`
	TermsOfUsePage    *LegalPage  `json:"termsOfUsePage,omitempty"`
}

// Hero 首屏
type Hero struct {
	ID    string `json:"_id"`
	Image *Image `json:"image,omitempty"`
}

// Bio 个人简介
type Bio struct {
	ID      string            `json:"_id"`
	Image   *Image            `json:"image,omitempty"`
	Heading string            `json:"heading"`
	Body    richtext.Document `json:"body"`
}

// NewsArticle 新闻
type NewsArticle struct {
	ID           string            `json:"_id"`
	Title        string            `json:"title"`
	Body         richtext.Document `json:"body"`
	Image        *Image            `json:"image,omitempty"`
	Date         string            `json:"date"`
	ExternalLink string            `json:"externalLink,omitempty"`
}

// Video 视频，YouTube链接或上传文件
type Video struct {
	ID           string `json:"_id"`
	YouTubeURL   string `json:"youtubeUrl,omitempty"`
	Thumbnail    *Image `json:"thumbnail,omitempty"`
	VideoFileURL string `json:"videoFileUrl,omitempty"`
}

// GalleryImage 图库图片
type GalleryImage struct {
	ID      string `json:"_id"`
	Image   *Image `json:"image,omitempty"`
	AltText string `json:"altText"`
	Order   *int   `json:"order,omitempty"`
}

// Sponsor 赞助商
type Sponsor struct {
	ID      string `json:"_id"`
	Image   *Image `json:"image,omitempty"`
	AltText string `json:"altText"`
	Link    string `json:"link,omitempty"`
	Order   *int   `json:"order,omitempty"`
}

// ScheduleEvent 赛程，日期格式 YYYY-MM-DD
type ScheduleEvent struct {
	ID        string `json:"_id"`
	RaceName  string `json:"raceName"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// LegalPage 法律条款页面
type LegalPage struct {
	ID        string            `json:"_id"`
	Title     string            `json:"title"`
	Slug      Slug              `json:"slug"`
	Body      richtext.Document `json:"body,omitempty"`
	UpdatedAt string            `json:"_updatedAt,omitempty"`
}

// ContactSection 联系区块，正文为markdown
type ContactSection struct {
	ID         string `json:"_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	ButtonText string `json:"buttonText"`
}

// HomePage 首页全部数据
// 缺失的单例文档为nil，页面对应区块不渲染
type HomePage struct {
	SiteSettings   *SiteSettings   `json:"siteSettings"`
	Hero           *Hero           `json:"hero"`
	Bio            *Bio            `json:"bio"`
	NewsArticles   []NewsArticle   `json:"newsArticles"`
	Videos         []Video         `json:"videos"`
	GalleryImages  []GalleryImage  `json:"galleryImages"`
	ScheduleEvents []ScheduleEvent `json:"scheduleEvents"`
	Sponsors       []Sponsor       `json:"sponsors"`
	ContactSection *ContactSection `json:"contactSection"`
}

// HasSponsors 是否有赞助商，决定导航中是否显示赞助商链接
func (h *HomePage) HasSponsors() bool {
	return h != nil && len(h.Sponsors) > 0
}

// SitemapEntry 站点地图条目
type SitemapEntry struct {
	Slug      string `json:"slug"`
	UpdatedAt string `json:"_updatedAt"`
}
