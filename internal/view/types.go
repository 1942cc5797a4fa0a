package view

import (
	"html/template"

	"github.com/fyerfyer/motorsport-site/internal/content"
)

// Link 导航或页脚链接
type Link struct {
	Label string
	Href  string
}

// Chrome 页眉页脚共用数据
type Chrome struct {
	SiteName      string
	LogoURL       string
	FooterLogoURL string
	FooterText    string
	Nav           []Link
	Social        []content.SocialLink
	LegalLinks    []Link
}

// Image 已经生成地址的图片
type Image struct {
	URL string
	Alt string
}

// Bio 简介区块
// After 为空时页面不渲染"阅读更多"
type Bio struct {
	Heading string
	Image   *Image
	Before  template.HTML
	After   template.HTML
	HasMore bool
}

// NewsItem 新闻卡片
type NewsItem struct {
	Title        string
	Date         string
	Image        *Image
	ExternalLink string
}

// VideoItem 视频
type VideoItem struct {
	YouTubeID    string
	EmbedURL     string // YouTube嵌入地址，上传的视频为空
	FileURL      string // 上传的视频文件地址
	PosterURL    string // 上传视频的封面
	ThumbnailURL string // 轮播缩略图
}

// Gallery 图库
// 超出初始显示数量的图片放在 Hidden 中，由"显示更多"展开
type Gallery struct {
	Visible []GalleryItem
	Hidden  []GalleryItem
}

// GalleryItem 图库图片
type GalleryItem struct {
	ThumbURL string
	FullURL  string
	Alt      string
}

// ScheduleRow 赛程行
type ScheduleRow struct {
	Dates    string
	RaceName string
}

// SponsorItem 赞助商
type SponsorItem struct {
	Image *Image
	Link  string
}

// Contact 联系区块
type Contact struct {
	Title      string
	Body       template.HTML
	ButtonText string
	Recaptcha  string // reCAPTCHA站点密钥，为空时表单不加载脚本
}

// Home 首页
type Home struct {
	Chrome
	Title       string
	Description string
	Hero        *Image
	Bio         *Bio
	News        []NewsItem
	Videos      []VideoItem
	Gallery     Gallery
	Schedule    []ScheduleRow
	Sponsors    []SponsorItem
	Contact     Contact
}

// Legal 法律页面
type Legal struct {
	Chrome
	Title       string // 浏览器标题
	Heading     string
	Body        template.HTML
	Description string
	UpdatedAt   string
}

// Status 404和错误页面
type Status struct {
	Chrome
	Title       string
	Description string
	TraceID     string
}
