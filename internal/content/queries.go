package content

import "fmt"

// 文档引用的投影
const legalPageRefProjection = `{
      _id,
      _type,
      title,
      slug
    }`

// SiteSettingsQuery 站点设置
var SiteSettingsQuery = fmt.Sprintf(`*[_type == "siteSettings"][0] {
    _id,
    _type,
    logo,
    footerLogo,
    footerText,
    socialLinks,
    "privacyPolicyPage": privacyPolicyPage->%s,
    "termsOfUsePage": termsOfUsePage->%s
  }`, legalPageRefProjection, legalPageRefProjection)

// HeroQuery 首屏大图
const HeroQuery = `*[_type == "hero"][0] {
    _id,
    _type,
    image
  }`

// BioQuery 个人简介
const BioQuery = `*[_type == "bio"][0] {
    _id,
    _type,
    image,
    heading,
    body
  }`

// NewsArticlesQuery 最新三篇新闻
const NewsArticlesQuery = `*[_type == "newsArticle"] | order(date desc)[0...3] {
    _id,
    _type,
    title,
    body,
    image,
    date,
    externalLink
  }`

// VideosQuery 视频列表
const VideosQuery = `*[_type == "video"] | order(_createdAt desc) {
    _id,
    _type,
    youtubeUrl,
    thumbnail,
    "videoFileUrl": videoFile.asset->url
  }`

// GalleryImagesQuery 图库
const GalleryImagesQuery = `*[_type == "galleryImage"] | order(order asc, _createdAt desc) {
    _id,
    _type,
    image,
    altText,
    order
  }`

// SponsorsQuery 赞助商
const SponsorsQuery = `*[_type == "sponsor"] | order(order asc, _createdAt asc) {
    _id,
    _type,
    image,
    altText,
    link,
    order
  }`

// ScheduleEventsQuery 赛程
const ScheduleEventsQuery = `*[_type == "scheduleEvent"] | order(startDate asc) {
    _id,
    _type,
    raceName,
    startDate,
    endDate
  }`

// LegalPageQuery 按slug查询法律页面，参数 $slug
const LegalPageQuery = `*[_type == "legalPage" && slug.current == $slug][0] {
    _id,
    _type,
    _updatedAt,
    title,
    slug,
    body
  }`

// ContactSectionQuery 联系区块
const ContactSectionQuery = `*[_type == "contactSection"][0] {
    _id,
    _type,
    title,
    body,
    buttonText
  }`

// LegalPageSlugsQuery 站点地图使用的法律页面列表
const LegalPageSlugsQuery = `*[_type == "legalPage" && defined(slug.current)] { "slug": slug.current, _updatedAt }`

// HomePageQuery 首页组合查询
var HomePageQuery = fmt.Sprintf(`{
    "siteSettings": %s,
    "hero": %s,
    "bio": %s,
    "newsArticles": %s,
    "videos": %s,
    "galleryImages": %s,
    "scheduleEvents": %s,
    "sponsors": %s,
    "contactSection": %s
  }`,
	SiteSettingsQuery,
	HeroQuery,
	BioQuery,
	NewsArticlesQuery,
	VideosQuery,
	GalleryImagesQuery,
	ScheduleEventsQuery,
	SponsorsQuery,
	ContactSectionQuery,
)
