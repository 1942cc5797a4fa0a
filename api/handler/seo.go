package handler

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/fyerfyer/motorsport-site/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SEOHandler 站点地图和robots
type SEOHandler struct {
	content ContentSource
	baseURL string
	now     func() time.Time
	logger  *logrus.Logger
}

// NewSEOHandler 创建SEO处理器
func NewSEOHandler(source ContentSource, baseURL string) *SEOHandler {
	return &SEOHandler{
		content: source,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		logger:  middleware.GetLogger(),
	}
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap 站点地图
// GET /sitemap.xml
// 首页每周更新，法律页面每月更新
func (h *SEOHandler) Sitemap(c *gin.Context) {
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{{
			Loc:        h.baseURL,
			LastMod:    h.now().UTC().Format(time.RFC3339),
			ChangeFreq: "weekly",
			Priority:   "1.0",
		}},
	}

	entries, err := h.content.LegalPageSlugs(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	for _, e := range entries {
		if e.Slug == "" {
			continue
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + "/" + e.Slug,
			LastMod:    lastMod(e.UpdatedAt),
			ChangeFreq: "monthly",
			Priority:   "0.5",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		middleware.HandleError(c, middleware.NewInternalError("Failed to encode sitemap", err.Error()))
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

// Robots robots.txt
// GET /robots.txt
func (h *SEOHandler) Robots(c *gin.Context) {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\nSitemap: " + h.baseURL + "/sitemap.xml\n")
	c.String(http.StatusOK, b.String())
}

// lastMod 规范化为UTC时间，无法解析时省略
func lastMod(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
