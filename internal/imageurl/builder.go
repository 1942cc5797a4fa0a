// Package imageurl 根据图片资源引用拼出CDN地址
package imageurl

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

const defaultBaseURL = "https://cdn.sanity.io"

// 资源引用形如 image-<id>-<宽>x<高>-<格式>
var refPattern = regexp.MustCompile(`^image-([A-Za-z0-9]+)-(\d+)x(\d+)-([a-z0-9]+)$`)

// Builder 图片地址构造器
type Builder struct {
	baseURL   string
	projectID string
	dataset   string
}

// Option 构造器选项
type Option func(*Builder)

// WithBaseURL 设置CDN地址
func WithBaseURL(u string) Option {
	return func(b *Builder) {
		b.baseURL = u
	}
}

// New 创建图片地址构造器
func New(projectID, dataset string, opts ...Option) *Builder {
	b := &Builder{
		baseURL:   defaultBaseURL,
		projectID: projectID,
		dataset:   dataset,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Params 图片参数，零值表示不设置
type Params struct {
	Width   int
	Height  int
	Quality int
	Fit     string
	Auto    bool // auto=format，按浏览器能力选择格式
}

// Asset 解析后的资源引用
type Asset struct {
	ID     string
	Width  int
	Height int
	Format string
}

// ParseRef 解析资源引用
func ParseRef(ref string) (Asset, bool) {
	m := refPattern.FindStringSubmatch(ref)
	if m == nil {
		return Asset{}, false
	}
	w, _ := strconv.Atoi(m[2])
	h, _ := strconv.Atoi(m[3])
	return Asset{ID: m[1], Width: w, Height: h, Format: m[4]}, true
}

// URL 返回图片地址，引用无效时返回空串
func (b *Builder) URL(ref string, p Params) string {
	asset, ok := ParseRef(ref)
	if !ok || b == nil {
		return ""
	}

	u := fmt.Sprintf("%s/images/%s/%s/%s-%dx%d.%s",
		b.baseURL, b.projectID, b.dataset, asset.ID, asset.Width, asset.Height, asset.Format)

	q := url.Values{}
	if p.Width > 0 {
		q.Set("w", strconv.Itoa(p.Width))
	}
	if p.Height > 0 {
		q.Set("h", strconv.Itoa(p.Height))
	}
	if p.Quality > 0 {
		q.Set("q", strconv.Itoa(p.Quality))
	}
	if p.Fit != "" {
		q.Set("fit", p.Fit)
	}
	if p.Auto {
		q.Set("auto", "format")
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
