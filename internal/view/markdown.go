package view

import (
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown 将编辑填写的markdown渲染为HTML
// 原始HTML会被丢弃，链接在新窗口打开
func Markdown(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	mdParser := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := mdParser.Parse([]byte(src))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML | html.Safelink,
	})

	return template.HTML(strings.TrimSpace(string(markdown.Render(doc, renderer))))
}
