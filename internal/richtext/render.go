package richtext

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element 渲染目标元素
type Element struct {
	Tag   string
	Class string
	Attrs map[string]string
}

// AnnotationFunc 根据标注定义生成元素，返回false表示不渲染包裹元素
type AnnotationFunc func(def MarkDef) (Element, bool)

// Renderer 结构化文本渲染器
// 通过按节点类型注册的映射表把块、标记、列表转换成HTML
type Renderer struct {
	Blocks      map[string]Element        // 块样式 -> 元素
	Decorators  map[string]Element        // 装饰标记 -> 元素
	Annotations map[string]AnnotationFunc // 标注类型 -> 元素
	Lists       map[string]Element        // 列表类型 -> 容器元素
	ListItem    Element                   // 列表项元素
}

// NewRenderer 创建渲染器，未注册的块样式回退到normal
func NewRenderer(blocks map[string]Element, decorators map[string]Element, lists map[string]Element) *Renderer {
	return &Renderer{
		Blocks:     blocks,
		Decorators: decorators,
		Annotations: map[string]AnnotationFunc{
			"link": linkAnnotation,
		},
		Lists:    lists,
		ListItem: Element{Tag: "li"},
	}
}

// BioStyles 个人简介使用的样式表
func BioStyles() *Renderer {
	return NewRenderer(
		map[string]Element{
			StyleNormal: {Tag: "p", Class: "text-gray-300 leading-relaxed mb-4"},
			StyleH1:     {Tag: "h1", Class: "text-3xl font-bold text-white mb-4"},
			StyleH2:     {Tag: "h2", Class: "text-2xl font-bold text-white mb-3"},
			StyleH3:     {Tag: "h3", Class: "text-xl font-bold text-white mb-2"},
		},
		defaultDecorators(),
		map[string]Element{
			ListBullet: {Tag: "ul", Class: "list-disc list-inside text-gray-300 mb-4"},
			ListNumber: {Tag: "ol", Class: "list-decimal list-inside text-gray-300 mb-4"},
		},
	)
}

// LegalStyles 法律条款页面使用的样式表
func LegalStyles() *Renderer {
	return NewRenderer(
		map[string]Element{
			StyleNormal: {Tag: "p", Class: "text-gray-300 leading-relaxed mb-4"},
			StyleH1:     {Tag: "h1", Class: "text-3xl font-bold text-white mb-4 mt-8"},
			StyleH2:     {Tag: "h2", Class: "text-2xl font-bold text-white mb-3 mt-6"},
			StyleH3:     {Tag: "h3", Class: "text-xl font-bold text-white mb-2 mt-4"},
		},
		defaultDecorators(),
		map[string]Element{
			ListBullet: {Tag: "ul", Class: "list-disc list-inside text-gray-300 mb-4 ml-4"},
			ListNumber: {Tag: "ol", Class: "list-decimal list-inside text-gray-300 mb-4 ml-4"},
		},
	)
}

func defaultDecorators() map[string]Element {
	return map[string]Element{
		"strong":         {Tag: "strong", Class: "font-bold text-white"},
		"em":             {Tag: "em", Class: "italic"},
		"code":           {Tag: "code"},
		"underline":      {Tag: "u"},
		"strike-through": {Tag: "s"},
	}
}

// linkAnnotation 链接在新窗口打开，不安全的协议不生成链接
func linkAnnotation(def MarkDef) (Element, bool) {
	if !safeHref(def.Href) {
		return Element{}, false
	}
	return Element{
		Tag:   "a",
		Class: "text-primary-red hover:underline",
		Attrs: map[string]string{
			"href":   def.Href,
			"target": "_blank",
			"rel":    "noopener noreferrer",
		},
	}, true
}

func safeHref(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return true
	}
	return false
}

// Render 把文档渲染为HTML片段
// 连续的同类列表项合并到一个列表容器中，非文本节点被跳过
func (r *Renderer) Render(doc Document) (template.HTML, error) {
	var buf bytes.Buffer

	var list *html.Node
	listKind, listLevel := "", 0
	flush := func() error {
		if list == nil {
			return nil
		}
		n := list
		list = nil
		return html.Render(&buf, n)
	}

	for _, b := range doc {
		tb, ok := b.(*TextBlock)
		if !ok {
			continue
		}

		if tb.IsListItem() {
			if list == nil || tb.ListItem != listKind || tb.Level != listLevel {
				if err := flush(); err != nil {
					return "", err
				}
				list = newElement(r.listElement(tb.ListItem))
				listKind, listLevel = tb.ListItem, tb.Level
			}
			li := newElement(r.ListItem)
			r.appendSpans(li, tb)
			list.AppendChild(li)
			continue
		}

		if err := flush(); err != nil {
			return "", err
		}
		n := newElement(r.blockElement(tb.Style))
		r.appendSpans(n, tb)
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("failed to render block %s: %w", tb.BlockKey, err)
		}
	}
	if err := flush(); err != nil {
		return "", err
	}

	return template.HTML(buf.String()), nil
}

func (r *Renderer) blockElement(style string) Element {
	if el, ok := r.Blocks[style]; ok {
		return el
	}
	if el, ok := r.Blocks[StyleNormal]; ok {
		return el
	}
	return Element{Tag: "p"}
}

func (r *Renderer) listElement(kind string) Element {
	if el, ok := r.Lists[kind]; ok {
		return el
	}
	return Element{Tag: "ul"}
}

// appendSpans 依次渲染span，marks按顺序由外向内嵌套
func (r *Renderer) appendSpans(parent *html.Node, tb *TextBlock) {
	defs := make(map[string]MarkDef, len(tb.MarkDefs))
	for _, d := range tb.MarkDefs {
		defs[d.Key] = d
	}

	for _, span := range tb.Children {
		if span.Text == "" {
			continue
		}
		target := parent
		for _, mark := range span.Marks {
			el, ok := r.markElement(mark, defs)
			if !ok {
				continue
			}
			child := newElement(el)
			target.AppendChild(child)
			target = child
		}
		appendText(target, span.Text)
	}
}

func (r *Renderer) markElement(mark string, defs map[string]MarkDef) (Element, bool) {
	if def, ok := defs[mark]; ok {
		fn, ok := r.Annotations[def.Type]
		if !ok {
			return Element{}, false
		}
		return fn(def)
	}
	el, ok := r.Decorators[mark]
	return el, ok
}

// appendText 文本中的换行转换为<br>
func appendText(parent *html.Node, text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			parent.AppendChild(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
		}
		if line != "" {
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
}

func newElement(el Element) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     el.Tag,
		DataAtom: atom.Lookup([]byte(el.Tag)),
	}
	if el.Class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: el.Class})
	}
	for _, k := range sortedKeys(el.Attrs) {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: el.Attrs[k]})
	}
	return n
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
