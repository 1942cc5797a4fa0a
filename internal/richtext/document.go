package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// 节点类型常量
const (
	TypeBlock = "block" // 文本块
	TypeSpan  = "span"  // 行内文本
)

// 常用块样式
const (
	StyleNormal     = "normal"
	StyleH1         = "h1"
	StyleH2         = "h2"
	StyleH3         = "h3"
	StyleBlockquote = "blockquote"
)

// 列表类型
const (
	ListBullet = "bullet"
	ListNumber = "number"
)

// Document 结构化富文本文档
// 块的顺序有意义，切分后必须保持原顺序
type Document []Block

// Block 文档中的块级节点
// 只有 *TextBlock 携带行内文本，其余节点统一由 *ObjectBlock 表示
type Block interface {
	// Key 返回块的稳定标识
	Key() string
	// Type 返回节点类型（_type）
	Type() string
	// PlainText 返回块的扁平文本
	PlainText() string
}

// MarkDef 标注定义，例如带href的链接
// Span.Marks 中通过 Key 引用
type MarkDef struct {
	Key    string                 `json:"_key"`
	Type   string                 `json:"_type"`
	Href   string                 `json:"href,omitempty"`
	Fields map[string]interface{} `json:"-"` // 其余字段，原样保留
}

// Span 行内文本片段
type Span struct {
	Key   string   `json:"_key,omitempty"`
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// MarshalJSON marks为空时输出[]而不是null
func (s Span) MarshalJSON() ([]byte, error) {
	type alias Span
	a := alias(s)
	if a.Type == "" {
		a.Type = TypeSpan
	}
	if a.Marks == nil {
		a.Marks = []string{}
	}
	return json.Marshal(a)
}

// TextBlock 承载文本的块：段落、标题、列表项
type TextBlock struct {
	BlockKey string    `json:"_key"`
	Style    string    `json:"style,omitempty"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	MarkDefs []MarkDef `json:"markDefs"`
	Children []Span    `json:"children"`
}

// Key 实现Block接口
func (b *TextBlock) Key() string { return b.BlockKey }

// Type 实现Block接口
func (b *TextBlock) Type() string { return TypeBlock }

// PlainText 拼接所有span的文本
func (b *TextBlock) PlainText() string {
	if len(b.Children) == 1 {
		return b.Children[0].Text
	}
	var sb strings.Builder
	for _, s := range b.Children {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Len 块的扁平文本长度（按字符计）
func (b *TextBlock) Len() int {
	n := 0
	for _, s := range b.Children {
		n += utf8.RuneCountInString(s.Text)
	}
	return n
}

// IsListItem 是否为列表项
func (b *TextBlock) IsListItem() bool {
	return b.ListItem != ""
}

// withChildren 复制块的元数据并替换子节点和key
func (b *TextBlock) withChildren(key string, children []Span) *TextBlock {
	defs := make([]MarkDef, len(b.MarkDefs))
	copy(defs, b.MarkDefs)
	return &TextBlock{
		BlockKey: key,
		Style:    b.Style,
		ListItem: b.ListItem,
		Level:    b.Level,
		MarkDefs: defs,
		Children: children,
	}
}

// MarshalJSON 输出Portable Text格式
func (b *TextBlock) MarshalJSON() ([]byte, error) {
	type alias TextBlock
	markDefs := b.MarkDefs
	if markDefs == nil {
		markDefs = []MarkDef{}
	}
	children := b.Children
	if children == nil {
		children = []Span{}
	}
	return json.Marshal(struct {
		Type string `json:"_type"`
		alias
		MarkDefs []MarkDef `json:"markDefs"`
		Children []Span    `json:"children"`
	}{
		Type:     TypeBlock,
		alias:    alias(*b),
		MarkDefs: markDefs,
		Children: children,
	})
}

// ObjectBlock 非文本节点（图片、嵌入等），原样保留
type ObjectBlock struct {
	BlockKey  string
	BlockType string
	Raw       json.RawMessage
}

// Key 实现Block接口
func (b *ObjectBlock) Key() string { return b.BlockKey }

// Type 实现Block接口
func (b *ObjectBlock) Type() string { return b.BlockType }

// PlainText 非文本节点没有文本
func (b *ObjectBlock) PlainText() string { return "" }

// MarshalJSON 原样输出
func (b *ObjectBlock) MarshalJSON() ([]byte, error) {
	if len(b.Raw) > 0 {
		return b.Raw, nil
	}
	return json.Marshal(map[string]string{"_key": b.BlockKey, "_type": b.BlockType})
}

// MarshalJSON 将MarkDef及其附加字段合并输出
func (m MarkDef) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Fields)+3)
	for k, v := range m.Fields {
		out[k] = v
	}
	out["_key"] = m.Key
	out["_type"] = m.Type
	if m.Href != "" {
		out["href"] = m.Href
	}
	return json.Marshal(out)
}

// UnmarshalJSON 解析MarkDef，保留未知字段
func (m *MarkDef) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Key, _ = raw["_key"].(string)
	m.Type, _ = raw["_type"].(string)
	m.Href, _ = raw["href"].(string)
	delete(raw, "_key")
	delete(raw, "_type")
	delete(raw, "href")
	if len(raw) > 0 {
		m.Fields = raw
	}
	return nil
}

// UnmarshalJSON 解析文档，在解码时一次性确定每个节点的类型
func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	doc := make(Document, 0, len(raws))
	for i, raw := range raws {
		block, err := decodeBlock(raw)
		if err != nil {
			return fmt.Errorf("failed to decode block %d: %w", i, err)
		}
		doc = append(doc, block)
	}
	*d = doc
	return nil
}

// decodeBlock 根据_type解码单个节点
func decodeBlock(raw json.RawMessage) (Block, error) {
	var head struct {
		Key  string `json:"_key"`
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	if head.Type != TypeBlock {
		return &ObjectBlock{
			BlockKey:  head.Key,
			BlockType: head.Type,
			Raw:       append(json.RawMessage(nil), raw...),
		}, nil
	}

	var tb TextBlock
	if err := json.Unmarshal(raw, &tb); err != nil {
		return nil, err
	}
	for i := range tb.Children {
		if tb.Children[i].Type == "" {
			tb.Children[i].Type = TypeSpan
		}
	}
	if tb.Style == "" {
		tb.Style = StyleNormal
	}
	return &tb, nil
}

// PlainText 返回整个文档的扁平文本，块之间不加分隔符
func (d Document) PlainText() string {
	var sb strings.Builder
	for _, b := range d {
		sb.WriteString(b.PlainText())
	}
	return sb.String()
}

// Len 文档扁平文本的字符数
func (d Document) Len() int {
	n := 0
	for _, b := range d {
		n += blockLen(b)
	}
	return n
}

// Keys 按顺序返回所有块的key
func (d Document) Keys() []string {
	keys := make([]string, len(d))
	for i, b := range d {
		keys[i] = b.Key()
	}
	return keys
}

// blockLen 块的字符数，非文本节点为0
func blockLen(b Block) int {
	if tb, ok := b.(*TextBlock); ok {
		return tb.Len()
	}
	return 0
}
