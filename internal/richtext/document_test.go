package richtext

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `[
  {
    "_type": "block",
    "_key": "b1",
    "style": "h2",
    "markDefs": [],
    "children": [{"_type": "span", "_key": "s1", "text": "About", "marks": []}]
  },
  {
    "_type": "block",
    "_key": "b2",
    "style": "normal",
    "markDefs": [{"_type": "link", "_key": "m1", "href": "https://example.com", "blank": true}],
    "children": [
      {"_type": "span", "_key": "s2", "text": "Racing since ", "marks": ["strong"]},
      {"_type": "span", "_key": "s3", "text": "2010", "marks": ["m1"]}
    ]
  },
  {"_type": "image", "_key": "i1", "asset": {"_ref": "image-abc-10x10-png"}},
  {"_type": "block", "_key": "b3", "listItem": "bullet", "level": 1, "children": [{"_key": "s4", "text": "Karting"}]},
  {"_type": "block", "_key": "b4", "style": "normal"}
]`

// TestDocumentDecode 测试解码时确定节点类型
func TestDocumentDecode(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(sampleBody), &doc))
	require.Len(t, doc, 5)

	b1, ok := doc[0].(*TextBlock)
	require.True(t, ok)
	assert.Equal(t, StyleH2, b1.Style)

	b2 := doc[1].(*TextBlock)
	require.Len(t, b2.MarkDefs, 1)
	assert.Equal(t, "https://example.com", b2.MarkDefs[0].Href)
	assert.Equal(t, true, b2.MarkDefs[0].Fields["blank"])

	img, ok := doc[2].(*ObjectBlock)
	require.True(t, ok)
	assert.Equal(t, "image", img.Type())
	assert.Equal(t, "i1", img.Key())
	assert.Empty(t, img.PlainText())

	b3 := doc[3].(*TextBlock)
	assert.True(t, b3.IsListItem())
	assert.Equal(t, StyleNormal, b3.Style)
	assert.Equal(t, TypeSpan, b3.Children[0].Type)

	// 缺少children的文本块按长度0处理
	b4 := doc[4].(*TextBlock)
	assert.Equal(t, 0, b4.Len())

	assert.Equal(t, "AboutRacing since 2010Karting", doc.PlainText())
	assert.Equal(t, 29, doc.Len())
}

// TestDocumentEncode 输出保持Portable Text结构
func TestDocumentEncode(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(sampleBody), &doc))

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 5)

	assert.Equal(t, "block", out[1]["_type"])
	assert.Equal(t, "b2", out[1]["_key"])
	defs := out[1]["markDefs"].([]interface{})
	def := defs[0].(map[string]interface{})
	assert.Equal(t, "link", def["_type"])
	assert.Equal(t, true, def["blank"])

	assert.Equal(t, "image", out[2]["_type"])
	assert.NotNil(t, out[2]["asset"])

	// 缺失的数组输出为[]
	assert.Equal(t, []interface{}{}, out[4]["children"])
	assert.Equal(t, []interface{}{}, out[3]["markDefs"])
	span := out[3]["children"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, []interface{}{}, span["marks"])

	// 再次解码得到相同的文档
	var again Document
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, doc.PlainText(), again.PlainText())
	assert.Equal(t, doc.Keys(), again.Keys())
}

func TestDocumentDecodeNull(t *testing.T) {
	var wrapper struct {
		Body Document `json:"body"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"body": null}`), &wrapper))
	assert.Nil(t, wrapper.Body)

	err := json.Unmarshal([]byte(`{"body": {"_type": "block"}}`), &wrapper)
	assert.Error(t, err)
}
