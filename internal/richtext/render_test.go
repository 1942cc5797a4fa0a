package richtext

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fyerfyer/motorsport-site/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRenderBlocks 测试块、标记和列表的渲染
func TestRenderBlocks(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(sampleBody), &doc))

	out, err := BioStyles().Render(doc)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `<h2 class="text-2xl font-bold text-white mb-3">About</h2>`)
	assert.Contains(t, html, `<strong class="font-bold text-white">Racing since </strong>`)
	assert.Contains(t, html, `<a class="text-primary-red hover:underline" href="https://example.com" rel="noopener noreferrer" target="_blank">2010</a>`)
	assert.Contains(t, html, `<ul class="list-disc list-inside text-gray-300 mb-4"><li>Karting</li></ul>`)
	assert.NotContains(t, html, "image-abc")
}

func TestRenderGroupsListItems(t *testing.T) {
	doc := Document{
		&TextBlock{BlockKey: "1", ListItem: ListNumber, Level: 1, Children: []Span{plain("one")}},
		&TextBlock{BlockKey: "2", ListItem: ListNumber, Level: 1, Children: []Span{plain("two")}},
		&TextBlock{BlockKey: "3", ListItem: ListBullet, Level: 1, Children: []Span{plain("dot")}},
		paragraph("4", plain("after")),
	}

	out, err := LegalStyles().Render(doc)
	require.NoError(t, err)
	html := string(out)

	assert.Equal(t, 1, strings.Count(html, "<ol"))
	assert.Contains(t, html, "<li>one</li><li>two</li></ol>")
	assert.Contains(t, html, "<li>dot</li></ul>")
	assert.True(t, strings.HasSuffix(html, "after</p>"))
}

func TestRenderEscapesAndLinks(t *testing.T) {
	doc := Document{
		&TextBlock{
			BlockKey: "p",
			Style:    "unknown-style",
			MarkDefs: []MarkDef{{Key: "bad", Type: "link", Href: "javascript:alert(1)"}},
			Children: []Span{
				marked("<script>", "bad"),
				plain("line\nbreak"),
			},
		},
	}

	out, err := BioStyles().Render(doc)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, "line<br/>break")
	assert.True(t, strings.HasPrefix(html, `<p class="text-gray-300 leading-relaxed mb-4">`))
}

// TestRenderSplitHalves 切分后的两部分都能独立渲染
func TestRenderSplitHalves(t *testing.T) {
	doc := Document{paragraph("p", marked("Hello ", "strong"), plain("World"))}
	result := Split(doc, 8)

	before, err := BioStyles().Render(result.Before)
	require.NoError(t, err)
	after, err := BioStyles().Render(result.After)
	require.NoError(t, err)
	assert.Contains(t, string(before), "<strong class=\"font-bold text-white\">Hello </strong>Wo</p>")
	assert.Contains(t, string(after), ">rld</p>")
}

func TestMemo(t *testing.T) {
	c, err := cache.NewMemoryCache(cache.Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	require.NoError(t, err)
	memo := NewMemo(c, time.Minute)

	doc := Document{
		paragraph("a", plain("abcdef")),
		&ObjectBlock{BlockKey: "img", BlockType: "image", Raw: json.RawMessage(`{"_type":"image","_key":"img"}`)},
		paragraph("b", marked("ghij", "em")),
	}

	first := memo.Split(doc, 8)
	second := memo.Split(doc, 8)
	assert.Equal(t, Split(doc, 8).Before.Keys(), second.Before.Keys())
	assert.Equal(t, first.After.PlainText(), second.After.PlainText())
	assert.Equal(t, []string{"b_b"}, second.After.Keys())

	// 不同的上限使用不同的缓存项
	third := memo.Split(doc, 100)
	assert.False(t, third.HasMore())

	// 没有缓存时直接计算
	var nilMemo *Memo
	assert.Equal(t, "abcdefgh", nilMemo.Split(doc, 8).Before.PlainText())

	fp1, err := Fingerprint(doc)
	require.NoError(t, err)
	fp2, err := Fingerprint(Document{paragraph("a", plain("abcdeX"))})
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)
}
