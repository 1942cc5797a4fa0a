package richtext

import "unicode/utf8"

// 切分后两半块的key后缀
const (
	BeforeKeySuffix = "_a"
	AfterKeySuffix  = "_b"
)

// SplitResult 切分结果
// Before 总是显示，After 可折叠（"阅读更多"）
type SplitResult struct {
	Before Document `json:"before"`
	After  Document `json:"after"`
}

// HasMore 是否存在折叠部分
func (r SplitResult) HasMore() bool {
	return len(r.After) > 0
}

// Split 按可见字符数将文档切分为前后两部分
// 字符按Unicode码点计数。输入文档不会被修改，两部分拼接后的扁平文本与原文档完全一致。
func Split(doc Document, maxChars int) SplitResult {
	if maxChars < 0 {
		maxChars = 0
	}

	if doc.Len() <= maxChars {
		if doc == nil {
			doc = Document{}
		}
		return SplitResult{Before: doc, After: Document{}}
	}

	before := make(Document, 0, len(doc))
	acc := 0
	for i, block := range doc {
		n := blockLen(block)
		if acc+n <= maxChars {
			before = append(before, block)
			acc += n
			continue
		}

		// 第一个放不下的块
		offset := maxChars - acc
		tb, ok := block.(*TextBlock)
		if offset == 0 || !ok || len(tb.Children) == 0 {
			return SplitResult{Before: before, After: append(Document{}, doc[i:]...)}
		}

		headKey := freshKey(tb.BlockKey+BeforeKeySuffix, BeforeKeySuffix, before)
		tailKey := freshKey(tb.BlockKey+AfterKeySuffix, AfterKeySuffix, doc[i+1:])
		head, tail := splitBlock(tb, offset, headKey, tailKey)
		before = append(before, head)

		after := make(Document, 0, len(doc)-i)
		if tail != nil {
			after = append(after, tail)
		}
		after = append(after, doc[i+1:]...)
		return SplitResult{Before: before, After: after}
	}

	// 正常情况下不会走到这里
	return SplitResult{Before: before, After: Document{}}
}

// splitBlock 在块内第offset个字符处切分
// 前半块总是返回；后半块没有span时返回nil
func splitBlock(tb *TextBlock, offset int, headKey, tailKey string) (*TextBlock, *TextBlock) {
	var beforeSpans, afterSpans []Span
	acc := 0
	for _, span := range tb.Children {
		if acc >= offset {
			afterSpans = append(afterSpans, span)
			continue
		}

		n := utf8.RuneCountInString(span.Text)
		if acc+n <= offset {
			beforeSpans = append(beforeSpans, span)
			acc += n
			continue
		}

		left, right := cutSpan(span, offset-acc)
		beforeSpans = append(beforeSpans, left)
		if right.Text != "" {
			afterSpans = append(afterSpans, right)
		}
		acc = offset
	}

	if beforeSpans == nil {
		beforeSpans = []Span{}
	}
	head := tb.withChildren(headKey, beforeSpans)
	if len(afterSpans) == 0 {
		return head, nil
	}
	return head, tb.withChildren(tailKey, afterSpans)
}

// freshKey 保证key在同一文档内不与其它块重复
func freshKey(key, suffix string, others Document) string {
	for {
		taken := false
		for _, b := range others {
			if b.Key() == key {
				taken = true
				break
			}
		}
		if !taken {
			return key
		}
		key += suffix
	}
}

// cutSpan 在第cut个字符处把span切成两段，两段保留相同的marks
func cutSpan(span Span, cut int) (Span, Span) {
	idx := byteOffset(span.Text, cut)

	left := span
	left.Text = span.Text[:idx]
	left.Marks = cloneMarks(span.Marks)

	right := span
	right.Text = span.Text[idx:]
	right.Marks = cloneMarks(span.Marks)

	return left, right
}

// byteOffset 返回第n个字符对应的字节下标
func byteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

func cloneMarks(marks []string) []string {
	if marks == nil {
		return nil
	}
	out := make([]string, len(marks))
	copy(out, marks)
	return out
}
