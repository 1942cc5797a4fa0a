// Package schedule 处理赛程日期的展示和打印版赛程表
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// civilDate 不带时区的日历日期
type civilDate struct {
	Year  int
	Month int
	Day   int
}

// parseDate 解析 YYYY-MM-DD，月和日允许不补零
func parseDate(s string) (civilDate, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return civilDate{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return civilDate{}, false
		}
		nums[i] = n
	}

	d := civilDate{Year: nums[0], Month: nums[1], Day: nums[2]}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if t.Year() != d.Year || int(t.Month()) != d.Month || t.Day() != d.Day {
		return civilDate{}, false
	}
	return d, true
}

func (d civilDate) monthName() string {
	return monthNames[d.Month-1]
}

// FormatDate 把 YYYY-MM-DD 格式化为 "Mar 4, 2026"
// 无法解析时原样返回
func FormatDate(s string) string {
	d, ok := parseDate(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%s %d, %d", d.monthName(), d.Day, d.Year)
}

// FormatDateRange 格式化日期区间
//
//	同一天       Mar 4, 2026
//	同年同月     Mar 4 - 8, 2026
//	同年不同月   Nov 30 - Dec 2, 2026
//	跨年         Dec 30, 2025 - Jan 2, 2026
//
// 结束日期缺失或无法解析时按单日处理；开始日期无法解析时原样拼接
func FormatDateRange(start, end string) string {
	s, ok := parseDate(start)
	if !ok {
		if end == "" || end == start {
			return start
		}
		return start + " - " + end
	}
	e, ok := parseDate(end)
	if !ok {
		return FormatDate(start)
	}

	switch {
	case s == e:
		return fmt.Sprintf("%s %d, %d", s.monthName(), s.Day, s.Year)
	case s.Year == e.Year && s.Month == e.Month:
		return fmt.Sprintf("%s %d - %d, %d", s.monthName(), s.Day, e.Day, s.Year)
	case s.Year == e.Year:
		return fmt.Sprintf("%s %d - %s %d, %d", s.monthName(), s.Day, e.monthName(), e.Day, s.Year)
	default:
		return fmt.Sprintf("%s %d, %d - %s %d, %d", s.monthName(), s.Day, s.Year, e.monthName(), e.Day, e.Year)
	}
}

// FormatTimestamp 格式化新闻日期，接受 RFC3339 时间或纯日期
func FormatTimestamp(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("Jan 2, 2006")
	}
	return FormatDate(s)
}
