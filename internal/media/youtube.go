// Package media 处理视频区块使用的外部视频链接
package media

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// YouTubeID 从各种形式的YouTube链接中提取视频ID
// 支持 watch?v=、youtu.be/、/embed/、/shorts/、/live/、/v/，无法识别时返回空串
func YouTubeID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = segments[0]
	case "youtube.com", "youtube-nocookie.com", "music.youtube.com":
		if segments[0] == "watch" {
			id = u.Query().Get("v")
		} else if len(segments) >= 2 {
			switch segments[0] {
			case "embed", "shorts", "live", "v":
				id = segments[1]
			}
		}
	}

	if !videoIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// YouTubeThumbnail 视频缩略图地址
func YouTubeThumbnail(id string) string {
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}

// YouTubeEmbedURL 视频嵌入地址
func YouTubeEmbedURL(id string) string {
	return "https://www.youtube.com/embed/" + id
}
