// Package platform classifies and normalizes video page URLs.
package platform

import (
	"regexp"
	"strings"
)

// Platform is the video site a URL belongs to.
type Platform string

const (
	YouTube  Platform = "youtube"
	Bilibili Platform = "bilibili"
	Unknown  Platform = "unknown"
)

func (p Platform) String() string { return string(p) }

// Known reports whether p is a supported site.
func (p Platform) Known() bool { return p == YouTube || p == Bilibili }

var (
	youtubeWatch = regexp.MustCompile(`https?://(?:www\.)?youtube\.com/watch\?v=([\w-]+)`)
	youtubeShort = regexp.MustCompile(`https?://(?:www\.)?youtu\.be/([\w-]+)`)

	// Bilibili matches keep a trailing slash or sub-path and stop at the query.
	bilibiliBV    = regexp.MustCompile(`https?://(?:www\.)?bilibili\.com/video/(BV[\w]+)/?[^\s?"]*`)
	bilibiliAV    = regexp.MustCompile(`https?://(?:www\.)?bilibili\.com/video/(av\d+)/?[^\s?"]*`)
	bilibiliShort = regexp.MustCompile(`https?://b23\.tv/([\w]+)/?[^\s?"]*`)
)

// Detect classifies raw by substring match. Anything unrecognized,
// including the empty string, is Unknown.
func Detect(raw string) Platform {
	switch {
	case strings.Contains(raw, "youtube.com"), strings.Contains(raw, "youtu.be"):
		return YouTube
	case strings.Contains(raw, "bilibili.com"), strings.Contains(raw, "b23.tv"):
		return Bilibili
	default:
		return Unknown
	}
}

// Normalize strips everything but the canonical video reference from raw.
// YouTube watch URLs are rebuilt as https://www.youtube.com/watch?v=<id>;
// short links and Bilibili URLs keep the matched prefix with the query dropped.
// The first match wins, so a URL pasted inside a sentence is still found.
// Input that matches no pattern is returned unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	switch Detect(raw) {
	case YouTube:
		if m := youtubeWatch.FindStringSubmatch(raw); m != nil {
			return "https://www.youtube.com/watch?v=" + m[1]
		}
		if m := youtubeShort.FindString(raw); m != "" {
			return m
		}
	case Bilibili:
		for _, re := range []*regexp.Regexp{bilibiliBV, bilibiliAV, bilibiliShort} {
			if m := re.FindString(raw); m != "" {
				return m
			}
		}
	}
	return raw
}

// Validate reports whether raw is a recognizable video URL on a known platform.
func Validate(raw string) bool {
	switch Detect(raw) {
	case YouTube:
		return youtubeWatch.MatchString(raw) || youtubeShort.MatchString(raw)
	case Bilibili:
		return bilibiliBV.MatchString(raw) || bilibiliAV.MatchString(raw) || bilibiliShort.MatchString(raw)
	default:
		return false
	}
}

// VideoID extracts the site's video identifier. b23.tv short links
// carry no id until resolved, so they report false.
func VideoID(raw string) (string, bool) {
	var patterns []*regexp.Regexp
	switch Detect(raw) {
	case YouTube:
		patterns = []*regexp.Regexp{youtubeWatch, youtubeShort}
	case Bilibili:
		patterns = []*regexp.Regexp{bilibiliBV, bilibiliAV}
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}
