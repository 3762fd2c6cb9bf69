// Package engine picks the per-site extraction profile for a normalized URL.
package engine

import (
	"vidgrab/internal/model"
	"vidgrab/internal/platform"
)

// Header is one HTTP header forwarded to the extraction tool.
type Header = model.Header

// Profile describes how to drive the extraction tool for one site.
type Profile struct {
	Platform platform.Platform
	Name     string
	Headers  []Header
	// ListingHeaders means Headers are also sent on metadata-only queries.
	ListingHeaders bool
	// Fallback is set when the URL matched no known site and the YouTube
	// profile was chosen anyway.
	Fallback bool
}

const (
	bilibiliReferer   = "https://www.bilibili.com"
	desktopUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	youtubeEngineName = "youtube"
)

// YouTubeProfile needs no extra headers.
func YouTubeProfile() Profile {
	return Profile{Platform: platform.YouTube, Name: youtubeEngineName}
}

// BilibiliProfile sends a site referer and a desktop user agent on every request.
func BilibiliProfile() Profile {
	return Profile{
		Platform: platform.Bilibili,
		Name:     "bilibili",
		Headers: []Header{
			{Name: "Referer", Value: bilibiliReferer},
			{Name: "User-Agent", Value: desktopUserAgent},
		},
		ListingHeaders: true,
	}
}

// Select returns the profile for url. Unrecognized URLs get the YouTube
// profile with Fallback set; callers are expected to surface that.
func Select(url string) Profile {
	switch platform.Detect(url) {
	case platform.YouTube:
		return YouTubeProfile()
	case platform.Bilibili:
		return BilibiliProfile()
	default:
		p := YouTubeProfile()
		p.Fallback = true
		return p
	}
}

// HeaderArgs renders the profile headers as repeated --add-header flags.
// listing selects the metadata-only query variant.
func (p Profile) HeaderArgs(listing bool) []string {
	if listing && !p.ListingHeaders {
		return nil
	}
	args := make([]string, 0, 2*len(p.Headers))
	for _, h := range p.Headers {
		args = append(args, "--add-header", h.Arg())
	}
	return args
}
