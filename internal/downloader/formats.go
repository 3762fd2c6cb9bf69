package downloader

import (
	"context"
	"fmt"
	"sort"

	"vidgrab/internal/engine"
	"vidgrab/internal/model"
)

// SelectFormats reduces yt-dlp's format list to one entry per resolution.
// Entries without a height or without video are dropped; the first entry
// seen for a height wins; the result is ordered tallest first.
func SelectFormats(raw []RawFormat) []model.VideoFormat {
	seen := make(map[int]bool)
	var out []model.VideoFormat
	for _, f := range raw {
		if f.Height == nil || f.VideoCodec == "none" {
			continue
		}
		h := *f.Height
		if seen[h] {
			continue
		}
		seen[h] = true

		var size int64
		if f.FileSize != nil {
			size = *f.FileSize
		}
		vcodec := f.VideoCodec
		if vcodec == "" {
			vcodec = "unknown"
		}
		out = append(out, model.VideoFormat{
			FormatID:   f.FormatID,
			Height:     h,
			Ext:        f.Ext,
			Quality:    fmt.Sprintf("%dp", h),
			FileSize:   size,
			VideoCodec: vcodec,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Height > out[j].Height })
	return out
}

// ListFormats fetches metadata for url and returns its selectable resolutions.
func ListFormats(ctx context.Context, url string, profile engine.Profile, opts Options) ([]model.VideoFormat, error) {
	info, err := FetchInfo(ctx, url, profile, opts)
	if err != nil {
		return nil, err
	}
	return SelectFormats(info.Formats), nil
}
