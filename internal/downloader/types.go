package downloader

import (
	"time"

	"vidgrab/internal/model"
)

// Info mirrors fields from yt-dlp --dump-json output that we care about.
type Info struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Uploader   string      `json:"uploader"`
	Duration   float64     `json:"duration"`
	ViewCount  int64       `json:"view_count"`
	WebpageURL string      `json:"webpage_url"`
	Formats    []RawFormat `json:"formats"`
}

// RawFormat is one entry of the formats array. Nullable numeric fields are
// pointers so "absent" and "zero" stay distinguishable.
type RawFormat struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	Height         *int     `json:"height"`
	VideoCodec     string   `json:"vcodec"`
	AudioCodec     string   `json:"acodec"`
	FileSize       *int64   `json:"filesize"`
	FileSizeApprox *float64 `json:"filesize_approx"`
	FormatNote     string   `json:"format_note"`
}

// VideoInfo converts the raw metadata to the model type.
func (i Info) VideoInfo() model.VideoInfo {
	return model.VideoInfo{
		ID:        i.ID,
		Title:     i.Title,
		Uploader:  i.Uploader,
		Duration:  time.Duration(i.Duration * float64(time.Second)),
		ViewCount: i.ViewCount,
		URL:       i.WebpageURL,
	}
}

// VideoFormatIDs returns the format ids that carry video only, for
// classifying downloaded elementary streams by file name.
func (i Info) VideoFormatIDs() map[string]bool {
	return i.formatIDs(func(f RawFormat) bool { return hasCodec(f.VideoCodec) && !hasCodec(f.AudioCodec) })
}

// MuxedFormatIDs returns the format ids that carry both video and audio.
func (i Info) MuxedFormatIDs() map[string]bool {
	return i.formatIDs(func(f RawFormat) bool { return hasCodec(f.VideoCodec) && hasCodec(f.AudioCodec) })
}

// AudioFormatIDs returns the format ids that carry audio only.
func (i Info) AudioFormatIDs() map[string]bool {
	return i.formatIDs(func(f RawFormat) bool { return !hasCodec(f.VideoCodec) && hasCodec(f.AudioCodec) })
}

func (i Info) formatIDs(keep func(RawFormat) bool) map[string]bool {
	ids := make(map[string]bool)
	for _, f := range i.Formats {
		if f.FormatID != "" && keep(f) {
			ids[f.FormatID] = true
		}
	}
	return ids
}

func hasCodec(c string) bool {
	return c != "" && c != "none" && c != "NA"
}
