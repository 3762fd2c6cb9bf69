package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		raw  string
		want Platform
	}{
		{"https://www.youtube.com/watch?v=abc123", YouTube},
		{"https://youtu.be/abc123", YouTube},
		{"https://m.youtube.com/watch?v=abc", YouTube},
		{"https://www.bilibili.com/video/BV1xx411c7mD", Bilibili},
		{"https://b23.tv/xyz", Bilibili},
		{"https://vimeo.com/123", Unknown},
		{"", Unknown},
		{"not a url", Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.raw), tt.raw)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "youtube drops playlist params",
			raw:  "https://www.youtube.com/watch?v=abc123&list=XYZ&index=2",
			want: "https://www.youtube.com/watch?v=abc123",
		},
		{
			name: "youtube without www is rebuilt",
			raw:  "http://youtube.com/watch?v=a_b-C",
			want: "https://www.youtube.com/watch?v=a_b-C",
		},
		{
			name: "youtu.be kept as matched",
			raw:  "https://youtu.be/abc123?t=10",
			want: "https://youtu.be/abc123",
		},
		{
			name: "bilibili BV drops query",
			raw:  "https://www.bilibili.com/video/BV1xx411c7mD?p=2&t=30",
			want: "https://www.bilibili.com/video/BV1xx411c7mD",
		},
		{
			name: "bilibili av",
			raw:  "https://www.bilibili.com/video/av170001/?spm=x",
			want: "https://www.bilibili.com/video/av170001/",
		},
		{
			name: "bilibili keeps sub-path",
			raw:  "https://www.bilibili.com/video/BV1xx411c7mD/p2?spm_id_from=333",
			want: "https://www.bilibili.com/video/BV1xx411c7mD/p2",
		},
		{
			name: "b23 short link",
			raw:  "https://b23.tv/AbCd12?share=1",
			want: "https://b23.tv/AbCd12",
		},
		{
			name: "url inside pasted text",
			raw:  "look at this https://www.bilibili.com/video/BV1xx411c7mD?p=1 wow",
			want: "https://www.bilibili.com/video/BV1xx411c7mD",
		},
		{
			name: "unknown platform unchanged",
			raw:  "https://vimeo.com/123?x=1",
			want: "https://vimeo.com/123?x=1",
		},
		{
			name: "known platform without a video unchanged",
			raw:  "https://www.youtube.com/feed/trending",
			want: "https://www.youtube.com/feed/trending",
		},
		{name: "empty", raw: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
			// Normalizing twice changes nothing.
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate("https://www.youtube.com/watch?v=abc"))
	assert.True(t, Validate("https://b23.tv/abc"))
	assert.False(t, Validate("https://www.youtube.com/feed/trending"))
	assert.False(t, Validate("https://vimeo.com/1"))
	assert.False(t, Validate(""))
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=abc123&list=x", "abc123", true},
		{"https://youtu.be/xyz", "xyz", true},
		{"https://www.bilibili.com/video/BV1xx411c7mD?p=2", "BV1xx411c7mD", true},
		{"https://www.bilibili.com/video/av170001", "av170001", true},
		{"https://b23.tv/AbCd12", "", false},
		{"https://vimeo.com/1", "", false},
	}
	for _, tt := range tests {
		got, ok := VideoID(tt.raw)
		assert.Equal(t, tt.wantOK, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
