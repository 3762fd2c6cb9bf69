package merger

// BuildMergeArgs constructs ffmpeg arguments that multiplex the first video
// stream of videoPath with the first audio stream of audioPath. Video is
// always stream-copied; audioCodec is "aac" (re-encode) or "copy".
func BuildMergeArgs(videoPath, audioPath, outPath, audioCodec string, includeProgress bool) []string {
	if audioCodec == "" {
		audioCodec = "aac"
	}
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", audioCodec,
	}
	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	return append(args, outPath)
}

// BuildProbeArgs constructs ffprobe arguments listing stream kinds as JSON.
func BuildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "stream=codec_type",
		"-of", "json",
		path,
	}
}
