package util

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShellQuote(t *testing.T) {
	got := ShellQuote("yt-dlp", []string{"-f", "bestvideo[height=720]+bestaudio/best", "--add-header", "Referer:https://www.bilibili.com", ""})
	want := "yt-dlp -f 'bestvideo[height=720]+bestaudio/best' --add-header Referer:https://www.bilibili.com ''"
	if got != want {
		t.Errorf("ShellQuote = %q\nwant %q", got, want)
	}
}

func TestSplitCRLF(t *testing.T) {
	in := "[download]   1.0%\r[download]   2.0%\rline two\nlast"
	sc := bufio.NewScanner(strings.NewReader(in))
	sc.Split(splitCRLF)
	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	want := []string{"[download]   1.0%", "[download]   2.0%", "line two", "last"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("tokens = %q, want %q", got, want)
	}
}

func TestRunStreamsLines(t *testing.T) {
	var lines []string
	res, err := NewDefaultRunner().Run(context.Background(), CmdSpec{
		Path:          "/bin/sh",
		Args:          []string{"-c", "printf 'a\\nb\\n'; echo oops >&2"},
		StdoutLine:    func(s string) { lines = append(lines, s) },
		CaptureStdout: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Join(lines, ",") != "a,b" {
		t.Errorf("stdout lines = %q", lines)
	}
	if string(res.Stdout) != "a\nb\n" {
		t.Errorf("captured stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(string(res.Stderr)) != "oops" {
		t.Errorf("captured stderr = %q", res.Stderr)
	}
}

func TestRunExitCode(t *testing.T) {
	res, err := Run(context.Background(), CmdSpec{Path: "/bin/sh", Args: []string{"-c", "exit 3"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Code != 3 {
		t.Errorf("code = %d, want 3", res.Code)
	}
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), CmdSpec{
		Path:    "/bin/sh",
		Args:    []string{"-c", "exec sleep 5"},
		Timeout: 100 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatal("process was not killed on timeout")
	}
}
