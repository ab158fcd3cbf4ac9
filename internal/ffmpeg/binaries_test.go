package ffmpeg

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func noLookPath(string) (string, error) {
	return "", errors.New("not found")
}

func TestLookupPrefersConfiguredThenEnv(t *testing.T) {
	t.Setenv(ffmpegEnv, "/env/ffmpeg")
	t.Setenv(ffprobeEnv, "/env/ffprobe")

	got := lookup(BinaryPaths{FFmpeg: "/cfg/ffmpeg"}, noLookPath)
	if got.FFmpeg != "/cfg/ffmpeg" {
		t.Errorf("FFmpeg = %q, want configured path", got.FFmpeg)
	}
	if got.FFprobe != "/env/ffprobe" {
		t.Errorf("FFprobe = %q, want env path", got.FFprobe)
	}
}

func TestLookupFallsBackToPath(t *testing.T) {
	t.Setenv(ffmpegEnv, "")
	t.Setenv(ffprobeEnv, "")

	got := lookup(BinaryPaths{}, func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	})
	if got != (BinaryPaths{FFmpeg: "/usr/bin/ffmpeg", FFprobe: "/usr/bin/ffprobe"}) {
		t.Errorf("lookup = %+v", got)
	}
}

func TestResolveSkipsDownloadWhenComplete(t *testing.T) {
	t.Setenv(ffmpegEnv, "")
	t.Setenv(ffprobeEnv, "")

	want := BinaryPaths{FFmpeg: "/a/ffmpeg", FFprobe: "/b/ffprobe"}
	got, err := resolve(want, noLookPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != want {
		t.Errorf("resolve = %+v, want %+v", got, want)
	}
}

func TestAssetForPlatform(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{"linux", "amd64", "ffmpeg-6.1-linux-64.zip", false},
		{"linux", "arm64", "ffmpeg-6.1-linux-arm-64.zip", false},
		{"darwin", "amd64", "ffmpeg-6.1-macos-64.zip", false},
		{"windows", "amd64", "ffmpeg-6.1-win-64.zip", false},
		{"plan9", "386", "", true},
	}

	for _, tt := range tests {
		got, err := assetForPlatform(tt.goos, tt.goarch)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedPlatform) {
				t.Errorf("%s/%s: got %v, want ErrUnsupportedPlatform", tt.goos, tt.goarch, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%s/%s = %q, %v", tt.goos, tt.goarch, got, err)
		}
	}
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, body := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractArchive(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"bin/ffmpeg":  "ffmpeg-binary",
		"bin/FFPROBE": "ffprobe-binary",
		"README.txt":  "docs",
	})
	installDir := t.TempDir()

	if err := extractArchive(archive, installDir); err != nil {
		t.Fatalf("extractArchive: %v", err)
	}

	paths := BinaryPaths{
		FFmpeg:  filepath.Join(installDir, "ffmpeg"+executableSuffix()),
		FFprobe: filepath.Join(installDir, "ffprobe"+executableSuffix()),
	}
	if !binariesExist(paths) {
		t.Fatal("binaries not extracted")
	}
	if err := makeExecutable(paths); err != nil {
		t.Fatalf("makeExecutable: %v", err)
	}
	if _, err := os.Stat(filepath.Join(installDir, "README.txt")); !os.IsNotExist(err) {
		t.Error("unrelated entries must not be extracted")
	}
}

func TestExtractArchiveMissingBinary(t *testing.T) {
	archive := writeZip(t, map[string]string{"ffmpeg.exe": "x"})
	if err := extractArchive(archive, t.TempDir()); err == nil {
		t.Error("expected error for bundle without ffprobe")
	}
}

func TestConfigureResetsResolution(t *testing.T) {
	Configure(BinaryPaths{FFmpeg: "/pinned/ffmpeg", FFprobe: "/pinned/ffprobe"})
	t.Cleanup(func() { Configure(BinaryPaths{}) })

	path, err := FFmpegPath()
	if err != nil || path != "/pinned/ffmpeg" {
		t.Errorf("FFmpegPath = %q, %v", path, err)
	}
	path, err = FFprobePath()
	if err != nil || path != "/pinned/ffprobe" {
		t.Errorf("FFprobePath = %q, %v", path, err)
	}
}
