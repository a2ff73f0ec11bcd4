// Package ffmpegcmd locates the ffmpeg/ffprobe binaries and builds their
// argument vectors. It never runs anything itself.
package ffmpegcmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = errors.New("ffmpegcmd: ffmpeg not found")

	// ErrFFprobeNotFound is returned when ffprobe cannot be located.
	ErrFFprobeNotFound = errors.New("ffmpegcmd: ffprobe not found")
)

// Binaries holds resolved executable paths.
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

// Resolve locates both binaries. Empty custom paths fall back to the
// environment, PATH and common install locations.
func Resolve(customFFmpeg, customFFprobe string) (Binaries, error) {
	ffmpegPath, err := FindFFmpeg(customFFmpeg)
	if err != nil {
		return Binaries{}, err
	}
	ffprobePath, err := FindFFprobe(customFFprobe)
	if err != nil {
		return Binaries{}, err
	}
	return Binaries{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg("")
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) custom, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg(custom string) (string, error) {
	return find("ffmpeg", custom, "FFMPEG_PATH", ErrFFmpegNotFound)
}

// FindFFprobe searches for ffprobe the same way, using FFPROBE_PATH.
func FindFFprobe(custom string) (string, error) {
	return find("ffprobe", custom, "FFPROBE_PATH", ErrFFprobeNotFound)
}

func find(name, custom, envVar string, notFound error) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", notFound, custom)
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: %s %s not found", notFound, envVar, envPath)
	}

	execName := name
	if runtime.GOOS == "windows" {
		execName = name + ".exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	for _, p := range commonPaths(execName) {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}

func commonPaths(execName string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin\` + execName,
			`C:\Program Files\ffmpeg\bin\` + execName,
			`C:\Program Files (x86)\ffmpeg\bin\` + execName,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin/" + execName,
			"/usr/local/bin/" + execName,
			"/usr/bin/" + execName,
		}
	default:
		return []string{
			"/usr/bin/" + execName,
			"/usr/local/bin/" + execName,
			"/snap/bin/" + execName,
		}
	}
}
