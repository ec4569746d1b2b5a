package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"newsshorts/config"
)

// Composition is everything needed to encode one finished video.
type Composition struct {
	Audio      string
	Subtitles  string // ASS file burned into the frame
	Background string // still image; a black frame is used when empty or missing
	Duration   float64
	Output     string
}

// Encoder is the audio/video toolchain used by the renderer.
type Encoder interface {
	// SpeedUp writes in, played factor times faster, to out.
	SpeedUp(ctx context.Context, in, out string, factor float64) error
	// Duration returns the media duration in seconds.
	Duration(ctx context.Context, path string) (float64, error)
	// ConcatAudio joins inputs end to end into out.
	ConcatAudio(ctx context.Context, inputs []string, out string) error
	Compose(ctx context.Context, c Composition) error
}

// FFmpegEncoder drives the ffmpeg and ffprobe binaries.
type FFmpegEncoder struct {
	Width  int
	Height int
	FPS    int
}

func NewFFmpegEncoder(cfg config.VideoConfig) *FFmpegEncoder {
	e := &FFmpegEncoder{Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS}
	if e.Width <= 0 {
		e.Width = config.VideoWidth
	}
	if e.Height <= 0 {
		e.Height = config.VideoHeight
	}
	if e.FPS <= 0 {
		e.FPS = config.VideoFPS
	}
	return e
}

func (e *FFmpegEncoder) SpeedUp(ctx context.Context, in, out string, factor float64) error {
	stream := ffmpeg.Input(in).
		Audio().
		Filter("atempo", ffmpeg.Args{fmt.Sprintf("%.3f", factor)}).
		Output(out).
		OverWriteOutput()
	return run(ctx, stream)
}

func (e *FFmpegEncoder) Duration(ctx context.Context, path string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	probe, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	duration := gjson.Get(probe, "format.duration")
	if !duration.Exists() {
		return 0, fmt.Errorf("ffprobe %s: no duration", path)
	}
	return duration.Float(), nil
}

func (e *FFmpegEncoder) ConcatAudio(ctx context.Context, inputs []string, out string) error {
	if len(inputs) == 0 {
		return errors.New("concat: no inputs")
	}
	streams := make([]*ffmpeg.Stream, len(inputs))
	for i, in := range inputs {
		streams[i] = ffmpeg.Input(in).Audio()
	}
	stream := ffmpeg.Filter(streams, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{"n": len(inputs), "v": 0, "a": 1}).
		Output(out).
		OverWriteOutput()
	return run(ctx, stream)
}

func (e *FFmpegEncoder) Compose(ctx context.Context, c Composition) error {
	var background *ffmpeg.Stream
	if c.Background != "" && fileExists(c.Background) {
		background = ffmpeg.Input(c.Background, ffmpeg.KwArgs{"loop": 1, "framerate": e.FPS})
	} else {
		background = ffmpeg.Input(
			fmt.Sprintf("color=c=black:s=%dx%d:r=%d", e.Width, e.Height, e.FPS),
			ffmpeg.KwArgs{"f": "lavfi"},
		)
	}

	// Fill the 9:16 frame, then crop the overflow from the centre
	frame := background.
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", e.Width, e.Height)}, ffmpeg.KwArgs{"force_original_aspect_ratio": "increase"}).
		Filter("crop", ffmpeg.Args{fmt.Sprintf("%d:%d", e.Width, e.Height)})

	withSubs := frame.Filter("ass", ffmpeg.Args{filterPath(c.Subtitles)})
	audio := ffmpeg.Input(c.Audio)

	stream := ffmpeg.Output([]*ffmpeg.Stream{withSubs, audio}, c.Output, ffmpeg.KwArgs{
		"c:v":     config.VideoCodec,
		"c:a":     config.AudioCodec,
		"b:a":     config.AudioBitrate,
		"preset":  config.VideoPreset,
		"pix_fmt": "yuv420p",
		"r":       e.FPS,
		"t":       fmt.Sprintf("%.2f", c.Duration),
	}).OverWriteOutput()

	if err := os.MkdirAll(filepath.Dir(c.Output), 0o755); err != nil {
		return fmt.Errorf("create video dir: %w", err)
	}
	return run(ctx, stream)
}

// run executes the compiled ffmpeg command, killing it if ctx is cancelled.
func run(ctx context.Context, stream *ffmpeg.Stream) error {
	cmd := stream.Compile()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg failed to start: %w", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
		}
		return nil
	}
}

// filterPath escapes a path for use inside an ffmpeg filter argument.
func filterPath(path string) string {
	p := filepath.ToSlash(path)
	p = strings.ReplaceAll(p, ":", "\\:")
	return strings.ReplaceAll(p, "'", "\\'")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
