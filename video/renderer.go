package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"newsshorts/config"
	"newsshorts/logger"
	"newsshorts/retry"
	"newsshorts/tts"
)

// ErrNothingToRender is returned when there is no narration text.
var ErrNothingToRender = errors.New("video: nothing to render")

// Clip is one narrated piece of the final video.
type Clip struct {
	Text  string
	Audio string
	Start float64
	End   float64
}

// Render describes a finished video.
type Render struct {
	Path     string
	Duration float64
	Clips    []Clip
}

// Renderer narrates text, lays captions over the background and encodes
// a vertical video.
type Renderer struct {
	narrator tts.Narrator
	encoder  Encoder
	cfg      config.VideoConfig
	speedup  float64
	policy   retry.Policy
	log      logrus.FieldLogger
}

func NewRenderer(narrator tts.Narrator, encoder Encoder, cfg config.VideoConfig, speedup float64, policy retry.Policy, log logrus.FieldLogger) *Renderer {
	if cfg.Width <= 0 {
		cfg.Width = config.VideoWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = config.VideoHeight
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = config.DefaultFontSize
	}
	if cfg.Font == "" {
		cfg.Font = config.DefaultFont
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Renderer{
		narrator: narrator,
		encoder:  encoder,
		cfg:      cfg,
		speedup:  speedup,
		policy:   policy,
		log:      logger.OrDiscard(log),
	}
}

// RenderSegments narrates each segment in order and shows it as a caption
// in the right half of the frame while it plays.
func (r *Renderer) RenderSegments(ctx context.Context, segments []string, language, audioDir, outPath string) (*Render, error) {
	return r.render(ctx, segments, language, audioDir, outPath, LayoutRightHalf)
}

// RenderSummary narrates one paragraph with a centred caption.
func (r *Renderer) RenderSummary(ctx context.Context, text, language, audioDir, outPath string) (*Render, error) {
	if text == "" {
		return nil, ErrNothingToRender
	}
	return r.render(ctx, []string{text}, language, audioDir, outPath, LayoutCentered)
}

func (r *Renderer) render(ctx context.Context, texts []string, language, audioDir, outPath string, layout Layout) (*Render, error) {
	if len(texts) == 0 {
		return nil, ErrNothingToRender
	}
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	log := r.log.WithFields(logrus.Fields{"language": language, "output": outPath})
	log.Infof("Narrating %d segment(s)", len(texts))

	clips, err := r.narrateAll(ctx, texts, language, audioDir)
	if err != nil {
		return nil, err
	}

	var offset float64
	audio := make([]string, len(clips))
	captions := make([]Caption, len(clips))
	for i := range clips {
		clips[i].Start += offset
		clips[i].End += offset
		offset = clips[i].End
		audio[i] = clips[i].Audio
		captions[i] = Caption{Text: clips[i].Text, Start: clips[i].Start, End: clips[i].End}
	}

	narration := audio[0]
	if len(audio) > 1 {
		narration = filepath.Join(audioDir, "narration.mp3")
		if err := r.encoder.ConcatAudio(ctx, audio, narration); err != nil {
			return nil, fmt.Errorf("concat narration: %w", err)
		}
	}

	subtitles := filepath.Join(audioDir, "captions.ass")
	style := captionStyle{
		Font:      r.cfg.Font,
		FontSize:  r.cfg.FontSize,
		TextColor: r.cfg.TextColor,
		Width:     r.cfg.Width,
		Height:    r.cfg.Height,
	}
	if err := writeASSFile(subtitles, captions, layout, style); err != nil {
		return nil, fmt.Errorf("write captions: %w", err)
	}

	duration := offset + config.VideoEndPadding
	log.WithField("duration", fmt.Sprintf("%.1fs", duration)).Info("Encoding video")
	err = r.encoder.Compose(ctx, Composition{
		Audio:      narration,
		Subtitles:  subtitles,
		Background: r.cfg.BackgroundImage,
		Duration:   duration,
		Output:     outPath,
	})
	if err != nil {
		return nil, fmt.Errorf("compose video: %w", err)
	}

	log.Info("✓ Video rendered")
	return &Render{Path: outPath, Duration: duration, Clips: clips}, nil
}

// narrateAll narrates every text into its own slot so the clip order always
// matches the text order, whatever order the workers finish in. Clip times
// are relative to the clip itself.
func (r *Renderer) narrateAll(parent context.Context, texts []string, language, audioDir string) ([]Clip, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	clips := make([]Clip, len(texts))
	errs := make([]error, len(texts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(r.cfg.Workers, len(texts)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				clip, err := r.narrate(ctx, i, texts[i], language, audioDir)
				if err != nil {
					errs[i] = err
					cancel()
					continue
				}
				clips[i] = clip
			}
		}()
	}

	for i := range texts {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	// Report the failure that triggered the cancel, not the workers it stopped
	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		err = fmt.Errorf("segment %d: %w", i, err)
		if first == nil || (errors.Is(first, context.Canceled) && !errors.Is(err, context.Canceled)) {
			first = err
		}
	}
	if first != nil {
		return nil, first
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return clips, nil
}

func (r *Renderer) narrate(ctx context.Context, i int, text, language, audioDir string) (Clip, error) {
	path := filepath.Join(audioDir, fmt.Sprintf("seg_%02d.mp3", i))
	err := r.policy.Run(ctx, fmt.Sprintf("narrate segment %d", i), func(ctx context.Context) error {
		return r.narrator.Narrate(ctx, text, language, path)
	})
	if err != nil {
		return Clip{}, err
	}

	if r.speedup > 0 && r.speedup != 1 {
		fast := filepath.Join(audioDir, fmt.Sprintf("seg_%02d_fast.mp3", i))
		if err := r.encoder.SpeedUp(ctx, path, fast, r.speedup); err != nil {
			return Clip{}, fmt.Errorf("speed up: %w", err)
		}
		path = fast
	}

	duration, err := r.encoder.Duration(ctx, path)
	if err != nil {
		return Clip{}, err
	}
	r.log.WithFields(logrus.Fields{"segment": i, "duration": duration}).Debug("Segment narrated")
	return Clip{Text: text, Audio: path, End: duration}, nil
}
