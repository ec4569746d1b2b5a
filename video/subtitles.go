package video

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"newsshorts/config"
)

// Layout decides where captions sit in the frame.
type Layout int

const (
	// LayoutRightHalf puts captions in the right half, slightly above centre.
	LayoutRightHalf Layout = iota
	// LayoutCentered spans the frame width with a 40px margin on each side.
	LayoutCentered
)

// Caption is one timed block of on-screen text.
type Caption struct {
	Text  string
	Start float64
	End   float64
}

type captionStyle struct {
	Font      string
	FontSize  int
	TextColor string
	Width     int
	Height    int
}

var cuePattern = regexp.MustCompile(`\[[A-Za-z][A-Za-z ]*\]`)

// stripCues removes bracketed delivery cues such as [sigh] from on-screen text.
func stripCues(text string) string {
	return strings.Join(strings.Fields(cuePattern.ReplaceAllString(text, "")), " ")
}

// box returns the caption anchor, the alignment tag and the usable text width.
func (l Layout) box(width, height int) (x, y, align, textWidth int) {
	if l == LayoutCentered {
		return width / 2, height / 2, 5, width - 80
	}
	return width/2 + 20, height/2 - 100, 4, width/2 - 40
}

// maxChars estimates how many characters fit on one line at fontSize.
func maxChars(textWidth, fontSize int) int {
	if fontSize <= 0 {
		fontSize = config.DefaultFontSize
	}
	n := int(float64(textWidth) / (float64(fontSize) * 0.5))
	return max(n, 8)
}

// wrapText breaks text into lines of at most limit runes on word boundaries.
// A single word longer than limit gets a line of its own.
func wrapText(text string, limit int) []string {
	var lines []string
	var current []string
	width := 0

	for _, word := range strings.Fields(text) {
		w := len([]rune(word))
		if width > 0 && width+1+w > limit {
			lines = append(lines, strings.Join(current, " "))
			current, width = nil, 0
		}
		if width > 0 {
			width++
		}
		current = append(current, word)
		width += w
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

var assEscaper = strings.NewReplacer("{", "(", "}", ")", "\\", "/")

// writeASS renders captions into an ASS subtitle file.
func writeASS(w io.Writer, captions []Caption, layout Layout, style captionStyle) error {
	x, y, align, textWidth := layout.box(style.Width, style.Height)
	limit := maxChars(textWidth, style.FontSize)

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("Title: News Shorts\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("WrapStyle: 2\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", style.Width)
	fmt.Fprintf(&b, "PlayResY: %d\n", style.Height)
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,%s,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,0,%d,20,20,20,1\n",
		style.Font, style.FontSize, assColor(style.TextColor), assColor(style.TextColor), align)
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, c := range captions {
		text := stripCues(c.Text)
		if text == "" {
			continue
		}
		lines := wrapText(assEscaper.Replace(text), limit)
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,{\\an%d\\pos(%d,%d)}%s\n",
			formatASSTimestamp(c.Start),
			formatASSTimestamp(c.End),
			align, x, y,
			strings.Join(lines, "\\N"))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeASSFile(path string, captions []Caption, layout Layout, style captionStyle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeASS(f, captions, layout, style)
}

// formatASSTimestamp converts seconds to ASS timestamp format (h:mm:ss.cc)
func formatASSTimestamp(seconds float64) string {
	cs := int(math.Round(seconds * 100))
	hours := cs / 360000
	minutes := cs / 6000 % 60
	secs := cs / 100 % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, cs%100)
}

var namedColors = map[string]string{
	"white":  "FFFFFF",
	"black":  "000000",
	"yellow": "FFFF00",
	"red":    "FF0000",
	"green":  "00FF00",
	"blue":   "0000FF",
}

// assColor converts a colour name or #RRGGBB into ASS &H00BBGGRR form.
func assColor(color string) string {
	rgb := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(color)), "#")
	if named, ok := namedColors[rgb]; ok {
		rgb = named
	}
	if _, err := strconv.ParseUint(rgb, 16, 32); err != nil || len(rgb) != 6 {
		rgb = "FFFFFF"
	}
	rgb = strings.ToUpper(rgb)
	return "&H00" + rgb[4:6] + rgb[2:4] + rgb[0:2]
}
