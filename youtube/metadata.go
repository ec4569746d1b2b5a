package youtube

import (
	"fmt"
	"strings"
	"time"

	yt "google.golang.org/api/youtube/v3"

	"newsshorts/config"
	"newsshorts/types"
)

// Metadata is the snippet and status sent with an upload.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
}

func (m Metadata) video() *yt.Video {
	privacy := m.Privacy
	if privacy == "" {
		privacy = config.YouTubePrivacyStatus
	}
	return &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       m.Title,
			Description: m.Description,
			Tags:        m.Tags,
			CategoryId:  m.CategoryID,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
		},
	}
}

// BuildMetadata titles the video "<prefix> YYYY-MM-DD" and lists the first
// articles as sources in the description.
func BuildMetadata(articles []types.Article, prefix string, now time.Time, privacy string) Metadata {
	var desc strings.Builder
	desc.WriteString("Sources:\n")
	for _, a := range articles[:min(len(articles), config.YouTubeSourceLimit)] {
		fmt.Fprintf(&desc, "- %s (%s)\n", a.Title, a.Source)
	}

	tags := make([]string, len(config.YouTubeTags))
	copy(tags, config.YouTubeTags)

	return Metadata{
		Title:       fmt.Sprintf("%s %s", prefix, now.Format("2006-01-02")),
		Description: desc.String(),
		Tags:        tags,
		CategoryID:  config.YouTubeCategoryID,
		Privacy:     privacy,
	}
}
