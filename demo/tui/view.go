package tui

import (
	"fmt"
	"strings"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(TextTitle))
	b.WriteString("\n\n")

	b.WriteString(m.getStateText())
	b.WriteString("\n\n")

	st := m.Status
	if st.RunID != "" {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("🆔 Run: %s", st.RunID)))
		b.WriteString("\n")
	}
	if st.FetchedCount > 0 {
		stats := fmt.Sprintf("📊 Articles fetched: %d | selected: %d", st.FetchedCount, st.SelectedCount)
		b.WriteString(InfoStyle.Render(stats))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(st.Logs) > 0 {
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, entry := range st.Logs {
			b.WriteString("   " + LogTimeStyle.Render(entry.Timestamp.Format("15:04:05")) + "  ")
			b.WriteString(InfoStyle.Render(entry.Message))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(st.Videos) > 0 {
		b.WriteString(BoxStyle.Render(m.formatVideos()))
		b.WriteString("\n\n")
	}

	if m.Notice != "" {
		b.WriteString(StatusStyle.Render(m.Notice))
		b.WriteString("\n")
	}
	if m.Err != nil {
		b.WriteString(ErrorStyle.Render(m.Err.Error()))
		b.WriteString("\n")
	}

	if st.State.Busy() {
		b.WriteString(InfoStyle.Render(TextFooterRunning))
	} else {
		b.WriteString(InfoStyle.Render(TextFooterIdle))
	}
	return b.String()
}

// formatVideos lists the run's videos for the result box
func (m Model) formatVideos() string {
	var b strings.Builder
	b.WriteString(HighlightStyle.Render("Videos"))
	b.WriteString("\n\n")
	for _, v := range m.Status.Videos {
		line := fmt.Sprintf("%-8s %-3s %s", v.Kind, v.Language, v.Path)
		if v.VideoID != "" {
			line += "  " + LinkStyle.Render("https://youtu.be/"+v.VideoID)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
