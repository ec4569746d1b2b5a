package scriptgen

import (
	"fmt"
	"strings"

	"newsshorts/types"
)

const (
	scriptTemperature  = 0.7
	summaryTemperature = 0
)

type persona struct {
	intro       string
	instruction string
}

var personas = map[string]persona{
	"en": {
		intro: "You are John Oliver, host of Last Week Tonight. Your mission is to inform citizens with clarity and wit," +
			" never sacrificing factual accuracy or journalistic integrity.",
	},
	"hi": {
		intro: "You are a sharp, witty Hindi news anchor in the spirit of John Oliver. Your mission is to inform viewers" +
			" with clarity and humour, never sacrificing factual accuracy or journalistic integrity.",
		instruction: "Write the monologue and every segment in natural spoken Hindi using Devanagari script." +
			" Keep proper nouns recognisable.",
	},
}

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"bn": "Bengali",
	"mr": "Marathi",
	"ta": "Tamil",
	"te": "Telugu",
	"gu": "Gujarati",
	"kn": "Kannada",
	"ml": "Malayalam",
	"pa": "Punjabi",
	"ur": "Urdu",
}

func personaFor(language string) persona {
	if p, ok := personas[language]; ok {
		return p
	}
	name := languageNames[language]
	if name == "" {
		name = language
	}
	return persona{
		intro:       personas["en"].intro,
		instruction: fmt.Sprintf("Write the monologue and every segment in %s.", name),
	}
}

// scriptSystemPrompt builds the segmentation instruction for one language.
func scriptSystemPrompt(language string, expressive bool) string {
	p := personaFor(language)

	var b strings.Builder
	b.WriteString(p.intro)
	b.WriteString("\nTask:\n1) Write one seamless ~45-second monologue covering today's top five pillars:" +
		" politics, commerce, sports, technology, entertainment.\n")
	if expressive {
		b.WriteString("2) Insert occasional emotion cues in square brackets like [giggle], [sigh] or [excited]" +
			" so the script is expressive when read aloud by ElevenLabs.\n")
		b.WriteString("3) THEN split that monologue into 5–12 coherent segments for short-form video.")
	} else {
		b.WriteString("2) THEN split that monologue into 5–12 coherent segments for short-form video.")
	}
	if p.instruction != "" {
		b.WriteString("\n")
		b.WriteString(p.instruction)
	}
	b.WriteString("\nReturn ONLY valid JSON with a single key \"segments\" whose value is a list of strings.")
	return b.String()
}

func scriptUserMessage(articles []types.Article) string {
	lines := make([]string, 0, len(articles)+1)
	lines = append(lines, "Here are today's pre-filtered articles:")
	for _, a := range articles {
		lines = append(lines, fmt.Sprintf("- [%s] %s — %s", a.Source, a.Title, a.Summary))
	}
	return strings.Join(lines, "\n")
}

const summarySystemPrompt = "You are a veteran news editor upholding journalistic integrity." +
	" Summarize today's most important international and Indian stories in under one minute." +
	" Stay impartial and write a single short paragraph with no persona, jokes or stage directions."

func summaryUserMessage(articles []types.Article, limit int) string {
	articles = articles[:min(limit, len(articles))]
	lines := make([]string, len(articles))
	for i, a := range articles {
		lines[i] = fmt.Sprintf("- %s (%s)", a.Title, a.Source)
	}
	return strings.Join(lines, "\n")
}
