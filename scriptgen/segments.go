package scriptgen

import (
	"encoding/json"
	"strings"
	"unicode"

	"newsshorts/llm"
)

// SegmentationKind tags how a script reply was interpreted.
type SegmentationKind int

const (
	// Parsed means the reply carried a valid "segments" list.
	Parsed SegmentationKind = iota
	// Unparsed means the reply is kept as raw text for sentence splitting.
	Unparsed
)

func (k SegmentationKind) String() string {
	if k == Parsed {
		return "parsed"
	}
	return "unparsed"
}

// Segmentation is the interpreted script reply.
type Segmentation struct {
	Kind     SegmentationKind
	Segments []string // set when Kind == Parsed
	Raw      string   // set when Kind == Unparsed
	Reason   string   // why parsing failed
}

// Result returns the ordered segments, sentence-splitting unparsed text.
func (s Segmentation) Result() []string {
	if s.Kind == Parsed {
		return s.Segments
	}
	return SplitSentences(s.Raw)
}

// ParseSegments interprets a reply of the form {"segments": ["...", ...]}.
// Anything else is returned as Unparsed.
func ParseSegments(content string) Segmentation {
	unparsed := func(reason string) Segmentation {
		return Segmentation{Kind: Unparsed, Raw: content, Reason: reason}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.StripCodeFence(content)), &obj); err != nil {
		return unparsed("not a JSON object")
	}
	raw, ok := obj["segments"]
	if !ok {
		return unparsed(`missing "segments"`)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return unparsed(`"segments" is not a list`)
	}

	segments := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return unparsed(`"segments" contains a non-string`)
		}
		segments = append(segments, s)
	}
	return Segmentation{Kind: Parsed, Segments: segments}
}

var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "sr": true, "jr": true,
	"st": true, "vs": true, "inc": true, "ltd": true, "co": true, "corp": true, "gov": true,
	"govt": true, "no": true, "rs": true, "u.s": true, "u.k": true, "e.g": true, "i.e": true,
	"approx": true, "dept": true, "est": true, "fig": true, "jan": true, "feb": true,
	"aug": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '।'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»':
		return true
	}
	return false
}

// SplitSentences breaks prose into sentences on terminal punctuation followed
// by whitespace. Common abbreviations, initials and leading list numbers do
// not end a sentence. Whitespace inside a sentence is collapsed.
func SplitSentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	sentences := make([]string, 0)
	start := 0

	emit := func(end int) {
		if s := strings.Join(strings.Fields(string(runes[start:end])), " "); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && (isTerminal(runes[end]) || isCloser(runes[end])) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end - 1
			continue
		}
		if runes[i] == '.' && end == i+1 && keepsSentenceOpen(runes[start:i]) {
			i = end - 1
			continue
		}
		emit(end)
		i = end - 1
	}
	emit(len(runes))

	return sentences
}

// keepsSentenceOpen reports whether the word before a period is an
// abbreviation, an initial or a list number opening the sentence.
func keepsSentenceOpen(before []rune) bool {
	text := strings.TrimSpace(string(before))
	if text == "" {
		return true
	}
	fields := strings.Fields(text)
	word := strings.TrimLeft(fields[len(fields)-1], "(\"'[")

	if abbreviations[strings.ToLower(word)] {
		return true
	}
	r := []rune(word)
	if len(r) == 1 && unicode.IsUpper(r[0]) {
		return true
	}
	if len(fields) == 1 && isDigits(word) {
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
