package types

// ScriptBundle is everything synthesized from one final article set.
type ScriptBundle struct {
	Language          string   `json:"language"`
	Primary           []string `json:"primary"`
	SecondaryLanguage string   `json:"secondary_language,omitempty"`
	Secondary         []string `json:"secondary,omitempty"`
	Summary           string   `json:"summary,omitempty"`
}

// HasSecondary reports whether a second-language script was produced.
func (b ScriptBundle) HasSecondary() bool {
	return b.SecondaryLanguage != "" && len(b.Secondary) > 0
}
