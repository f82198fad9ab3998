package session

import "fmt"

const (
	MinFontSize   = 8
	MaxFontSize   = 48
	MinIndentSize = 1
	MaxIndentSize = 8
)

// Preferences are the editor settings of a session.
type Preferences struct {
	FontSize     int  `json:"font_size"`
	IndentSize   int  `json:"indent_size"`
	AutoComplete bool `json:"auto_complete"`
	LineNumbers  bool `json:"line_numbers"`
	WordWrap     bool `json:"word_wrap"`
}

// DefaultPreferences returns the settings a new session starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		FontSize:     14,
		IndentSize:   2,
		AutoComplete: true,
		LineNumbers:  true,
		WordWrap:     true,
	}
}

// Validate checks numeric settings against the editor's limits.
func (p Preferences) Validate() error {
	if p.FontSize < MinFontSize || p.FontSize > MaxFontSize {
		return fmt.Errorf("%w: font size %d outside %d..%d", ErrInvalidPreferences, p.FontSize, MinFontSize, MaxFontSize)
	}
	if p.IndentSize < MinIndentSize || p.IndentSize > MaxIndentSize {
		return fmt.Errorf("%w: indent size %d outside %d..%d", ErrInvalidPreferences, p.IndentSize, MinIndentSize, MaxIndentSize)
	}
	return nil
}
