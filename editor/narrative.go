package editor

import (
	"fmt"
	"unicode/utf8"

	"voyage/models"
	"voyage/richtext"
)

// MinNarrativeLength is the minimum rendered length of the detailed program.
const MinNarrativeLength = 50

// CheckNarrative warns when the narrative renders to fewer than
// MinNarrativeLength characters, including when it is empty.
func CheckNarrative(rich string) *Warning {
	n := utf8.RuneCountInString(richtext.PlainText(rich))
	if n >= MinNarrativeLength {
		return nil
	}
	return &Warning{
		Field:   models.FieldProgramNarrative,
		Message: fmt.Sprintf("detailed program is short (%d characters, at least %d recommended)", n, MinNarrativeLength),
	}
}
