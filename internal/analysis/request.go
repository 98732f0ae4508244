package analysis

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MinGoalChars is the shortest goal accepted when no file was provided.
	MinGoalChars = 10
	// DefaultFileName stands in when the user did not upload anything.
	DefaultFileName = "data.csv"
)

// ErrInsufficientInput means there is neither data nor a goal descriptive
// enough to analyze.
var ErrInsufficientInput = errors.New("upload a file or describe your problem in detail")

// Request carries everything the user selected for one run.
type Request struct {
	DataContext string
	FileName    string
	Goal        string
	Models      []ModelType
	Metrics     []MetricType
}

// Validate enforces the run precondition: a file, or a goal of at least
// MinGoalChars characters.
func (r Request) Validate() error {
	if r.DataContext == "" && utf8.RuneCountInString(strings.TrimSpace(r.Goal)) < MinGoalChars {
		return ErrInsufficientInput
	}
	return nil
}
