package chapters

import (
	"regexp"
	"strings"
)

var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^chapter\s+\d+$`),
	regexp.MustCompile(`^第` + cjkNumerals + `+[章节回]$`),
	regexp.MustCompile(`^卷` + cjkNumerals + `+$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^\d+\.\s*$`),
}

// IsGenericName returns true if the chapter title is a bare numbered
// placeholder with no descriptive text.
func IsGenericName(title string) bool {
	title = strings.TrimSpace(title)

	if title == "" || title == FallbackTitle {
		return true
	}

	for _, pattern := range genericPatterns {
		if pattern.MatchString(title) {
			return true
		}
	}

	return false
}

// AnalysisResult contains chapter title statistics for a segmented document.
type AnalysisResult struct {
	Total          int     `json:"total"`
	GenericCount   int     `json:"genericCount"`
	GenericPercent float64 `json:"genericPercent"`
}

// Analyze returns statistics about the chapter titles. Ingest uses this to
// log how much descriptive structure a source file actually carried.
func Analyze(chs []Chapter) AnalysisResult {
	if len(chs) == 0 {
		return AnalysisResult{}
	}

	generic := 0
	for _, ch := range chs {
		if IsGenericName(ch.Title) {
			generic++
		}
	}

	return AnalysisResult{
		Total:          len(chs),
		GenericCount:   generic,
		GenericPercent: float64(generic) / float64(len(chs)),
	}
}
