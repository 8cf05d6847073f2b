// Package validation holds the content rules shared by request binding and
// the story service, so both paths enforce the same constraints.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yukikurage/story-relay-api/internal/constants"
)

var (
	ErrContributionLines = fmt.Errorf("each contribution must be exactly %d lines", constants.ContributionLineCount)
	ErrTitleRequired     = errors.New("title is required")
	ErrTitleTooLong      = fmt.Errorf("title must be at most %d characters", constants.MaxTitleLength)
	ErrInvalidUsername   = errors.New("username may only contain letters, digits and @/./+/-/_")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`)

// lineBreaks lists every separator treated as a line boundary.
var lineBreaks = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\v", "\n",
	"\f", "\n",
	"\x1c", "\n",
	"\x1d", "\n",
	"\x1e", "\n",
	"\u0085", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
)

// isTrimmable matches Unicode white space and the ASCII information
// separators U+001C..U+001F, some of which are also line boundaries.
func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || ('\x1c' <= r && r <= '\x1f')
}

func trimContent(content string) string {
	return strings.TrimFunc(content, isTrimmable)
}

// SplitLines trims content and splits it into lines.
// An empty or blank string yields no lines.
func SplitLines(content string) []string {
	trimmed := trimContent(content)
	if trimmed == "" {
		return nil
	}
	return strings.Split(lineBreaks.Replace(trimmed), "\n")
}

// ContributionLines enforces the two-line rule for contribution content.
func ContributionLines(content string) error {
	if len(SplitLines(content)) != constants.ContributionLineCount {
		return ErrContributionLines
	}
	return nil
}

// NormalizeContribution returns the trimmed content after validating it.
func NormalizeContribution(content string) (string, error) {
	if err := ContributionLines(content); err != nil {
		return "", err
	}
	return trimContent(content), nil
}

// Title validates and trims a story title.
func Title(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(trimmed) > constants.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return trimmed, nil
}

// Username checks the allowed character set.
func Username(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}
