// Package avatar selects the character portrait shown next to the chat.
//
// Bot output may carry "[Expression: smile] [Action: wave]" style tags; the
// portrait is the pre-rendered image named "{expression}_{action}.jpg" in the
// portrait directory, falling back to the default avatar when the pair does
// not resolve to an existing file.
package avatar

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	DefaultExpression = "neutral"
	DefaultAction     = "none"
)

var (
	expressionPattern = regexp.MustCompile(`(?i)\[Expression:\s*(\w+)\]`)
	actionPattern     = regexp.MustCompile(`(?i)\[Action:\s*(\w+)\]`)
)

var expressions = []string{"neutral", "smile", "serious", "confused", "surprised", "sad"}

var actions = []string{"none", "nod", "shake", "wave", "jump", "point"}

var expressionEmoji = map[string]string{
	"neutral":   "😐",
	"smile":     "😊",
	"serious":   "😤",
	"confused":  "😕",
	"surprised": "😲",
	"sad":       "😢",
}

// Expressions returns the known facial expressions in schema order.
func Expressions() []string {
	return append([]string(nil), expressions...)
}

// Actions returns the known physical actions in schema order.
func Actions() []string {
	return append([]string(nil), actions...)
}

// Emoji maps an expression to its display emoji, 💬 when unknown.
func Emoji(expression string) string {
	if emoji, ok := expressionEmoji[strings.ToLower(expression)]; ok {
		return emoji
	}
	return "💬"
}

// ParseTags extracts the expression/action pair from fragment content.
// Missing tags yield the neutral defaults.
func ParseTags(content string) (expression, action string) {
	expression = DefaultExpression
	action = DefaultAction

	if m := expressionPattern.FindStringSubmatch(content); m != nil {
		expression = strings.ToLower(m[1])
	}
	if m := actionPattern.FindStringSubmatch(content); m != nil {
		action = strings.ToLower(m[1])
	}
	return expression, action
}

// Library resolves expression/action pairs against the portrait directory.
type Library struct {
	dir      string
	fallback string
}

// NewLibrary returns a Library rooted at dir with the given fallback avatar.
func NewLibrary(dir, fallback string) *Library {
	return &Library{dir: dir, fallback: fallback}
}

// ImagePath returns the portrait file for the pair, or the fallback avatar
// when the combination has no pre-rendered image. Out-of-enum values simply
// fail the stat and fall back; they never error.
func (l *Library) ImagePath(expression, action string) string {
	name := strings.ToLower(expression) + "_" + strings.ToLower(action) + ".jpg"
	path := filepath.Join(l.dir, name)

	if _, err := os.Stat(path); err == nil {
		return path
	}
	return l.fallback
}

// ImageForContent parses the tags in content and resolves the portrait.
func (l *Library) ImageForContent(content string) string {
	expression, action := ParseTags(content)
	return l.ImagePath(expression, action)
}
