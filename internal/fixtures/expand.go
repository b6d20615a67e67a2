package fixtures

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*(\$?\w+)\s*\}\}`)

// Expand replaces {{NAME}} placeholders with values from vars, then the OS
// environment, and the dynamic placeholders {{$uuid}}, {{$timestamp}} (unix
// seconds) and {{$isoTimestamp}} (RFC 3339, UTC). Unknown placeholders are
// left as they are.
func Expand(input string, vars map[string]string, now time.Time) string {
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		switch name {
		case "$uuid":
			return uuid.NewString()
		case "$timestamp":
			return strconv.FormatInt(now.Unix(), 10)
		case "$isoTimestamp":
			return now.UTC().Format(time.RFC3339)
		}
		if v, ok := vars[name]; ok {
			return v
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// expandNode runs Expand over every scalar in the tree. A plain scalar that
// changed drops its tag so the new text is resolved again.
func expandNode(n *yaml.Node, vars map[string]string, now time.Time) {
	if n.Kind == yaml.ScalarNode {
		if v := Expand(n.Value, vars, now); v != n.Value {
			n.Value = v
			if n.Style == 0 {
				n.Tag = ""
			}
		}
		return
	}
	for _, c := range n.Content {
		expandNode(c, vars, now)
	}
}
