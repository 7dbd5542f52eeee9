// Package command interprets model-generated command strings and executes them.
//
// Classification is a fixed, ordered table of matchers: the first pattern
// that matches wins, and anything unmatched falls through to a real shell.
// Only a curated subset of intents is recognised; pipes, globbing and
// variable expansion are left to the shell.
package command

import (
	"regexp"
	"strings"

	"github.com/doeshing/shai-agent/internal/domain"
)

type matcher struct {
	name    string
	re      *regexp.Regexp
	extract func(groups []string) domain.CommandIntent
}

// matchers is evaluated top to bottom. Fully quoted shapes come before
// looser ones so a string matching both resolves to the quoted reading.
var matchers = []matcher{
	{
		name:    "create_file",
		re:      regexp.MustCompile(`(?i)^createFile\s+"([^"]+)"\s+"([\s\S]*)"$`),
		extract: createFileIntent,
	},
	{
		name:    "write_dquote_to_dquote",
		re:      regexp.MustCompile(`(?i)^(?:echo|cat)\s+"([^"]*?)"\s*>\s*"([^"]+)"$`),
		extract: writeIntent,
	},
	{
		name:    "write_squote_to_squote",
		re:      regexp.MustCompile(`(?i)^(?:echo|cat)\s+'([^']*?)'\s*>\s*'([^']+)'$`),
		extract: writeIntent,
	},
	{
		name:    "write_dquote_to_bare",
		re:      regexp.MustCompile(`(?i)^(?:echo|cat)\s+"([^"]*?)"\s*>\s*([^\s]+)$`),
		extract: writeIntent,
	},
	{
		name:    "write_squote_to_bare",
		re:      regexp.MustCompile(`(?i)^(?:echo|cat)\s+'([^']*?)'\s*>\s*([^\s]+)$`),
		extract: writeIntent,
	},
	{
		name:    "write_bare_to_dquote",
		re:      regexp.MustCompile(`(?i)^(?:echo|cat)\s+([^>]+?)\s*>\s*"([^"]+)"$`),
		extract: writeIntent,
	},
	{
		name:    "write_bare_to_bare",
		re:      regexp.MustCompile(`(?i)^(?:echo|cat)\s+([^>]+?)\s*>\s*([^\s]+)$`),
		extract: writeIntent,
	},
	{
		name:    "mkdir_dquote",
		re:      regexp.MustCompile(`(?i)^mkdir\s+"([^"]+)"$`),
		extract: mkdirIntent,
	},
	{
		name:    "mkdir_squote",
		re:      regexp.MustCompile(`(?i)^mkdir\s+'([^']+)'$`),
		extract: mkdirIntent,
	},
	{
		name:    "mkdir_bare",
		re:      regexp.MustCompile(`(?i)^mkdir\s+([^\s]+)$`),
		extract: mkdirIntent,
	},
	{
		name: "list",
		re:   regexp.MustCompile(`(?i)^(?:ls|dir)$`),
		extract: func([]string) domain.CommandIntent {
			return domain.CommandIntent{Kind: domain.IntentList}
		},
	},
	{
		name: "pwd",
		re:   regexp.MustCompile(`(?i)^pwd$`),
		extract: func([]string) domain.CommandIntent {
			return domain.CommandIntent{Kind: domain.IntentPrintWorkingDirectory}
		},
	},
	{
		name: "cd",
		re:   regexp.MustCompile(`(?i)^cd\s+"?([^"]*)"?$`),
		extract: func(groups []string) domain.CommandIntent {
			return domain.CommandIntent{Kind: domain.IntentChangeDirectory, Target: strings.TrimSpace(groups[1])}
		},
	},
}

// Classify maps a raw command string to an intent. It is pure and total:
// unmatched input classifies as RawShell carrying the string verbatim.
func Classify(raw string) domain.CommandIntent {
	for _, m := range matchers {
		groups := m.re.FindStringSubmatch(raw)
		if groups == nil {
			continue
		}
		intent := m.extract(groups)
		intent.Raw = raw
		return intent
	}
	return domain.CommandIntent{Kind: domain.IntentRawShell, Raw: raw}
}

func createFileIntent(groups []string) domain.CommandIntent {
	return domain.CommandIntent{
		Kind:    domain.IntentFileCreate,
		Path:    groups[1],
		Content: DecodeEscapes(groups[2]),
	}
}

func writeIntent(groups []string) domain.CommandIntent {
	content := stripOuterQuotes(strings.TrimSpace(groups[1]))
	return domain.CommandIntent{
		Kind:    domain.IntentFileCreate,
		Path:    strings.TrimSpace(groups[2]),
		Content: DecodeEscapes(content),
	}
}

func mkdirIntent(groups []string) domain.CommandIntent {
	return domain.CommandIntent{Kind: domain.IntentDirectoryCreate, Path: strings.TrimSpace(groups[1])}
}

// stripOuterQuotes removes one leading and one trailing quote character,
// each independently.
func stripOuterQuotes(s string) string {
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if s != "" && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return s
}

var escapes = []struct{ from, to string }{
	{`\n`, "\n"},
	{`\"`, `"`},
	{`\'`, `'`},
	{`\t`, "\t"},
}

// DecodeEscapes turns the literal two-character escapes for newline,
// double quote, single quote and tab into their characters, in that order.
func DecodeEscapes(s string) string {
	for _, e := range escapes {
		s = strings.ReplaceAll(s, e.from, e.to)
	}
	return s
}
