// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package filter decides which pull request comments are left off the board.
// Rules are classified once, when configuration is loaded: an entry that
// contains a regular expression metacharacter is compiled as an unanchored
// pattern, anything else is matched as a literal substring.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind tells how a content rule is matched.
type Kind int

const (
	// Literal rules match when the body contains the text.
	Literal Kind = iota
	// Pattern rules match when the compiled expression finds a match.
	Pattern
)

func (k Kind) String() string {
	if k == Pattern {
		return "pattern"
	}
	return "literal"
}

// Rule is one classified ignore-content entry.
type Rule struct {
	Source string
	Kind   Kind
	re     *regexp.Regexp
}

// Match reports whether body is covered by the rule.
func (r Rule) Match(body string) bool {
	if r.Kind == Pattern {
		return r.re.MatchString(body)
	}
	return strings.Contains(body, r.Source)
}

// Classify builds a Rule from a raw entry.
func Classify(entry string) (Rule, error) {
	if regexp.QuoteMeta(entry) == entry {
		return Rule{Source: entry, Kind: Literal}, nil
	}
	re, err := regexp.Compile(entry)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid ignore pattern %q: %w", entry, err)
	}
	return Rule{Source: entry, Kind: Pattern, re: re}, nil
}

// Filter holds the ignore rules for comment bodies and authors.
// The zero value excludes nothing.
type Filter struct {
	content []Rule
	authors map[string]struct{}
}

// New classifies the given entries. Empty entries are skipped so that an
// unset list never matches every comment.
func New(ignoreAuthors, ignoreContent []string) (*Filter, error) {
	f := &Filter{authors: make(map[string]struct{}, len(ignoreAuthors))}
	for _, a := range ignoreAuthors {
		if a = strings.TrimSpace(a); a != "" {
			f.authors[a] = struct{}{}
		}
	}
	for _, c := range ignoreContent {
		if strings.TrimSpace(c) == "" {
			continue
		}
		rule, err := Classify(c)
		if err != nil {
			return nil, err
		}
		f.content = append(f.content, rule)
	}
	return f, nil
}

// Split breaks a space-delimited list, the format used by environment
// overrides, into entries.
func Split(list string) []string {
	return strings.Fields(list)
}

// Rules returns the classified content rules in configuration order.
func (f *Filter) Rules() []Rule {
	if f == nil {
		return nil
	}
	return append([]Rule(nil), f.content...)
}

// IgnoresAuthor reports whether comments by login are dropped. Comments by
// deleted accounts have no login and are never dropped by this rule.
func (f *Filter) IgnoresAuthor(login string) bool {
	if f == nil || login == "" {
		return false
	}
	_, ok := f.authors[login]
	return ok
}

// IgnoresContent reports whether any content rule matches body.
func (f *Filter) IgnoresContent(body string) bool {
	if f == nil {
		return false
	}
	for _, r := range f.content {
		if r.Match(body) {
			return true
		}
	}
	return false
}

// Excludes reports whether a comment is dropped by either rule set.
func (f *Filter) Excludes(login, body string) bool {
	return f.IgnoresContent(body) || f.IgnoresAuthor(login)
}
