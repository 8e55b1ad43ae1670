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

// Package config loads sirseer-board configuration.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Built-in defaults
//
// The environment names are the ones the board's deployment scripts have
// always used, e.g. REPOSITORIES=owner:name1|name2 and PAGE_THRESHOLD=-1.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sirseerhq/sirseer-board/internal/filter"
)

// LoadConfig loads configuration from a file and the environment. If
// configPath is empty the standard locations are searched:
//   - .sirseer-board.yaml (current directory)
//   - .sirseer-board.yml (current directory)
//   - ~/.sirseer/board.yaml
//
// Succeeds with defaults if no file is found in the standard locations.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".sirseer-board.yaml",
			".sirseer-board.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "board.yaml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	cfg.Output.StateDir = expandPath(cfg.Output.StateDir)
	cfg.Output.Dir = expandPath(cfg.Output.Dir)
	cfg.Output.Database = expandPath(cfg.Output.Database)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
// Unparseable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	// GitHub endpoints
	if endpoint := os.Getenv("GITHUB_API_ENDPOINT"); endpoint != "" {
		cfg.GitHub.APIEndpoint = endpoint
	}
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}

	// Sync
	if v := os.Getenv("BOARD_PER_PAGE"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			cfg.Sync.PerPage = n
		}
	}
	if v := os.Getenv("BOARD_WARNING_THRESHOLD"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			cfg.Sync.WarningThreshold = n
		}
	}
	if v := os.Getenv("BOARD_SLEEP_TIME"); v != "" {
		if d, err := parseSeconds(v); err == nil {
			cfg.Sync.SleepTime = d
		}
	}
	if v := os.Getenv("PAGE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Sync.PageThreshold = n
		}
	}
	if v := os.Getenv("BOARD_EARLIEST_DATE"); v != "" {
		cfg.Sync.EarliestDate = v
	}
	if v := os.Getenv("BOARD_PR_EARLIEST_DATE"); v != "" {
		cfg.Sync.PREarliestDate = v
	}

	// Filters
	if v := os.Getenv("BOARD_IGNORE_AUTHORS"); v != "" {
		cfg.Filters.IgnoreAuthors = filter.Split(v)
	}
	if v := os.Getenv("BOARD_IGNORE_CONTENT"); v != "" {
		cfg.Filters.IgnoreContent = filter.Split(v)
	}

	if v := os.Getenv("REPOSITORIES"); v != "" {
		cfg.Repositories = parseOwnerList(v)
	}
	if v := os.Getenv("BOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// parseOwnerList expands "owner:name1|name2" into owner/name entries.
// Anything without a colon is taken as a single owner/name entry.
func parseOwnerList(s string) []string {
	owner, names, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return []string{owner}
	}
	var out []string
	for _, name := range strings.Split(names, "|") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, owner+"/"+name)
		}
	}
	return out
}

// ParseRepository parses an "owner/name" reference.
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// Repos parses the configured repository list.
func (c *Config) Repos() ([]Repository, error) {
	repos := make([]Repository, 0, len(c.Repositories))
	for _, entry := range c.Repositories {
		r, err := ParseRepository(entry)
		if err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, nil
}

// PageLimit returns the page cap for the fetcher, zero meaning none.
func (c *Config) PageLimit() int {
	if c.Sync.PageThreshold < 0 {
		return 0
	}
	return c.Sync.PageThreshold
}

// EarliestDates returns the cutoffs for issues and pull requests. The pull
// request date falls back to the issue date.
func (c *Config) EarliestDates() (issues, pullRequests time.Time, err error) {
	if issues, err = ParseDate(c.Sync.EarliestDate); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("earliest_date: %w", err)
	}
	pullRequests = issues
	if c.Sync.PREarliestDate != "" {
		if pullRequests, err = ParseDate(c.Sync.PREarliestDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("pr_earliest_date: %w", err)
		}
	}
	return issues, pullRequests, nil
}

// Filter classifies the ignore rules.
func (c *Config) Filter() (*filter.Filter, error) {
	return filter.New(c.Filters.IgnoreAuthors, c.Filters.IgnoreContent)
}

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date in UTC.
// The empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// parseSeconds reads a duration such as "500ms", or a bare number of
// seconds.
func parseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative sleep time %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative sleep time %s", d)
	}
	return d, nil
}

var (
	validSorts      = map[string]bool{"CREATED_AT": true, "UPDATED_AT": true, "COMMENTS": true}
	validDirections = map[string]bool{"ASC": true, "DESC": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate checks if the configuration contains valid values. It should be
// called after flags are applied.
func (c *Config) Validate() error {
	if c.Sync.PerPage <= 0 {
		return fmt.Errorf("per_page must be positive, got: %d", c.Sync.PerPage)
	}
	if c.Sync.PerPage > 100 {
		return fmt.Errorf("per_page %d exceeds GitHub API limit of 100", c.Sync.PerPage)
	}
	if c.Sync.WarningThreshold < 1 {
		return fmt.Errorf("warning_threshold must be at least 1, got: %d", c.Sync.WarningThreshold)
	}
	if c.Sync.ReactionWarningThreshold < 1 {
		return fmt.Errorf("reaction_warning_threshold must be at least 1, got: %d", c.Sync.ReactionWarningThreshold)
	}
	if c.Sync.SleepTime < 0 {
		return fmt.Errorf("sleep_time must not be negative, got: %s", c.Sync.SleepTime)
	}
	if c.Sync.PageThreshold < -1 {
		return fmt.Errorf("page_threshold must be -1 or more, got: %d", c.Sync.PageThreshold)
	}
	if !validSorts[c.Sync.Sort] {
		return fmt.Errorf("unknown sort %q", c.Sync.Sort)
	}
	if !validDirections[c.Sync.Direction] {
		return fmt.Errorf("unknown direction %q", c.Sync.Direction)
	}
	if _, _, err := c.EarliestDates(); err != nil {
		return err
	}
	if _, err := c.Filter(); err != nil {
		return err
	}
	if _, err := c.Repos(); err != nil {
		return err
	}
	if c.GitHub.APIEndpoint == "" {
		return fmt.Errorf("GitHub API endpoint cannot be empty")
	}
	if c.GitHub.GraphQLEndpoint == "" {
		return fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
