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

package config

import (
	"time"
)

// Config is the complete sirseer-board configuration. Values come from
// defaults, then a YAML file, then environment variables; command-line
// flags are applied last by the CLI.
type Config struct {
	GitHub       GitHubConfig  `yaml:"github"`
	Sync         SyncConfig    `yaml:"sync"`
	Filters      FiltersConfig `yaml:"filters"`
	Repositories []string      `yaml:"repositories"`
	Output       OutputConfig  `yaml:"output"`
	Log          LogConfig     `yaml:"log"`
}

// GitHubConfig holds the API endpoints, which differ on GitHub Enterprise,
// and the name of the variable that carries the token.
type GitHubConfig struct {
	APIEndpoint     string `yaml:"api_endpoint"`
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env"`
}

// SyncConfig controls pagination and retries.
type SyncConfig struct {
	PerPage                  int           `yaml:"per_page"`
	SleepTime                time.Duration `yaml:"sleep_time"`
	WarningThreshold         int           `yaml:"warning_threshold"`
	ReactionWarningThreshold int           `yaml:"reaction_warning_threshold"`

	// PageThreshold caps the pages fetched per list. Zero or -1 fetches
	// everything.
	PageThreshold int `yaml:"page_threshold"`

	Sort      string `yaml:"sort"`
	Direction string `yaml:"direction"`

	// EarliestDate and PREarliestDate are RFC 3339 timestamps or plain
	// dates. Records updated before them are not fetched.
	EarliestDate   string `yaml:"earliest_date"`
	PREarliestDate string `yaml:"pr_earliest_date"`
}

// FiltersConfig lists the pull request comments left off the board.
type FiltersConfig struct {
	IgnoreAuthors []string `yaml:"ignore_authors"`
	IgnoreContent []string `yaml:"ignore_content"`
}

// OutputConfig tells the sync command where to write.
type OutputConfig struct {
	Dir          string        `yaml:"dir"`
	SnapshotFile string        `yaml:"snapshot_file"`
	RecentFile   string        `yaml:"recent_file"`
	RecentWindow time.Duration `yaml:"recent_window"`
	StateDir     string        `yaml:"state_dir"`

	// Database is the path of the SQLite record store. Empty disables it.
	Database string `yaml:"database"`
}

// LogConfig selects the log level and an optional rotating log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Repository is one owner/name pair to synchronize.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// Comments by these bots, and acknowledgement replies to them, are left
// off the board unless the filters are configured. An empty list in the
// config file turns a default off.
var (
	DefaultIgnoreAuthors = []string{"bors", "homu", "dependabot[bot]", "github-actions[bot]"}
	DefaultIgnoreContent = []string{"^(unack|ack)"}
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIEndpoint:     "https://api.github.com",
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Sync: SyncConfig{
			PerPage:                  100,
			SleepTime:                3 * time.Second,
			WarningThreshold:         15,
			ReactionWarningThreshold: 3,
			PageThreshold:            20,
			Sort:                     "CREATED_AT",
			Direction:                "ASC",
		},
		Filters: FiltersConfig{
			IgnoreAuthors: append([]string(nil), DefaultIgnoreAuthors...),
			IgnoreContent: append([]string(nil), DefaultIgnoreContent...),
		},
		Output: OutputConfig{
			Dir:          ".",
			SnapshotFile: "issues.json",
			RecentFile:   "issues-recent.json",
			RecentWindow: 30 * 24 * time.Hour,
			StateDir:     "~/.sirseer/board",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
