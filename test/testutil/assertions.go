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

package testutil

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SnapshotFile mirrors the snapshot document with the fields the
// end-to-end tests look at.
type SnapshotFile struct {
	Issues []struct {
		RepoOwner string `json:"repoOwner"`
		RepoName  string `json:"repoName"`
		Issue     struct {
			Number      int    `json:"number"`
			State       string `json:"state"`
			PullRequest *struct {
				Comments []struct {
					ID string `json:"id"`
				} `json:"comments"`
			} `json:"pullRequest"`
		} `json:"issue"`
	} `json:"issues"`
	RepoLabels []struct {
		RepoOwner string `json:"repoOwner"`
		RepoName  string `json:"repoName"`
		Labels    []struct {
			Name string `json:"name"`
		} `json:"labels"`
	} `json:"repoLabels"`
	Repositories []struct {
		RepoOwner  string  `json:"repoOwner"`
		RepoName   string  `json:"repoName"`
		IsPrivate  bool    `json:"isPrivate"`
		LastSeenAt *string `json:"lastSeenAt"`
	} `json:"repositories"`
}

// ReadSnapshot reads a snapshot written by the sync command.
func ReadSnapshot(t *testing.T, path string) SnapshotFile {
	t.Helper()

	var s SnapshotFile
	ReadJSON(t, path, &s)
	return s
}

// ReadJSON reads JSON from a file into a struct
func ReadJSON(t *testing.T, path string, v interface{}) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	return path
}

// MetadataFiles returns the sync metadata files in dir, oldest first.
func MetadataFiles(t *testing.T, dir string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "sync-metadata-*.json"))
	if err != nil {
		t.Fatalf("Failed to glob metadata files: %v", err)
	}
	return matches
}

// CountNDJSONLines counts the non-empty lines of a file, failing on lines
// that are not JSON.
func CountNDJSONLines(t *testing.T, path string) int {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	count := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		count++
		if !json.Valid([]byte(line)) {
			t.Errorf("Line %d: invalid JSON", count)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading file: %v", err)
	}
	return count
}

// AssertFileExists checks that a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Expected file to exist: %s", path)
	}
}

// AssertContainsString checks if a string contains a substring
func AssertContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected string to contain %q, got: %s", needle, haystack)
	}
}
