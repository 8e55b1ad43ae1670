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

package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirseerhq/sirseer-board/internal/fsutil"
)

// StateFilePath returns the state file of a repository under dir.
// Repository should be in "owner/name" format.
// Returns: <dir>/owner-name.state
func StateFilePath(dir, repository string) string {
	safeRepoName := strings.ReplaceAll(repository, "/", "-")
	return filepath.Join(dir, safeRepoName+".state")
}

// SaveState atomically saves the sync state to disk with a checksum.
func SaveState(state *SyncState, stateFile string) error {
	state.Version = CurrentVersion

	checksum, err := calculateChecksum(state)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}
	state.Checksum = checksum

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := fsutil.WriteAtomic(stateFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// LoadState reads and validates the sync state from disk. A missing file
// yields ErrNoState.
func LoadState(stateFile string) (*SyncState, error) {
	data, err := os.ReadFile(stateFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoState, stateFile)
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", stateFile, err)
	}

	var state SyncState
	if unmarshalErr := json.Unmarshal(data, &state); unmarshalErr != nil {
		return nil, fmt.Errorf("state file is corrupted (invalid JSON): %w", unmarshalErr)
	}

	if state.Version != CurrentVersion {
		return nil, fmt.Errorf("state file version (%d) is incompatible with current version (%d)",
			state.Version, CurrentVersion)
	}

	calculatedChecksum, err := calculateChecksum(&state)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum for validation: %w", err)
	}
	if state.Checksum != calculatedChecksum {
		return nil, fmt.Errorf("state file is corrupted (checksum mismatch)")
	}

	return &state, nil
}

// DeleteState removes a state file, forcing the next sync to be full.
func DeleteState(stateFile string) error {
	err := os.Remove(stateFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// calculateChecksum computes the SHA256 hash of the state content.
// The checksum field itself is excluded from the calculation.
func calculateChecksum(state *SyncState) (string, error) {
	stateCopy := *state
	stateCopy.Checksum = ""

	data, err := json.Marshal(stateCopy)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
