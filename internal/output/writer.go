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

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirseerhq/sirseer-board/internal/syncer"
)

var _ RecordSink = (*Writer)(nil)

// Writer writes NDJSON. It is safe for concurrent use; lines of different
// callers never interleave.
type Writer struct {
	mu        sync.Mutex
	encoder   *json.Encoder
	count     int
	closeFunc func() error
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{encoder: json.NewEncoder(w)}
}

// NewFileWriter creates a Writer on a new file. The caller must call Close.
func NewFileWriter(filename string) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &Writer{
		encoder:   json.NewEncoder(file),
		closeFunc: file.Close,
	}, nil
}

// Write writes a single value as one line.
func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.write(v)
}

func (w *Writer) write(v any) error {
	if err := w.encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.count++
	return nil
}

// WriteRecords writes the records as consecutive lines.
func (w *Writer) WriteRecords(records []syncer.IssueRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range records {
		if err := w.write(&records[i]); err != nil {
			return fmt.Errorf("%s: %w", records[i].Key(), err)
		}
	}
	return nil
}

// WriteLabels writes a label list as one line.
func (w *Writer) WriteLabels(labels syncer.RepoLabels) error {
	return w.Write(labels)
}

// Count returns the number of lines written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the file opened by NewFileWriter.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closeFunc != nil {
		err := w.closeFunc()
		w.closeFunc = nil
		return err
	}
	return nil
}
