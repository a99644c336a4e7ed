package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/forkline/pkg/dag"
	"github.com/matzehuels/forkline/pkg/errors"
)

// =============================================================================
// History Serialization API
// =============================================================================

// MarshalHistory converts a History to indented JSON bytes.
func MarshalHistory(h History) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHistoryTo(h, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalHistory decodes JSON bytes into a History and validates it.
func UnmarshalHistory(data []byte) (History, error) {
	return readHistoryFrom(bytes.NewReader(data))
}

// WriteHistoryFile writes a History to a JSON file.
// The file is created with 0644 permissions.
func WriteHistoryFile(h History, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeHistoryTo(h, f)
}

// ReadHistoryFile reads and validates a JSON history document.
func ReadHistoryFile(path string) (History, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return History{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "history file %s", path)
		}
		return History{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readHistoryFrom(f)
}

// ReadHistory decodes a JSON history document from an io.Reader.
func ReadHistory(r io.Reader) (History, error) {
	return readHistoryFrom(r)
}

// Graph builds the commit graph of the history.
func (h History) Graph() *dag.Graph {
	return dag.Build(h.Commits)
}

// Validate checks the identifiers a history document brings in from outside.
// Unknown parents and branch tips are not errors: histories are partial.
func (h History) Validate() error {
	for i, c := range h.Commits {
		if err := errors.ValidateSHA(c.SHA); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "commit %d", i)
		}
		for _, p := range c.Parents {
			if err := errors.ValidateSHA(p); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parent of %s", c.SHA)
			}
		}
	}
	for _, b := range h.Branches {
		if err := errors.ValidateBranchName(b.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "branch %q", b.Name)
		}
	}
	return nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeHistoryTo(h History, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readHistoryFrom(r io.Reader) (History, error) {
	var h History
	if err := json.NewDecoder(r).Decode(&h); err != nil {
		return History{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode history")
	}
	if err := h.Validate(); err != nil {
		return History{}, err
	}
	return h, nil
}
