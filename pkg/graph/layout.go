package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/forkline/pkg/errors"
)

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Every edge must reference a commit of the layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// MarshalLayoutBSON serializes a Layout to a BSON document, the format used
// when layouts are stored next to other documents in MongoDB.
func MarshalLayoutBSON(l Layout) ([]byte, error) {
	data, err := bson.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal layout bson: %w", err)
	}
	return data, nil
}

// UnmarshalLayoutBSON deserializes a BSON document into a Layout.
func UnmarshalLayoutBSON(data []byte) (Layout, error) {
	var l Layout
	if err := bson.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout bson: %w", err)
	}
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

func (l *Layout) validate() error {
	known := make(map[string]bool, len(l.Commits))
	for _, n := range l.Commits {
		known[n.SHA] = true
	}
	for _, e := range l.Edges {
		if !known[e.From] || !known[e.To] {
			return errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s references an unknown commit", e.From, e.To)
		}
		switch e.Kind {
		case EdgeStraight, EdgeFork, EdgeMerge:
		default:
			return errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s has unknown kind %q", e.From, e.To, e.Kind)
		}
	}
	return nil
}
