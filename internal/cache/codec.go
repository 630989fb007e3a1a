package cache

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// Codec serializes job results for durable tiers. The disk tier records the
// codec name next to each payload so a cache directory can be reopened with
// the codec it was written with.
type Codec interface {
	Name() string
	Marshal(result *domain.JobResult) ([]byte, error)
	Unmarshal(data []byte) (*domain.JobResult, error)
}

// CodecByName resolves a codec from its config/metadata name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "gob":
		return GobCodec{}, nil
	}
	return nil, fmt.Errorf("unknown cache codec %q", name)
}

// JSONCodec stores results as human-readable JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(result *domain.JobResult) ([]byte, error) {
	return json.Marshal(result)
}

func (JSONCodec) Unmarshal(data []byte) (*domain.JobResult, error) {
	var r domain.JobResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &r, nil
}

// GobCodec stores results in Go's compact binary encoding.
type GobCodec struct{}

func (GobCodec) Name() string { return "gob" }

func (GobCodec) Marshal(result *domain.JobResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(result); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return buf.Bytes(), nil
}

func (GobCodec) Unmarshal(data []byte) (*domain.JobResult, error) {
	var r domain.JobResult
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &r, nil
}
