package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1F47E/location-marker/pkg/models"
)

// Codec turns the ordered collection into file content and back
type Codec interface {
	Marshal(locs []models.Location) ([]byte, error)
	Unmarshal(data []byte) ([]models.Location, error)
}

// JSONCodec stores locations as an indented JSON array
type JSONCodec struct{}

func (JSONCodec) Marshal(locs []models.Location) ([]byte, error) {
	if locs == nil {
		locs = []models.Location{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(locs); err != nil {
		return nil, fmt.Errorf("failed to encode locations: %w", err)
	}
	return buf.Bytes(), nil
}

func (JSONCodec) Unmarshal(data []byte) ([]models.Location, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var locs []models.Location
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&locs); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("failed to decode locations: trailing data after array")
	}
	return locs, nil
}

// YAMLCodec stores locations as a YAML sequence
type YAMLCodec struct{}

func (YAMLCodec) Marshal(locs []models.Location) ([]byte, error) {
	if locs == nil {
		locs = []models.Location{}
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(locs); err != nil {
		return nil, fmt.Errorf("failed to encode locations: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode locations: %w", err)
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Unmarshal(data []byte) ([]models.Location, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var locs []models.Location
	if err := yaml.Unmarshal(data, &locs); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	return locs, nil
}

// CodecFor picks a codec from the file extension. JSON is the default.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	default:
		return JSONCodec{}
	}
}
