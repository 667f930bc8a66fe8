package cache

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/agerpk/estructural/internal/aea"
	"github.com/agerpk/estructural/internal/cable"
	"github.com/agerpk/estructural/internal/config"
)

// Canonical re-encodes v as JSON with object keys sorted at every level
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	// encoding/json writes map keys in sorted order
	return json.Marshal(tree)
}

type fingerprintInput struct {
	Config     *config.StructureConfig `json:"estructura"`
	StateOrder []string                `json:"orden_estados"`
	Cables     cable.Catalogue         `json:"cables"`
	Hypotheses aea.Catalogue           `json:"hipotesis,omitempty"`
}

// Fingerprint hashes the configuration together with the catalogue entries
// it references. Climatic state order is part of the hash because sorting the
// keys would otherwise erase it.
func Fingerprint(cfg *config.StructureConfig, cat cable.Catalogue, hyps aea.Catalogue) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("fingerprint of a nil configuration")
	}
	used, err := cat.Subset(cfg.CableIDs())
	if err != nil {
		return "", err
	}
	data, err := Canonical(fingerprintInput{
		Config:     cfg,
		StateOrder: cfg.States.IDs(),
		Cables:     used,
		Hypotheses: hyps,
	})
	if err != nil {
		return "", fmt.Errorf("canonical config: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}
