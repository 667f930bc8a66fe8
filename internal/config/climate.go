package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ClimaticState is one row of the climatic state table
type ClimaticState struct {
	ID                 string  `json:"-"`
	Description        string  `json:"descripcion"`
	Temperature        float64 `json:"temperatura"`         // °C
	WindVelocity       float64 `json:"viento_velocidad"`    // m/s
	IceThickness       float64 `json:"espesor_hielo"`       // m
	MaxTensionFraction float64 `json:"restriccion_tension"` // fraction of ultimate load, 0 = unrestricted
	SagRatioLimit      float64 `json:"relflecha_max"`       // guard/conductor sag ratio cap, 0 = unrestricted
}

// ClimaticStates keeps the user ordering; the first state seeds the change-of-state iteration.
// It encodes as a JSON object whose key order is preserved.
type ClimaticStates []ClimaticState

// IDs returns the state ids in order
func (cs ClimaticStates) IDs() []string {
	ids := make([]string, len(cs))
	for i, s := range cs {
		ids[i] = s.ID
	}
	return ids
}

// Get returns the state with the given id
func (cs ClimaticStates) Get(id string) (ClimaticState, bool) {
	for _, s := range cs {
		if s.ID == id {
			return s, true
		}
	}
	return ClimaticState{}, false
}

// Index returns the position of a state, -1 when absent
func (cs ClimaticStates) Index(id string) int {
	for i, s := range cs {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (cs ClimaticStates) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (cs *ClimaticStates) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("estados_climaticos must be an object")
	}
	var out ClimaticStates
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("estados_climaticos: invalid key %v", tok)
		}
		var s ClimaticState
		if err := dec.Decode(&s); err != nil {
			return fmt.Errorf("estados_climaticos[%s]: %w", id, err)
		}
		s.ID = id
		out = append(out, s)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*cs = out
	return nil
}

// DefaultStates returns the usual five-state table used for Argentine lines
func DefaultStates() ClimaticStates {
	return ClimaticStates{
		{ID: "I", Description: "Temperatura máxima", Temperature: 35, MaxTensionFraction: 0.25, SagRatioLimit: 0.9},
		{ID: "II", Description: "Temperatura mínima", Temperature: -10, MaxTensionFraction: 0.40},
		{ID: "III", Description: "Viento máximo", Temperature: 10, WindVelocity: 38.9, MaxTensionFraction: 0.40},
		{ID: "IV", Description: "Hielo y viento", Temperature: -5, WindVelocity: 10, IceThickness: 0.01, MaxTensionFraction: 0.40},
		{ID: "V", Description: "Temperatura media", Temperature: 16, MaxTensionFraction: 0.25},
	}
}
