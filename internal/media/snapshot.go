package media

import "encoding/json"

type mediaAlias Media

type mediaJSON struct {
	*mediaAlias
	State  State  `json:"state"`
	Magnet string `json:"magnet,omitempty"`
}

// MarshalJSON includes the unexported lifecycle state and magnet selection
// so snapshots round-trip.
func (m *Media) MarshalJSON() ([]byte, error) {
	return json.Marshal(mediaJSON{
		mediaAlias: (*mediaAlias)(m),
		State:      m.state,
		Magnet:     m.magnet,
	})
}

func (m *Media) UnmarshalJSON(data []byte) error {
	aux := mediaJSON{mediaAlias: (*mediaAlias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.state = aux.State
	if m.state == "" {
		m.state = StateRegistered
	}
	m.magnet = aux.Magnet
	return nil
}
