package flow

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CredentialInputKey is where some canvases keep the credential id instead
// of on the node data itself.
const CredentialInputKey = "FLOWISE_CREDENTIAL_ID"

const stickyNoteType = "stickyNote"

// Flow is the serialized canvas graph.
type Flow struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type Node struct {
	ID   string   `json:"id"`
	Type string   `json:"type"`
	Data NodeData `json:"data"`
}

type NodeData struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Category    string         `json:"category,omitempty"`
	Credential  string         `json:"credential,omitempty"`
	InputParams []InputParam   `json:"inputParams"`
	Inputs      map[string]any `json:"inputs"`
}

type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty"`
}

// InputParam describes one configurable field of a component. Array holds
// the per-item fields of list parameters.
type InputParam struct {
	Label       string       `json:"label"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Description string       `json:"description,omitempty"`
	Optional    Optional     `json:"optional,omitzero"`
	Show        Conditions   `json:"show,omitempty"`
	Hide        Conditions   `json:"hide,omitempty"`
	Array       []InputParam `json:"array,omitempty"`
	LoadConfig  bool         `json:"loadConfig,omitempty"`
}

// Conditions maps an input path to the value it is compared against.
type Conditions map[string]any

// Optional is either a plain flag or a set of conditions under which the
// parameter may be left empty.
type Optional struct {
	Always     bool
	Conditions Conditions
}

func (o *Optional) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	*o = Optional{}
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return nil
	case trimmed[0] == '{':
		return json.Unmarshal(trimmed, &o.Conditions)
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		o.Always = strings.EqualFold(strings.TrimSpace(s), "true")
		return nil
	default:
		return json.Unmarshal(trimmed, &o.Always)
	}
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if len(o.Conditions) > 0 {
		return json.Marshal(o.Conditions)
	}
	return json.Marshal(o.Always)
}

func (o Optional) IsZero() bool {
	return !o.Always && len(o.Conditions) == 0
}

// IsStickyNote reports whether the node is a canvas annotation.
func (n Node) IsStickyNote() bool {
	return n.Type == stickyNoteType || strings.HasPrefix(n.Data.Name, stickyNoteType)
}

// CredentialID returns the credential attached to the node, if any.
func (n Node) CredentialID() string {
	if strings.TrimSpace(n.Data.Credential) != "" {
		return n.Data.Credential
	}
	if s, ok := n.Data.Inputs[CredentialInputKey].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// DisplayLabel falls back to the component name and then the id.
func (n Node) DisplayLabel() string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	if n.Data.Name != "" {
		return n.Data.Name
	}
	return n.ID
}

// NodeIDs returns the set of node ids present in the flow.
func (f *Flow) NodeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(f.Nodes))
	for _, n := range f.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// ConnectedIDs returns every id referenced by an edge endpoint, whether or
// not a node with that id exists.
func (f *Flow) ConnectedIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(f.Edges)*2)
	for _, e := range f.Edges {
		ids[e.Source] = struct{}{}
		ids[e.Target] = struct{}{}
	}
	return ids
}
