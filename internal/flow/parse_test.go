package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFlow = `{
	"nodes": [
		{
			"id": "chatOpenAI_0",
			"type": "customNode",
			"data": {
				"id": "chatOpenAI_0",
				"label": "ChatOpenAI",
				"name": "chatOpenAI",
				"credential": "cred-1",
				"inputParams": [
					{"label": "Model Name", "name": "modelName", "type": "options"},
					{"label": "Temperature", "name": "temperature", "type": "number", "optional": true},
					{"label": "Base Path", "name": "basePath", "type": "string", "optional": {"modelName": "custom"}}
				],
				"inputs": {"modelName": "gpt-4o", "temperature": 0.7}
			}
		},
		{"id": "note_0", "type": "stickyNote", "data": {"name": "stickyNote", "inputs": {}}}
	],
	"edges": [
		{"id": "e1", "source": "chatOpenAI_0", "target": "note_0", "sourceHandle": "out", "targetHandle": "in"}
	],
	"viewport": {"x": 0, "y": 0, "zoom": 1}
}`

func TestParse_Object(t *testing.T) {
	f, err := Parse([]byte(sampleFlow))
	require.NoError(t, err)
	require.Len(t, f.Nodes, 2)
	require.Len(t, f.Edges, 1)

	n := f.Nodes[0]
	assert.Equal(t, "chatOpenAI", n.Data.Name)
	assert.Equal(t, "cred-1", n.CredentialID())
	require.Len(t, n.Data.InputParams, 3)
	assert.False(t, n.Data.InputParams[0].Optional.Always)
	assert.True(t, n.Data.InputParams[1].Optional.Always)
	assert.Equal(t, Conditions{"modelName": "custom"}, n.Data.InputParams[2].Optional.Conditions)
	assert.Equal(t, "gpt-4o", n.Data.Inputs["modelName"])
	assert.Equal(t, "e1", f.Edges[0].ID)
	assert.True(t, f.Nodes[1].IsStickyNote())
}

func TestParse_StringifiedJSON(t *testing.T) {
	wrapped, err := json.Marshal(sampleFlow)
	require.NoError(t, err)

	f, err := Parse(wrapped)
	require.NoError(t, err)
	assert.Len(t, f.Nodes, 2)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmptyFlowData},
		{"whitespace", "  \n\t", ErrEmptyFlowData},
		{"broken json", "{not json", ErrMalformedFlowData},
		{"empty string literal", `""`, ErrEmptyFlowData},
		{"broken json in string", `"{not json"`, ErrMalformedFlowData},
		{"array", `[1, 2]`, ErrMalformedFlowData},
		{"number", `42`, ErrMalformedFlowData},
		{"nodes not a list", `{"nodes": {"a": 1}}`, ErrMalformedFlowData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_MissingSections(t *testing.T) {
	f, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, f.Nodes)
	assert.Empty(t, f.Edges)
}

func TestNode_CredentialFromInputs(t *testing.T) {
	n := Node{Data: NodeData{Inputs: map[string]any{CredentialInputKey: " cred-2 "}}}
	assert.Equal(t, "cred-2", n.CredentialID())

	n = Node{Data: NodeData{Inputs: map[string]any{CredentialInputKey: 12}}}
	assert.Equal(t, "", n.CredentialID())
}

func TestNode_IsStickyNote(t *testing.T) {
	assert.True(t, Node{Type: "stickyNote"}.IsStickyNote())
	assert.True(t, Node{Type: "agentFlow", Data: NodeData{Name: "stickyNoteAgentflow"}}.IsStickyNote())
	assert.False(t, Node{Type: "customNode", Data: NodeData{Name: "chatOpenAI"}}.IsStickyNote())
}

func TestFlow_ConnectedIDs(t *testing.T) {
	f := &Flow{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []Edge{{ID: "e1", Source: "a", Target: "b"}, {ID: "e2", Source: "b", Target: "ghost"}},
	}
	connected := f.ConnectedIDs()
	assert.Len(t, connected, 3)
	assert.Contains(t, connected, "ghost")
	assert.NotContains(t, connected, "c")
	assert.Len(t, f.NodeIDs(), 3)
}

func TestOptional_RoundTrip(t *testing.T) {
	var p InputParam
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","optional":null}`), &p))
	assert.True(t, p.Optional.IsZero())

	out, err := json.Marshal(InputParam{Name: "x", Optional: Optional{Conditions: Conditions{"mode": "a"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"","name":"x","type":"","optional":{"mode":"a"}}`, string(out))
}
