package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrEmptyFlowData     = errors.New("flow data is empty")
	ErrMalformedFlowData = errors.New("flow data is malformed")
)

// Parse decodes a serialized flow. Rows written by older clients store the
// document as a JSON string, which is unwrapped once.
func Parse(raw []byte) (*Flow, error) {
	doc := bytes.TrimSpace(raw)
	if len(doc) == 0 {
		return nil, ErrEmptyFlowData
	}
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedFlowData)
	}

	res := gjson.ParseBytes(doc)
	if res.Type == gjson.String {
		inner := bytes.TrimSpace([]byte(res.Str))
		if len(inner) == 0 {
			return nil, ErrEmptyFlowData
		}
		if !gjson.ValidBytes(inner) {
			return nil, fmt.Errorf("%w: invalid JSON inside string", ErrMalformedFlowData)
		}
		doc = inner
		res = gjson.ParseBytes(doc)
	}
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: expected an object with nodes and edges", ErrMalformedFlowData)
	}

	var f Flow
	if err := json.Unmarshal(doc, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFlowData, err)
	}
	return &f, nil
}
