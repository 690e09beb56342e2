package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"hydratutor/internal/constants"
)

// Field is one key of a JSON object with its raw value, in document order.
type Field struct {
	Name  string
	Value json.RawMessage
}

// Link names a data attachment type and its documentation URL.
type Link struct {
	Name string
	URL  string
}

// NodeData is the decoded form of NodeAttachments.
type NodeData struct {
	None        bool
	Attachments []Field
	Links       []Link
}

// Decode unwraps the doubly encoded data and links strings.
func (a NodeAttachments) Decode() (*NodeData, error) {
	nd := &NodeData{}

	if a.Data == constants.NoData {
		nd.None = true
	} else if a.Data != "" {
		fields, err := firstObject(a.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode node data: %w", err)
		}
		nd.Attachments = fields
	}

	if a.Links != "" {
		fields, err := firstObject(a.Links)
		if err != nil {
			return nil, fmt.Errorf("failed to decode node links: %w", err)
		}
		for _, f := range fields {
			var url string
			if err := json.Unmarshal(f.Value, &url); err != nil {
				url = string(f.Value)
			}
			nd.Links = append(nd.Links, Link{Name: f.Name, URL: url})
		}
	}
	return nd, nil
}

// firstObject reads `[{...}, ...]` and returns the keys of the first object
// in document order. An empty array yields no fields.
func firstObject(doc string) ([]Field, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(doc), &arr); err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, nil
	}
	return OrderedFields(arr[0])
}

// OrderedFields decodes a JSON object keeping key order.
func OrderedFields(raw json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return fields, nil
}
