package protocol

import (
	"bytes"
	"encoding/json"
)

// FilterResult is the body of /validate/post.
type FilterResult struct {
	Output   string `json:"output"`
	Messages string `json:"messages"`
}

// TreeState is one element of the /tree/getState array. Stash is itself a
// JSON document encoded as a string.
type TreeState struct {
	Input         string `json:"input"`
	Configuration string `json:"configuration"`
	Path          string `json:"path"`
	Ops           string `json:"ops"`
	Stash         string `json:"stash"`
}

// NodeAttachments is one element of the /tree/getData array. Data is either
// the literal "None" or a JSON string holding a one-element array of objects.
type NodeAttachments struct {
	Data  string `json:"data"`
	Links string `json:"links"`
}

// TreeNode is the shape produced by build, step and back.
type TreeNode struct {
	Title    string     `json:"title"`
	Folder   bool       `json:"folder"`
	Children []TreeNode `json:"children,omitempty"`
}

// Cell is a query result value. Strings are kept as-is, everything else
// keeps its JSON text.
type Cell string

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cell(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	*c = Cell(data)
	return nil
}

type Row []Cell

func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = string(c)
	}
	return out
}
