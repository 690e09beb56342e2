package stash

import (
	"encoding/json"

	"hydratutor/internal/constants"
)

// Entry is one saved session. Filter entries use Filter and FilterType,
// tree entries use Config, Path and Ops.
type Entry struct {
	ID         string
	UID        string
	Input      string
	Filter     string
	FilterType string
	Config     string
	Path       string
	Ops        string
	Date       string
	Href       string
	Variant    string
}

// Fields are the editable parts of an entry.
type Fields struct {
	Input      string
	Filter     string
	FilterType string
	Config     string
	Path       string
	Ops        string
}

func (e Entry) Fields() Fields {
	return Fields{
		Input:      e.Input,
		Filter:     e.Filter,
		FilterType: e.FilterType,
		Config:     e.Config,
		Path:       e.Path,
		Ops:        e.Ops,
	}
}

type filterJSON struct {
	ID         string `json:"id"`
	UID        string `json:"uid"`
	Input      string `json:"input"`
	Filterbox  string `json:"filterbox"`
	Filtertype string `json:"filtertype"`
	Date       string `json:"date"`
	Href       string `json:"href"`
}

type treeJSON struct {
	ID     string `json:"id"`
	UID    string `json:"uid"`
	Input  string `json:"input"`
	Config string `json:"config"`
	Path   string `json:"path"`
	Ops    string `json:"ops"`
	Date   string `json:"date"`
	Href   string `json:"href"`
}

type anyJSON struct {
	ID         string `json:"id"`
	UID        string `json:"uid"`
	Input      string `json:"input"`
	Filterbox  string `json:"filterbox"`
	Filtertype string `json:"filtertype"`
	Config     string `json:"config"`
	Path       string `json:"path"`
	Ops        string `json:"ops"`
	Date       string `json:"date"`
	Href       string `json:"href"`
}

func (e Entry) variant() string {
	if e.Variant != "" {
		return e.Variant
	}
	if e.FilterType != "" {
		return constants.VariantFilter
	}
	return constants.VariantTree
}

// MarshalJSON writes the same keys the browser library writes for the
// entry's variant.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.variant() == constants.VariantFilter {
		return json.Marshal(filterJSON{
			ID:         e.ID,
			UID:        e.UID,
			Input:      e.Input,
			Filterbox:  e.Filter,
			Filtertype: e.FilterType,
			Date:       e.Date,
			Href:       e.Href,
		})
	}
	return json.Marshal(treeJSON{
		ID:     e.ID,
		UID:    e.UID,
		Input:  e.Input,
		Config: e.Config,
		Path:   e.Path,
		Ops:    e.Ops,
		Date:   e.Date,
		Href:   e.Href,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw anyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{
		ID:         raw.ID,
		UID:        raw.UID,
		Input:      raw.Input,
		Filter:     raw.Filterbox,
		FilterType: raw.Filtertype,
		Config:     raw.Config,
		Path:       raw.Path,
		Ops:        raw.Ops,
		Date:       raw.Date,
		Href:       raw.Href,
	}
	e.Variant = e.variant()
	return nil
}

// Encode returns the JSON list pushed to the backend.
func Encode(entries []Entry) (string, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a stash list. A blank document is an empty stash.
func Decode(doc string) ([]Entry, error) {
	if doc == "" {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(doc), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
