package filter

import (
	"hydratutor/internal/constants"
	"hydratutor/internal/stash"
)

// Examples are the canned sessions offered to new users.
var Examples = []stash.Fields{
	{Input: "\"harry potter\"\n\"harry\"\n\"potter\"", Filter: `{op : "require", value : ["gandalf", "merlin", "harry potter"]}`},
	{Input: "\"harry potter\"\n\"merlin\"\n\"gandalf\"", Filter: `{op : "case", upper : true}`},
	{Input: `"foo"`, Filter: `{op : "count", format : "0000000"}`},
	{Input: `{hello:"foo", world:"bar"}`, Filter: `{op : "debug"}`},
}

func normalizeType(t string) string {
	if t == "" {
		return constants.FilterTypeAuto
	}
	return t
}

// Save stashes the editor contents and returns the new entry id.
func (s *Session) Save() string {
	f := s.Fields()
	f.FilterType = normalizeType(f.FilterType)
	return s.stash.Save(f)
}

// AddExamples stashes the canned examples. The last one becomes current.
func (s *Session) AddExamples() []string {
	fs := make([]stash.Fields, len(Examples))
	for i, ex := range Examples {
		ex.FilterType = constants.FilterTypeAuto
		fs[i] = ex
	}
	return s.stash.SaveAll(fs)
}

// Permalink returns the id of the current entry, saving the editor contents
// first when nothing is current.
func (s *Session) Permalink() string {
	if cur, ok := s.stash.Current(); ok {
		return cur.ID
	}
	return s.Save()
}

// LoadEntry puts a saved entry back into the editor and clears the display.
func (s *Session) LoadEntry(id string) (stash.Entry, error) {
	e, err := s.stash.Select(id)
	if err != nil {
		return stash.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = e.Input
	s.filter = e.Filter
	switch e.FilterType {
	case constants.FilterTypeAuto, constants.FilterTypeBundle:
		s.filterType = e.FilterType
	default:
		s.filterType = constants.FilterTypeValue
	}
	s.output, s.messages = "", ""
	return e, nil
}

func (s *Session) DeleteEntry(id string) bool {
	return s.stash.Delete(id)
}

func (s *Session) ClearStash() {
	s.stash.Clear()
}
