// Package backendtest runs an in-process stand-in for the tutor backend.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"hydratutor/internal/constants"
	"hydratutor/internal/protocol"
)

type Call struct {
	Endpoint string
	Method   string
	Params   url.Values
}

// Server records every call and answers with canned tutor responses.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	failures map[string]string
	holds    map[string]chan struct{}
	entered  map[string]chan struct{}

	Tree     []protocol.TreeNode
	BackTree []protocol.TreeNode
	Rows     [][]any
	Data     map[string]any
	Links    map[string]string
	State    protocol.TreeState
}

func New(t testing.TB) *Server {
	s := &Server{
		failures: make(map[string]string),
		holds:    make(map[string]chan struct{}),
		entered:  make(map[string]chan struct{}),
		Tree: []protocol.TreeNode{{
			Title:  "X",
			Folder: true,
			Children: []protocol.TreeNode{
				{Title: "A*"},
				{Title: "B"},
			},
		}},
		Rows:  [][]any{{"A", 1}, {"B", 2}},
		Data:  map[string]any{"tcomp": map[string]any{"t": "kt", "size": 500}},
		Links: map[string]string{"DataKeyTop": "http://docs.example/DataKeyTop.Config.html"},
		State: protocol.TreeState{Stash: "[]"},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// FailWith makes endpoint answer 200 with a plain-text body.
func (s *Server) FailWith(endpoint, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = body
}

func (s *Server) Recover(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, endpoint)
}

// Hold blocks endpoint until the returned release func is called. The
// entered channel is closed once a request is parked.
func (s *Server) Hold(endpoint string) (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{})
	s.holds[endpoint] = gate
	s.entered[endpoint] = in
	var once sync.Once
	return in, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, endpoint)
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *Server) Calls(endpoint string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Endpoint == endpoint {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) CallCount(endpoint string) int {
	return len(s.Calls(endpoint))
}

func (s *Server) LastCall(endpoint string) (Call, bool) {
	calls := s.Calls(endpoint)
	if len(calls) == 0 {
		return Call{}, false
	}
	return calls[len(calls)-1], true
}

func (s *Server) StoredStash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State.Stash
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	endpoint := r.URL.Path

	s.mu.Lock()
	s.calls = append(s.calls, Call{Endpoint: endpoint, Method: r.Method, Params: r.Form})
	gate := s.holds[endpoint]
	in := s.entered[endpoint]
	if in != nil {
		delete(s.entered, endpoint)
	}
	failure, failing := s.failures[endpoint]
	s.mu.Unlock()

	if gate != nil {
		if in != nil {
			close(in)
		}
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if failing {
		fmt.Fprint(w, failure)
		return
	}

	switch endpoint {
	case constants.EndpointFilterPost:
		writeJSON(w, protocol.FilterResult{
			Output:   strings.ToUpper(r.Form.Get("input")),
			Messages: "filter " + r.Form.Get("filtertype"),
		})
	case constants.EndpointFilterReset:
		writeJSON(w, "ok")
	case constants.EndpointTreeBuild, constants.EndpointTreeStep:
		s.remember(r.Form)
		writeJSON(w, s.Tree)
	case constants.EndpointTreeBack:
		back := s.BackTree
		if back == nil {
			back = []protocol.TreeNode{}
		}
		writeJSON(w, back)
	case constants.EndpointTreeQuery:
		s.mu.Lock()
		s.State.Path = r.Form.Get("path")
		s.State.Ops = r.Form.Get("ops")
		s.mu.Unlock()
		writeJSON(w, s.Rows)
	case constants.EndpointTreeStash:
		s.mu.Lock()
		s.State.Stash = r.Form.Get("stash")
		s.mu.Unlock()
		fmt.Fprint(w, "Your stash has been updated.")
	case constants.EndpointTreeReset:
		s.mu.Lock()
		s.State = protocol.TreeState{Stash: s.State.Stash}
		s.mu.Unlock()
		fmt.Fprint(w, "Your session has been reset.")
	case constants.EndpointTreeGetState:
		s.mu.Lock()
		state := s.State
		s.mu.Unlock()
		writeJSON(w, []protocol.TreeState{state})
	case constants.EndpointTreeGetData:
		s.writeData(w, r.Form.Get("path"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) remember(form url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State.Input = form.Get("inputText")
	s.State.Configuration = form.Get("configuration")
}

func (s *Server) writeData(w http.ResponseWriter, path string) {
	links, _ := json.Marshal([]map[string]string{{}})
	attachment := protocol.NodeAttachments{Data: "None", Links: string(links)}
	if strings.HasSuffix(path, "*") {
		data, _ := json.Marshal([]any{s.Data})
		links, _ = json.Marshal([]map[string]string{s.Links})
		attachment = protocol.NodeAttachments{Data: string(data), Links: string(links)}
	}
	writeJSON(w, []protocol.NodeAttachments{attachment})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
