// Package dashboard serves a local, live view of the stash library. Every
// stash mutation re-renders the full library and pushes it to connected
// browsers over a websocket.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"hydratutor/internal/constants"
	"hydratutor/internal/logging"
	"hydratutor/internal/stash"
	"hydratutor/internal/ui"
)

const previewLen = 80

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		host := r.Header.Get("Origin")
		return host == "" || strings.Contains(host, "localhost") || strings.Contains(host, "127.0.0.1")
	},
	ReadBufferSize:  constants.DashboardWSReadBuffer,
	WriteBufferSize: constants.DashboardWSWriteBuffer,
}

type message struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	HTML string `json:"html"`
}

type Dashboard struct {
	title string
	port  int
	log   *zap.Logger
	tmpl  *template.Template

	mu       sync.RWMutex
	snap     stash.Snapshot
	fragment string

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
	sent      uint64

	server   *http.Server
	listener net.Listener
	pushes   sync.WaitGroup
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewLen {
		return string(r[:previewLen]) + "…"
	}
	return s
}

func loadTemplates() (*template.Template, error) {
	layout, err := ui.Templates.ReadFile("layout.html")
	if err != nil {
		return nil, err
	}
	library, err := ui.Templates.ReadFile("library.html")
	if err != nil {
		return nil, err
	}
	t, err := template.New("layout").Funcs(template.FuncMap{"preview": preview}).Parse(string(layout))
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if _, err := t.Parse(string(library)); err != nil {
		return nil, fmt.Errorf("failed to parse library: %w", err)
	}
	return t, nil
}

// New prepares a dashboard for s. Registering with s draws the current
// library; afterwards s drives it through Render.
func New(port int, s *stash.Stash, log *zap.Logger) (*Dashboard, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		title:   "hydra " + s.Variant() + " tutor",
		port:    port,
		log:     logging.OrNop(log),
		tmpl:    tmpl,
		clients: make(map[*websocket.Conn]bool),
	}
	s.AddRenderer(d)
	return d, nil
}

// Render redraws the library from snap and pushes it to every browser.
func (d *Dashboard) Render(snap stash.Snapshot) {
	var buf bytes.Buffer
	if err := d.tmpl.ExecuteTemplate(&buf, "library", snap); err != nil {
		d.log.Error("failed to render library", zap.Error(err))
		return
	}

	d.mu.Lock()
	if snap.Seq < d.snap.Seq {
		d.mu.Unlock()
		return
	}
	d.snap = snap
	d.fragment = buf.String()
	d.mu.Unlock()

	d.pushes.Add(1)
	go func() {
		defer d.pushes.Done()
		d.broadcast()
	}()
}

func (d *Dashboard) current() (stash.Snapshot, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap, d.fragment
}

// broadcast sends the newest fragment. Older pushes that lose the race are
// dropped so browsers never go backwards.
func (d *Dashboard) broadcast() {
	snap, fragment := d.current()

	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()
	if snap.Seq < d.sent {
		return
	}
	d.sent = snap.Seq

	data, err := json.Marshal(message{Type: "library", Seq: snap.Seq, HTML: fragment})
	if err != nil {
		return
	}
	for client := range d.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			client.Close()
			delete(d.clients, client)
		}
	}
}

// Handler is the full dashboard: routes, middleware and h2c.
func (d *Dashboard) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.handleIndex)
	mux.HandleFunc("/ws", d.handleWebSocket)
	mux.HandleFunc("/api/stash", d.handleStash)

	var handler http.Handler = mux
	handler = recoveryMiddleware(d.log)(handler)
	handler = securityHeaders(handler)
	handler = gzipMiddleware(handler)
	return h2c.NewHandler(handler, &http2.Server{})
}

func (d *Dashboard) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", constants.DashboardHost, d.port))
	if err != nil {
		return fmt.Errorf("failed to listen for dashboard: %w", err)
	}
	d.listener = ln
	d.server = &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.log.Error("dashboard server error", zap.Error(err))
		}
	}()
	d.log.Debug("dashboard started", zap.String("url", d.URL()))
	return nil
}

func (d *Dashboard) Stop() error {
	if d.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.DashboardShutdownTimeout)
	defer cancel()
	err := d.server.Shutdown(ctx)

	d.clientsMu.Lock()
	for client := range d.clients {
		client.Close()
		delete(d.clients, client)
	}
	d.clientsMu.Unlock()
	d.pushes.Wait()
	return err
}

func (d *Dashboard) URL() string {
	if d.listener != nil {
		return "http://" + d.listener.Addr().String()
	}
	return fmt.Sprintf("http://%s:%d", constants.DashboardHost, d.port)
}

func (d *Dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap, _ := d.current()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := d.tmpl.ExecuteTemplate(w, "layout", map[string]any{
		"Title":    d.title,
		"UID":      snap.UID,
		"Variant":  snap.Variant,
		"Snapshot": snap,
	})
	if err != nil {
		d.log.Error("failed to render dashboard", zap.Error(err))
	}
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// register and send the current library under one lock so the client
	// neither misses nor reorders a push
	d.clientsMu.Lock()
	snap, fragment := d.current()
	data, _ := json.Marshal(message{Type: "library", Seq: snap.Seq, HTML: fragment})
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		d.clientsMu.Unlock()
		return
	}
	d.clients[conn] = true
	d.clientsMu.Unlock()

	defer func() {
		d.clientsMu.Lock()
		delete(d.clients, conn)
		d.clientsMu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

type stashDoc struct {
	Variant string        `json:"variant"`
	UID     string        `json:"uid"`
	Seq     uint64        `json:"seq"`
	Current string        `json:"current"`
	Entries []stash.Entry `json:"entries"`
}

func (d *Dashboard) handleStash(w http.ResponseWriter, r *http.Request) {
	snap, _ := d.current()
	entries := snap.Entries
	if entries == nil {
		entries = []stash.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stashDoc{
		Variant: snap.Variant,
		UID:     snap.UID,
		Seq:     snap.Seq,
		Current: snap.Current,
		Entries: entries,
	})
}
