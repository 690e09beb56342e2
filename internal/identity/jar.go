package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path"`
	Expires time.Time `json:"expires"`
}

// FileJar keeps cookies in a JSON file.
type FileJar struct {
	mu   sync.Mutex
	path string
}

func NewFileJar(path string) *FileJar {
	return &FileJar{path: path}
}

func (j *FileJar) Path() string {
	return j.path
}

func (j *FileJar) Cookie(name string) (*http.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	cookies, err := j.read()
	if err != nil {
		return nil, false
	}
	now := time.Now()
	for _, sc := range cookies {
		c := sc.cookie()
		if sc.Name == name && !expired(c, now) {
			return c, true
		}
	}
	return nil, false
}

func (j *FileJar) SetCookie(c *http.Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	cookies, err := j.read()
	if err != nil {
		cookies = nil
	}

	kept := cookies[:0]
	for _, sc := range cookies {
		if sc.Name != c.Name {
			kept = append(kept, sc)
		}
	}
	kept = append(kept, storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("failed to create cookie directory: %w", err)
	}
	if err := os.WriteFile(j.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookie jar: %w", err)
	}
	return nil
}

func (j *FileJar) read() ([]storedCookie, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cookies []storedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("corrupt cookie jar %s: %w", j.path, err)
	}
	return cookies, nil
}

func (sc storedCookie) cookie() *http.Cookie {
	return &http.Cookie{Name: sc.Name, Value: sc.Value, Path: sc.Path, Expires: sc.Expires}
}

// MemoryJar is a process-local jar.
type MemoryJar struct {
	cookies sync.Map
}

func NewMemoryJar() *MemoryJar {
	return &MemoryJar{}
}

func (j *MemoryJar) Cookie(name string) (*http.Cookie, bool) {
	val, ok := j.cookies.Load(name)
	if !ok {
		return nil, false
	}
	c := val.(*http.Cookie)
	if expired(c, time.Now()) {
		j.cookies.Delete(name)
		return nil, false
	}
	return c, true
}

func (j *MemoryJar) SetCookie(c *http.Cookie) error {
	j.cookies.Store(c.Name, c)
	return nil
}
