package state

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultReadLimit is how many lines a read returns when the caller does not
// request an explicit window.
const DefaultReadLimit = 2000

// maxLineLength bounds a single rendered line, counted in characters;
// longer lines are cut before numbering.
const maxLineLength = 2000

// FileStore is an in-memory path to text mapping emulating a filesystem for
// agent-visible artifacts. Paths are opaque keys: no directories, no binary
// content, no permissions. A path either exists (mapped to a string,
// possibly empty) or does not. Safe for concurrent use.
//
// Read, Write, and Edit return human-readable strings for success and
// failure alike. The consumer is an LLM tool-call loop that expects text it
// can react to, so failures surface as returned strings, never as faults.
// The exact wording is a compatibility contract with agent instructions
// that parse these results.
type FileStore struct {
	mu    sync.RWMutex
	files map[string]string
	order []string
}

// NewFileStore returns an empty store.
func NewFileStore() *FileStore {
	return &FileStore{files: map[string]string{}}
}

// List returns every known path in first-write order. Rewriting an existing
// path keeps its original position.
func (s *FileStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, len(s.order))
	copy(paths, s.order)
	return paths
}

// Read renders the file in cat -n style: each line prefixed with its 1-based
// number right-aligned to width 6, then a tab. offset is the index of the
// first line to include and limit caps how many lines are returned.
func (s *FileStore) Read(path string, offset, limit int) string {
	s.mu.RLock()
	content, ok := s.files[path]
	s.mu.RUnlock()

	if !ok {
		return fmt.Sprintf("Error: File '%s' not found", path)
	}
	if strings.TrimSpace(content) == "" {
		return "System reminder: File exists but has empty contents"
	}

	lines := strings.Split(content, "\n")
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		return fmt.Sprintf("Error: Line offset %d exceeds file length (%d lines)", offset, len(lines))
	}

	end := offset + limit
	if end > len(lines) {
		end = len(lines)
	}
	if end < offset {
		end = offset
	}

	var b strings.Builder
	for i := offset; i < end; i++ {
		line := lines[i]
		if runes := []rune(line); len(runes) > maxLineLength {
			line = string(runes[:maxLineLength])
		}
		if i > offset {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%6d\t%s", i+1, line)
	}
	return b.String()
}

// Write sets path to content unconditionally. There is no existence check:
// write is an idempotent create-or-replace.
func (s *FileStore) Write(path, content string) string {
	s.mu.Lock()
	if _, exists := s.files[path]; !exists {
		s.order = append(s.order, path)
	}
	s.files[path] = content
	s.mu.Unlock()
	return fmt.Sprintf("Updated file %s", path)
}

// Edit replaces oldStr with newStr inside path. Without replaceAll the old
// string must occur exactly once; ambiguity is reported back as text so the
// caller can retry with more surrounding context.
func (s *FileStore) Edit(path, oldStr, newStr string, replaceAll bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.files[path]
	if !ok {
		return fmt.Sprintf("Error: File '%s' not found", path)
	}
	if !strings.Contains(content, oldStr) {
		return fmt.Sprintf("Error: String not found in file: '%s'", oldStr)
	}

	if replaceAll {
		count := strings.Count(content, oldStr)
		s.files[path] = strings.ReplaceAll(content, oldStr, newStr)
		return fmt.Sprintf("Successfully replaced %d instance(s) of the string in '%s'", count, path)
	}

	if count := strings.Count(content, oldStr); count > 1 {
		return fmt.Sprintf("Error: String '%s' appears %d times in file. Use replace_all=True to replace all instances, or provide a more specific string with surrounding context.", oldStr, count)
	}
	s.files[path] = strings.Replace(content, oldStr, newStr, 1)
	return fmt.Sprintf("Successfully replaced string in '%s'", path)
}

// Clear drops every file. Intended for tests and run resets.
func (s *FileStore) Clear() {
	s.mu.Lock()
	s.files = map[string]string{}
	s.order = nil
	s.mu.Unlock()
}

// Get returns the raw content for path without any rendering.
func (s *FileStore) Get(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	return content, ok
}

// Len reports how many files exist.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Snapshot copies the full path to content mapping.
func (s *FileStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dup := make(map[string]string, len(s.files))
	for path, content := range s.files {
		dup[path] = content
	}
	return dup
}

// Merge bulk-loads files, overwriting existing entries. New paths are
// inserted in sorted order so List stays deterministic regardless of map
// iteration order.
func (s *FileStore) Merge(files map[string]string) {
	if len(files) == 0 {
		return
	}
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	s.mu.Lock()
	for _, path := range paths {
		if _, exists := s.files[path]; !exists {
			s.order = append(s.order, path)
		}
		s.files[path] = files[path]
	}
	s.mu.Unlock()
}
