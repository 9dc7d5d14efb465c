// Package state holds the shared run state a deep agent and its sub-agents
// coordinate through: a virtual in-memory filesystem, a todo list, and two
// free-form maps for metadata and run context. One State is created per
// top-level invocation (or supplied pre-populated for multi-turn
// continuity) and passed by shared reference into every tool call and
// sub-agent run, so a sub-agent's mutations are visible to its parent the
// moment the delegation returns.
package state

import (
	"sync"
)

// State aggregates the stores every invocation in a run chain shares. It is
// the unit of dependency injection: tools never hold state of their own,
// they observe and mutate the State they are handed.
type State struct {
	files *FileStore
	todos *TodoList

	mu       sync.RWMutex
	metadata map[string]any
	context  map[string]any
}

// New returns an empty State.
func New() *State {
	return &State{
		files:    NewFileStore(),
		todos:    NewTodoList(),
		metadata: map[string]any{},
		context:  map[string]any{},
	}
}

// NewWithFiles returns a State pre-seeded with the given files.
func NewWithFiles(files map[string]string) *State {
	st := New()
	st.files.Merge(files)
	return st
}

// Files returns the shared virtual filesystem.
func (s *State) Files() *FileStore { return s.files }

// Todos returns the shared todo list.
func (s *State) Todos() *TodoList { return s.todos }

// SetMetadata records an identification value such as the agent id.
func (s *State) SetMetadata(key string, value any) {
	s.mu.Lock()
	s.metadata[key] = value
	s.mu.Unlock()
}

// Metadata returns the metadata value stored under key.
func (s *State) Metadata(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.metadata[key]
	return value, ok
}

// SetContext stores a free-form run context value.
func (s *State) SetContext(key string, value any) {
	s.mu.Lock()
	s.context[key] = value
	s.mu.Unlock()
}

// Context returns the run context value stored under key.
func (s *State) Context(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.context[key]
	return value, ok
}

// InitFiles bulk-loads files into the virtual filesystem, merging over any
// existing entries.
func (s *State) InitFiles(files map[string]string) {
	s.files.Merge(files)
}

// Snapshot is the serializable view of a State consumed by inspection and
// persistence tooling.
type Snapshot struct {
	Files    map[string]string `json:"files"`
	Todos    []Todo            `json:"todos"`
	Metadata map[string]any    `json:"metadata"`
	Context  map[string]any    `json:"context"`
}

// Snapshot deep-copies the current files, todos, metadata, and context.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	meta := cloneMap(s.metadata)
	rctx := cloneMap(s.context)
	s.mu.RUnlock()

	todos := s.todos.Get()
	if todos == nil {
		todos = []Todo{}
	}
	return Snapshot{
		Files:    s.files.Snapshot(),
		Todos:    todos,
		Metadata: meta,
		Context:  rctx,
	}
}

// cloneMap deep-copies a metadata/context map so a snapshot never shares
// nested maps or slices with the live State.
func cloneMap(src map[string]any) map[string]any {
	dup := make(map[string]any, len(src))
	for key, value := range src {
		dup[key] = cloneValue(value)
	}
	return dup
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		dup := make([]any, len(v))
		for i, elem := range v {
			dup[i] = cloneValue(elem)
		}
		return dup
	default:
		return v
	}
}
