package ir

import (
	"sync"
)

// ErrorEntry is one registered abort reason. Message entries come from
// require/revert strings; custom entries from `error` declarations.
type ErrorEntry struct {
	Code    uint32
	Key     string
	Message string
	Custom  *ErrorDef
}

// CompilationContext owns the state shared by every stage of one
// compilation: the error registry and the event counter. It is safe for
// concurrent use; separate compilations use separate contexts.
type CompilationContext struct {
	mu      sync.Mutex
	entries []*ErrorEntry
	byKey   map[string]*ErrorEntry
	events  int
}

func NewCompilationContext() *CompilationContext {
	return &CompilationContext{byKey: make(map[string]*ErrorEntry)}
}

// RegisterMessage returns the entry for message, assigning the next code
// the first time the message is seen.
func (c *CompilationContext) RegisterMessage(message string) *ErrorEntry {
	return c.register("msg:"+message, message, nil)
}

// RegisterCustom registers a custom error declaration under its name.
func (c *CompilationContext) RegisterCustom(def *ErrorDef) *ErrorEntry {
	entry := c.register("error:"+def.Name, def.Name, def)
	def.Entry = entry
	return entry
}

func (c *CompilationContext) register(key, message string, custom *ErrorDef) *ErrorEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.byKey[key]; ok {
		return entry
	}
	entry := &ErrorEntry{
		Code:    uint32(len(c.entries) + 1),
		Key:     key,
		Message: message,
		Custom:  custom,
	}
	c.entries = append(c.entries, entry)
	c.byKey[key] = entry
	return entry
}

// Errors returns the registered entries in code order.
func (c *CompilationContext) Errors() []*ErrorEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ErrorEntry(nil), c.entries...)
}

// CountEvent records an emitted event declaration and returns the running
// total.
func (c *CompilationContext) CountEvent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events++
	return c.events
}

func (c *CompilationContext) EventCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}
