// Package preference persists the reader's theme choice and mirrors it onto
// the root document element as a marker class.
package preference

import (
	"slices"
	"strings"
	"sync"
)

// Theme is the persisted color scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Key is the storage key holding the theme.
const Key = "theme"

// DarkClass is the class set on the root element while the dark theme is on.
const DarkClass = "dark"

// ParseTheme accepts exactly "dark" or "light".
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case Dark:
		return Dark, true
	case Light:
		return Light, true
	}
	return "", false
}

// ThemeOf maps the dark flag to a Theme.
func ThemeOf(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

// Store reads and writes the theme preference. A Store that cannot be read
// reports ok=false, which callers treat as the light default.
type Store interface {
	Read() (t Theme, ok bool)
	Write(t Theme)
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.Mutex
	value string
	set   bool
}

// NewMemory returns a Memory store holding raw, or an empty store when raw
// is "". Raw values other than "dark" and "light" read as absent.
func NewMemory(raw string) *Memory {
	return &Memory{value: raw, set: raw != ""}
}

func (m *Memory) Read() (Theme, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", false
	}
	return ParseTheme(m.value)
}

func (m *Memory) Write(t Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = string(t), true
}

// ClassList is the class attribute of the root document element.
type ClassList struct {
	mu      sync.Mutex
	classes []string
}

// NewClassList returns a list holding the given classes, deduplicated.
func NewClassList(classes ...string) *ClassList {
	l := &ClassList{}
	for _, c := range classes {
		l.Add(c)
	}
	return l
}

// Add inserts class unless it is already present.
func (l *ClassList) Add(class string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if class == "" || slices.Contains(l.classes, class) {
		return
	}
	l.classes = append(l.classes, class)
}

// Remove deletes class if present.
func (l *ClassList) Remove(class string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.classes = slices.DeleteFunc(l.classes, func(c string) bool { return c == class })
}

// Contains reports whether class is present.
func (l *ClassList) Contains(class string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.classes, class)
}

// String renders the list as an HTML class attribute value.
func (l *ClassList) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.classes, " ")
}

// Apply adds or removes DarkClass on doc to match t.
func Apply(doc *ClassList, t Theme) {
	if doc == nil {
		return
	}
	if t == Dark {
		doc.Add(DarkClass)
	} else {
		doc.Remove(DarkClass)
	}
}
