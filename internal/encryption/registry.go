package encryption

import (
	"fmt"
	"sort"
	"sync"
)

// Built-in charset presets
const (
	CharsetDefault = "default"
	CharsetAlnum   = "alnum"
	CharsetUpper   = "upper"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]string)
)

func init() {
	Register(CharsetDefault, DefaultCharset)
	Register(CharsetAlnum, "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")
	Register(CharsetUpper, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
}

// Register adds a named charset preset
func Register(name, charset string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = charset
}

// LookupCharset returns the charset registered under name. An empty name
// resolves to the default set.
func LookupCharset(name string) (string, error) {
	if name == "" {
		name = CharsetDefault
	}

	registryMu.RLock()
	charset, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown charset preset: %s", name)
	}
	return charset, nil
}

// ListRegistered returns all preset names, sorted
func ListRegistered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
