// Package plugin implements the narrow FFI contract by which the
// interpreter invokes user-supplied native plugins (spec.md §4.6, §6.3): a
// shared library is loaded by path and exactly one symbol,
// `__netter_dispatch`, is resolved and called with a function name and a
// JSON-encoded argument array. purego gives this module dlopen/dlsym
// access to that C ABI without cgo.
package plugin

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ebitengine/purego"
)

// dispatchSymbol is the one symbol every plugin must export (spec.md §4.6).
const dispatchSymbol = "__netter_dispatch"

// dispatchFunc mirrors the plugin's C-ABI signature:
//
//	char* __netter_dispatch(const char* func_name, const char* args_json);
//
// purego.RegisterFunc marshals Go strings to/from the C string ABI: a Go
// string in becomes a NUL-terminated C string, and the returned uintptr is
// read back as a NUL-terminated C string by purego's string return
// handling.
type dispatchFunc func(funcName string, argsJSON string) string

// Plugin is one loaded shared library, resolved to its dispatch symbol.
type Plugin struct {
	alias    string
	path     string
	handle   uintptr
	dispatch dispatchFunc
}

// Load opens the shared library at path and resolves its dispatch symbol.
// The caller (the interpreter's binder) is responsible for first checking
// that path exists on the filesystem (spec.md §4.3); Load itself only
// reports the dlopen/dlsym failure if it occurs.
func Load(alias, path string) (*Plugin, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: failed to load %q: %w", alias, path, err)
	}

	sym, err := purego.Dlsym(handle, dispatchSymbol)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: %q does not export %s: %w", alias, path, dispatchSymbol, err)
	}

	p := &Plugin{alias: alias, path: path, handle: handle}
	purego.RegisterFunc(&p.dispatch, sym)
	return p, nil
}

// Dispatch serializes args as a JSON array, invokes the plugin's dispatch
// symbol, and parses its `OK:`/`ERR:` result (spec.md §4.6, §6.3). A
// malformed response (missing prefix, non-UTF-8 payload) is itself a
// runtime error rather than a panic: the plugin ABI promises well-formed
// UTF-8 text, but the bridge must not trust that promise blindly.
func (p *Plugin) Dispatch(funcName string, args []string) (string, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("plugin %q: failed to encode arguments: %w", p.alias, err)
	}

	result := p.dispatch(funcName, string(argsJSON))
	return parseDispatchResult(p.alias, funcName, result)
}

// parseDispatchResult applies the OK:/ERR: wire contract (spec.md §4.6,
// §6.3) to one raw dispatch response. Split out from Dispatch so the
// parsing rules are unit-testable without a real shared library to dlopen.
func parseDispatchResult(alias, funcName, result string) (string, error) {
	if result == "" {
		return "", fmt.Errorf("plugin %q: function %q returned a malformed (empty) response", alias, funcName)
	}
	if !utf8.ValidString(result) {
		return "", fmt.Errorf("plugin %q: function %q returned a non-UTF-8 response", alias, funcName)
	}

	switch {
	case strings.HasPrefix(result, "OK:"):
		return strings.TrimPrefix(result, "OK:"), nil
	case strings.HasPrefix(result, "ERR:"):
		return "", fmt.Errorf("%s", strings.TrimPrefix(result, "ERR:"))
	default:
		return "", fmt.Errorf("plugin %q: function %q returned a malformed response: %q", alias, funcName, result)
	}
}

// Alias returns the import alias this plugin was bound under.
func (p *Plugin) Alias() string { return p.alias }
