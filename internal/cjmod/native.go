package cjmod

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// NativeModule hosts one compiled CJMOD WASM binary (spec.md §1: CJMOD
// is "a native-loadable extension module"). Each exported function
// `chtl_cjmod_<trigger>` becomes one Rule's Handler, called with its
// CapturedArgs serialized as a flat `key=value` block written into the
// guest's linear memory and read back the same way — the minimal
// host/guest contract a CJMOD author's build toolchain targets,
// without requiring any particular language runtime inside the module.
type NativeModule struct {
	ctx      context.Context
	runtime  wazero.Runtime
	module   api.Module
	alloc    api.Function
	dealloc  api.Function
	registry *Registry
}

// LoadNative compiles and instantiates a CJMOD WASM binary and returns
// the host wrapping it. Callers should call Close when the
// compilation unit finishes.
func LoadNative(ctx context.Context, wasmBytes []byte) (*NativeModule, error) {
	runtime := wazero.NewRuntime(ctx)
	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("cjmod: compile wasm module: %w", err)
	}
	mod, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("cjmod: instantiate wasm module: %w", err)
	}

	n := &NativeModule{ctx: ctx, runtime: runtime, module: mod}
	n.alloc = mod.ExportedFunction("cjmod_alloc")
	n.dealloc = mod.ExportedFunction("cjmod_dealloc")
	return n, nil
}

// Close releases the underlying wazero runtime.
func (n *NativeModule) Close() error {
	return n.runtime.Close(n.ctx)
}

// RegisterExports wires every `chtl_cjmod_<trigger>` export the module
// declares (per its [Export] manifest, see internal/module) into
// registry, each as a Handler that marshals CapturedArgs across the
// host/guest boundary.
func (n *NativeModule) RegisterExports(registry *Registry, triggers map[string]string) error {
	for trigger, pattern := range triggers {
		fn := n.module.ExportedFunction(exportSymbol(trigger))
		if fn == nil {
			return fmt.Errorf("cjmod: wasm module has no export %q for trigger %q", exportSymbol(trigger), trigger)
		}
		handler := n.makeHandler(fn)
		if err := registry.Register(trigger, pattern, handler); err != nil {
			return err
		}
	}
	return nil
}

func exportSymbol(trigger string) string {
	return "chtl_cjmod_" + sanitizeSymbol(trigger)
}

// sanitizeSymbol maps an arbitrary trigger keyword (including an
// operator like "**") to a valid WASM export name.
func sanitizeSymbol(trigger string) string {
	var sb strings.Builder
	for _, r := range trigger {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			fmt.Fprintf(&sb, "_%02x", r)
		}
	}
	return sb.String()
}

func (n *NativeModule) makeHandler(fn api.Function) Handler {
	return func(args CapturedArgs) (string, error) {
		payload := encodeArgs(args)
		inPtr, err := n.writeMemory(payload)
		if err != nil {
			return "", err
		}
		defer n.free(inPtr, uint32(len(payload)))

		results, err := fn.Call(n.ctx, uint64(inPtr), uint64(len(payload)))
		if err != nil {
			return "", fmt.Errorf("cjmod: native handler call failed: %w", err)
		}
		if len(results) != 2 {
			return "", fmt.Errorf("cjmod: native handler must return (ptr, len), got %d values", len(results))
		}
		outPtr, outLen := uint32(results[0]), uint32(results[1])
		defer n.free(outPtr, outLen)

		out, ok := n.module.Memory().Read(outPtr, outLen)
		if !ok {
			return "", fmt.Errorf("cjmod: native handler returned out-of-bounds memory span")
		}
		return string(out), nil
	}
}

func (n *NativeModule) writeMemory(data []byte) (uint32, error) {
	if n.alloc == nil {
		return 0, fmt.Errorf("cjmod: wasm module does not export cjmod_alloc")
	}
	results, err := n.alloc.Call(n.ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("cjmod: cjmod_alloc failed: %w", err)
	}
	ptr := uint32(results[0])
	if !n.module.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("cjmod: writing %d bytes at offset %d is out of bounds", len(data), ptr)
	}
	return ptr, nil
}

func (n *NativeModule) free(ptr, size uint32) {
	if n.dealloc == nil {
		return
	}
	_, _ = n.dealloc.Call(n.ctx, uint64(ptr), uint64(size))
}

// encodeArgs renders CapturedArgs as newline-separated `key=value`
// pairs, sorted by key so a native handler gets a deterministic input
// regardless of Go's map iteration order.
func encodeArgs(args CapturedArgs) []byte {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(args[k])
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}
