package compiler

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// Options is the external compile-entry-point surface (spec.md §6):
// `compile(source, options)`/`compile_file(path, options)`.
type Options struct {
	PrettyPrint bool `mapstructure:"pretty_print"`
	DebugMode   bool `mapstructure:"debug_mode"`
	StrictMode  bool `mapstructure:"strict_mode"`

	// IncludePaths are extra search roots. pkg/chtl appends them after
	// the default roots (official module dir, ./module, current
	// directory), so they have the lowest priority; Dispatcher.Compile
	// does not read this field.
	IncludePaths []string `mapstructure:"include_paths"`

	// OfficialModuleDir is the highest-priority import search root
	// (spec.md §4.C4); defaults to "./module".
	OfficialModuleDir string `mapstructure:"official_module_dir"`

	// MaxErrors bounds diagnostic accumulation; <= 0 uses
	// diag.MaxErrorsDefault.
	MaxErrors int `mapstructure:"max_errors"`
}

// DefaultOptions returns the zero-configuration option set: no pretty
// printing, no debug output, lenient strictness, "./module" as the
// sole official root.
func DefaultOptions() Options {
	return Options{OfficialModuleDir: "./module"}
}

// OptionsFromMap decodes a loosely-typed option map (as a CLI flag set
// or an embedding host's config object would produce) into Options,
// using mapstructure's weak-typing decode hooks so "true"/"1"/1 are
// all accepted for a bool field the way Hugo's own config loader is
// forgiving about source type.
func OptionsFromMap(raw map[string]any) (Options, error) {
	opts := DefaultOptions()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(raw); err != nil {
		return opts, err
	}
	return opts, nil
}

// ConfigOptions is the `[Configuration]{...}` block surface (spec.md
// §6), parsed out of an ast.Node.Options/NameGroups/OriginTypes map of
// raw strings via cast, the same way internal/module's manifest values
// arrive as strings that need type coercion before use.
type ConfigOptions struct {
	IndexInitialCount int
	OptionCount       int

	DisableNameGroup            bool
	DisableCustomOriginType     bool
	DebugMode                   bool
	DisableStyleAutoAddClass    bool
	DisableStyleAutoAddID       bool
	DisableScriptAutoAddClass   bool
	DisableScriptAutoAddID      bool
	DisableDefaultNamespace     bool

	NameGroups  map[string][]string
	OriginTypes map[string]string
}

// DefaultConfigOptions is the all-features-enabled baseline a document
// without a `[Configuration]` block compiles under.
func DefaultConfigOptions() ConfigOptions {
	return ConfigOptions{IndexInitialCount: 0}
}

// ResolveConfigOptions folds a Configuration node's raw string options
// over the defaults, coercing each recognized key with cast so a
// malformed value (e.g. a non-numeric INDEX_INITIAL_COUNT) degrades to
// the type's zero value instead of failing the compile.
func ResolveConfigOptions(raw map[string]string, nameGroups map[string][]string, originTypes map[string]string) ConfigOptions {
	c := DefaultConfigOptions()
	for key, value := range raw {
		switch key {
		case "INDEX_INITIAL_COUNT":
			c.IndexInitialCount = cast.ToInt(value)
		case "OPTION_COUNT":
			c.OptionCount = cast.ToInt(value)
		case "DISABLE_NAME_GROUP":
			c.DisableNameGroup = cast.ToBool(value)
		case "DISABLE_CUSTOM_ORIGIN_TYPE":
			c.DisableCustomOriginType = cast.ToBool(value)
		case "DEBUG_MODE":
			c.DebugMode = cast.ToBool(value)
		case "DISABLE_STYLE_AUTO_ADD_CLASS":
			c.DisableStyleAutoAddClass = cast.ToBool(value)
		case "DISABLE_STYLE_AUTO_ADD_ID":
			c.DisableStyleAutoAddID = cast.ToBool(value)
		case "DISABLE_SCRIPT_AUTO_ADD_CLASS":
			c.DisableScriptAutoAddClass = cast.ToBool(value)
		case "DISABLE_SCRIPT_AUTO_ADD_ID":
			c.DisableScriptAutoAddID = cast.ToBool(value)
		case "DISABLE_DEFAULT_NAMESPACE":
			c.DisableDefaultNamespace = cast.ToBool(value)
		}
	}
	c.NameGroups = nameGroups
	c.OriginTypes = originTypes
	return c
}
