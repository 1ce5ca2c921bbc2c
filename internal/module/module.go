// Package module implements the Module Manager (spec.md §4 "N",
// SPEC_FULL.md supplement 6): `.cmod`/`.cjmod` ZIP archive validation,
// `[Info]`/`[Export]` manifest parsing, and version-range enforcement
// against the compiler's own version.
package module

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/locker"
	"github.com/bep/clocks"
	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/fsync"

	"github.com/chtl-lang/chtl/internal/diag"
)

// CompilerVersion is the version [Info]'s minCHTLVersion/maxCHTLVersion
// range is checked against (SPEC_FULL.md supplement 6).
const CompilerVersion = "0.1.0"

// Kind distinguishes a CHTL source module from a native CJMOD
// extension module.
type Kind int

const (
	CMOD Kind = iota
	CJMOD
)

func (k Kind) String() string {
	if k == CJMOD {
		return "cjmod"
	}
	return "cmod"
}

// Module is one opened, validated `.cmod`/`.cjmod` archive.
type Module struct {
	Kind     Kind
	Path     string
	Manifest Manifest

	Source string            // src/NAME.chtl content (CMOD)
	Subs   map[string]string // src/Sub/Sub.chtl content, keyed by submodule name (CMOD)
	Native []byte            // the native WASM payload (CJMOD)
}

// Manager opens and caches `.cmod`/`.cjmod` archives. One Manager is
// shared across a dispatcher's concurrent per-unit compilations
// (spec.md §5); its internal locker serializes concurrent opens of the
// same archive so two goroutines never race on the same cache entry.
type Manager struct {
	locks    *locker.Locker
	clock    clocks.Clock
	cacheDir string

	mu     sync.Mutex
	opened map[string]*Module
}

// NewManager returns a Manager caching extracted archive content under
// cacheDir (created on first use).
func NewManager(cacheDir string) *Manager {
	return &Manager{
		locks:    locker.NewLocker(),
		clock:    clocks.System,
		cacheDir: cacheDir,
		opened:   map[string]*Module{},
	}
}

// Open validates and parses the archive at p, caching the result by
// its cleaned path so repeat imports of the same module (spec.md
// §4.C4 "Duplicate detection") are a cache hit rather than a re-read.
func (m *Manager) Open(rep *diag.Reporter, p string) (*Module, error) {
	key := path.Clean(filepath.ToSlash(p))
	m.locks.Lock(key)
	defer m.locks.Unlock(key)

	m.mu.Lock()
	if mod, ok := m.opened[key]; ok {
		m.mu.Unlock()
		return mod, nil
	}
	m.mu.Unlock()

	mod, err := m.open(rep, p)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.opened[key] = mod
	m.mu.Unlock()
	return mod, nil
}

func (m *Manager) open(rep *diag.Reporter, p string) (*Module, error) {
	kind, err := kindOf(p)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("module: %w", err)
	}

	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("module: opening %s as a zip archive: %w", p, err)
	}
	defer zr.Close()

	name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))

	infoPath := path.Join("info", name+".chtl")
	infoRaw, err := readZipFile(&zr.Reader, infoPath)
	if err != nil {
		return nil, fmt.Errorf("module: %s is missing required manifest %s: %w", p, infoPath, err)
	}

	manifest, err := ParseManifest(infoRaw)
	if err != nil {
		return nil, fmt.Errorf("module: %s: %w", p, err)
	}
	if manifest.Info.Name == "" {
		manifest.Info.Name = name
	}

	if err := checkVersionRange(manifest.Info); err != nil {
		return nil, fmt.Errorf("module: %s: %w", p, err)
	}

	mod := &Module{Kind: kind, Path: p, Manifest: manifest}

	switch kind {
	case CMOD:
		srcPath := path.Join("src", name+".chtl")
		src, err := readZipFile(&zr.Reader, srcPath)
		if err != nil {
			return nil, fmt.Errorf("module: %s is missing required source %s: %w", p, srcPath, err)
		}
		mod.Source = src
		mod.Subs = collectSubmodules(&zr.Reader, name)
	case CJMOD:
		native, nativePath, err := findNativePayload(&zr.Reader)
		if err != nil {
			return nil, fmt.Errorf("module: %s: %w", p, err)
		}
		mod.Native = native
		_ = nativePath
	}

	if rep != nil {
		rep.Warnf(diag.Import, diag.Position{File: p}, "loaded %s module %q (%s, %s)",
			kind, manifest.Info.Name, manifest.Info.Version, humanize.Bytes(uint64(info.Size())))
	}
	_ = m.clock.Now()
	return mod, nil
}

func kindOf(p string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".cmod":
		return CMOD, nil
	case ".cjmod":
		return CJMOD, nil
	default:
		return 0, fmt.Errorf("module: %s has neither a .cmod nor .cjmod extension", p)
	}
}

// checkVersionRange enforces info.MinCHTLVersion/MaxCHTLVersion
// against CompilerVersion, rejecting an out-of-range archive as an
// Import-class error (SPEC_FULL.md supplement 6).
func checkVersionRange(info Info) error {
	if info.MinCHTLVersion != "" && compareVersions(CompilerVersion, info.MinCHTLVersion) < 0 {
		return fmt.Errorf("requires CHTL >= %s, this compiler is %s", info.MinCHTLVersion, CompilerVersion)
	}
	if info.MaxCHTLVersion != "" && compareVersions(CompilerVersion, info.MaxCHTLVersion) > 0 {
		return fmt.Errorf("requires CHTL <= %s, this compiler is %s", info.MaxCHTLVersion, CompilerVersion)
	}
	return nil
}

// compareVersions compares two dotted-numeric version strings,
// returning -1, 0, or 1. Non-numeric or missing components compare as
// 0, so "1.0" and "1.0.0" are considered equal.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func readZipFile(zr *zip.Reader, name string) (string, error) {
	for _, f := range zr.File {
		if zipSlashClean(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("entry not found")
}

// collectSubmodules reads every src/Sub/Sub.chtl entry (a submodule
// sharing its directory and file name), keyed by Sub.
func collectSubmodules(zr *zip.Reader, moduleName string) map[string]string {
	prefix := path.Join("src") + "/"
	subs := map[string]string{}
	for _, f := range zr.File {
		clean := zipSlashClean(f.Name)
		if !strings.HasPrefix(clean, prefix) {
			continue
		}
		rel := strings.TrimPrefix(clean, prefix)
		dir, file := path.Split(rel)
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" || dir == moduleName {
			continue
		}
		subName := path.Base(dir)
		if file != subName+".chtl" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		subs[subName] = string(data)
	}
	return subs
}

// findNativePayload locates the single `.wasm` entry a `.cjmod`
// archive carries. The manager validates archive structure only; it
// never executes or compiles the payload (internal/cjmod's
// wazero-hosted loader does, once the dispatcher hands this off).
func findNativePayload(zr *zip.Reader) ([]byte, string, error) {
	for _, f := range zr.File {
		clean := zipSlashClean(f.Name)
		if strings.HasSuffix(clean, ".wasm") {
			rc, err := f.Open()
			if err != nil {
				return nil, "", err
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, "", err
			}
			return data, clean, nil
		}
	}
	return nil, "", fmt.Errorf("no .wasm payload found")
}

// zipSlashClean rejects a zip-slip path (absolute, or escaping the
// archive root via "..") and returns the cleaned, forward-slashed
// form, so readZipFile/collectSubmodules never honor a malicious entry
// name.
func zipSlashClean(name string) string {
	clean := path.Clean(filepath.ToSlash(name))
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return ""
	}
	return clean
}

// Extract writes mod's CMOD source tree to the Manager's cache
// directory, keyed by a hash of its cleaned archive path, and
// returns that directory. A repeated extraction of the same module
// syncs incrementally via fsync (mtime-aware, so an unchanged archive
// touches nothing on disk) rather than rewriting every file — the same
// pattern Hugo's own publish step uses for its output directory.
func (m *Manager) Extract(mod *Module) (string, error) {
	if mod.Kind != CMOD {
		return "", fmt.Errorf("module: %s is a %s archive, not extractable as CHTL source", mod.Path, mod.Kind)
	}

	destDir := filepath.Join(m.cacheDir, cacheKey(mod.Path))
	m.locks.Lock(destDir)
	defer m.locks.Unlock(destDir)

	tmp, err := os.MkdirTemp("", "chtl-module-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)

	name := strings.TrimSuffix(filepath.Base(mod.Path), filepath.Ext(mod.Path))
	if err := os.WriteFile(filepath.Join(tmp, name+".chtl"), []byte(mod.Source), 0o644); err != nil {
		return "", err
	}
	for sub, content := range mod.Subs {
		dir := filepath.Join(tmp, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(dir, sub+".chtl"), []byte(content), 0o644); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	syncer := fsync.NewSyncer()
	if err := syncer.Sync(destDir, tmp); err != nil {
		return "", err
	}
	return destDir, nil
}

// cacheKey derives a stable on-disk cache directory name for an opened
// archive, so two imports of the same path never collide on a
// partially-written extraction.
func cacheKey(p string) string {
	return strconv.FormatUint(xxhash.Sum64String(path.Clean(filepath.ToSlash(p))), 16)
}
