// Package models manages the on-disk model cache: resolving which model
// file to load, downloading models with checksum verification, and
// tracking the default model pointer. The cache lives under the
// ukaddresskit home directory, which defaults to ~/.ukaddresskit and can
// be moved with UKADDRESS_HOME.
package models

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ukaddresskit/ukaddresskit/internal/crf"
)

const (
	// EnvHome overrides the ukaddresskit home directory.
	EnvHome = "UKADDRESS_HOME"
	// EnvModel points at a model file, overriding config and default
	// pointer but not an explicit path.
	EnvModel = "UKADDRESS_MODEL"

	// Suffix is the extension installed model files carry.
	Suffix = ".crfmodel"

	// BaselineName names the embedded model.
	BaselineName = "baseline"

	defaultPointerFile = "default.txt"
	configFile         = "config.json"
)

var (
	// ErrModelUnavailable reports that a requested model could not be
	// found anywhere.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrChecksumMismatch reports that a downloaded model failed its
	// sha256 check.
	ErrChecksumMismatch = errors.New("model checksum mismatch")
)

// ModelInfo describes one installed model file.
type ModelInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Ref identifies a resolved model: either a file on disk or the
// embedded baseline.
type Ref struct {
	Name     string
	Path     string
	Embedded bool
}

// Manager resolves, downloads and loads models below one home
// directory. Loaded taggers are cached, so repeated Open calls for the
// same model are cheap. Safe for concurrent use.
type Manager struct {
	home string

	mu    sync.Mutex
	cache map[string]*crf.Tagger
}

// NewManager builds a Manager over the configured home directory:
// UKADDRESS_HOME when set, otherwise ~/.ukaddresskit.
func NewManager() (*Manager, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return NewManagerAt(expandUser(home)), nil
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}
	return NewManagerAt(filepath.Join(dir, ".ukaddresskit")), nil
}

// NewManagerAt builds a Manager rooted at an explicit home directory.
func NewManagerAt(home string) *Manager {
	return &Manager{home: home, cache: make(map[string]*crf.Tagger)}
}

// HomeDir returns the ukaddresskit home directory.
func (m *Manager) HomeDir() string { return m.home }

// ModelsDir returns the model cache directory below home.
func (m *Manager) ModelsDir() string { return filepath.Join(m.home, "models") }

// ConfigFile returns the path of the JSON config file below home.
func (m *Manager) ConfigFile() string { return filepath.Join(m.home, configFile) }

// Resolve picks the model to use. Discovery order: the explicit path when
// given, the UKADDRESS_MODEL environment variable, the config file's
// model_path, the default pointer in the model cache, and finally the
// embedded baseline. An explicit path that does not exist is an error
// rather than a fallthrough; the later sources are skipped silently when
// they point nowhere.
func (m *Manager) Resolve(explicit string) (Ref, error) {
	if explicit != "" {
		p := expandUser(explicit)
		if isFile(p) {
			return fileRef(p), nil
		}
		return Ref{}, fmt.Errorf("explicit model path %s: %w", explicit, ErrModelUnavailable)
	}
	if env := os.Getenv(EnvModel); env != "" {
		if p := expandUser(env); isFile(p) {
			return fileRef(p), nil
		}
	}
	if p := m.configModelPath(); p != "" {
		return fileRef(p), nil
	}
	if p := m.defaultPointer(); p != "" {
		return fileRef(p), nil
	}
	return Ref{Name: BaselineName, Embedded: true}, nil
}

// Open resolves a model and loads it, reusing a previously loaded tagger
// when possible.
func (m *Manager) Open(explicit string) (*crf.Tagger, error) {
	ref, err := m.Resolve(explicit)
	if err != nil {
		return nil, err
	}
	key := ref.Path
	if ref.Embedded {
		key = "embedded:" + ref.Name
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if tg, ok := m.cache[key]; ok {
		return tg, nil
	}

	var tg *crf.Tagger
	if ref.Embedded {
		tg, err = crf.Load(bytes.NewReader(baselineModel))
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded baseline model: %w", err)
		}
	} else {
		tg, err = crf.Open(ref.Path)
		if err != nil {
			return nil, err
		}
	}
	m.cache[key] = tg
	return tg, nil
}

// Download fetches a model into the cache as <name>.crfmodel, writing
// through a temp file so a failed transfer never clobbers an installed
// model. A non-empty sum is checked against the sha256 of the payload;
// on mismatch the temp file is removed and ErrChecksumMismatch returned.
// When makeDefault is true the default pointer is updated to the new
// model.
func (m *Manager) Download(ctx context.Context, name, url, sum string, makeDefault bool) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid model name %q", name)
	}
	if err := m.ensureDirs(); err != nil {
		return "", err
	}
	dest := filepath.Join(m.ModelsDir(), name+Suffix)
	tmp := dest + ".tmp"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download model %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download model %s: unexpected status %s", name, resp.Status)
	}

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	h := sha256.New()
	_, err = io.Copy(io.MultiWriter(f, h), resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write model %s: %w", name, err)
	}

	if sum != "" {
		got := hex.EncodeToString(h.Sum(nil))
		if !strings.EqualFold(got, sum) {
			os.Remove(tmp)
			return "", fmt.Errorf("model %s: expected sha256 %s, got %s: %w", name, sum, got, ErrChecksumMismatch)
		}
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to install model %s: %w", name, err)
	}
	if makeDefault {
		if err := m.writeDefaultPointer(dest); err != nil {
			return "", err
		}
	}
	return dest, nil
}

// ListInstalled returns the models present in the cache directory,
// sorted by name.
func (m *Manager) ListInstalled() ([]ModelInfo, error) {
	entries, err := os.ReadDir(m.ModelsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read models dir: %w", err)
	}
	var out []ModelInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Suffix) {
			continue
		}
		out = append(out, ModelInfo{
			Name: strings.TrimSuffix(e.Name(), Suffix),
			Path: filepath.Join(m.ModelsDir(), e.Name()),
		})
	}
	return out, nil
}

// SetDefault points the default model at an existing file, addressed
// either by path or by installed name. Returns the path the pointer now
// designates.
func (m *Manager) SetDefault(pathOrName string) (string, error) {
	if err := m.ensureDirs(); err != nil {
		return "", err
	}
	if p := expandUser(pathOrName); isFile(p) {
		return p, m.writeDefaultPointer(p)
	}
	p := filepath.Join(m.ModelsDir(), pathOrName+Suffix)
	if isFile(p) {
		return p, m.writeDefaultPointer(p)
	}
	return "", fmt.Errorf("model %q: %w", pathOrName, ErrModelUnavailable)
}

func (m *Manager) ensureDirs() error {
	if err := os.MkdirAll(m.ModelsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create models dir: %w", err)
	}
	return nil
}

// writeDefaultPointer records the default model. Models inside the cache
// are recorded by bare file name so the cache can be relocated; outside
// paths are recorded absolute.
func (m *Manager) writeDefaultPointer(path string) error {
	value := path
	if filepath.Dir(path) == m.ModelsDir() {
		value = filepath.Base(path)
	}
	ptr := filepath.Join(m.ModelsDir(), defaultPointerFile)
	if err := os.WriteFile(ptr, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write default model pointer: %w", err)
	}
	return nil
}

func (m *Manager) defaultPointer() string {
	data, err := os.ReadFile(filepath.Join(m.ModelsDir(), defaultPointerFile))
	if err != nil {
		return ""
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return ""
	}
	if !strings.ContainsAny(value, `/\`) {
		value = filepath.Join(m.ModelsDir(), value)
	} else {
		value = expandUser(value)
	}
	if !isFile(value) {
		return ""
	}
	return value
}

func (m *Manager) configModelPath() string {
	data, err := os.ReadFile(m.ConfigFile())
	if err != nil {
		return ""
	}
	var cfg struct {
		ModelPath string `json:"model_path"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.ModelPath == "" {
		return ""
	}
	p := expandUser(cfg.ModelPath)
	if !isFile(p) {
		return ""
	}
	return p
}

func fileRef(path string) Ref {
	return Ref{Name: strings.TrimSuffix(filepath.Base(path), Suffix), Path: path}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func expandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
