package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed resources/*.json
var resourcesFS embed.FS

// Bundle holds one flat key->message map per language.
type Bundle struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
}

// New returns a bundle seeded with the embedded translations.
func New(defaultLang string) (*Bundle, error) {
	if defaultLang == "" {
		defaultLang = "pt"
	}
	b := &Bundle{
		translations: make(map[string]map[string]string),
		defaultLang:  defaultLang,
	}

	entries, err := resourcesFS.ReadDir("resources")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		data, err := resourcesFS.ReadFile("resources/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := b.merge(langOf(e.Name()), data); err != nil {
			return nil, fmt.Errorf("embedded bundle %s: %w", e.Name(), err)
		}
	}
	return b, nil
}

func langOf(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

func (b *Bundle) merge(lang string, data []byte) error {
	var t map[string]string
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.translations[lang] == nil {
		b.translations[lang] = make(map[string]string)
	}
	for k, v := range t {
		b.translations[lang][k] = v
	}
	return nil
}

// embedded returns the compiled-in messages of lang, empty when there are none.
func embedded(lang string) (map[string]string, error) {
	t := make(map[string]string)
	data, err := resourcesFS.ReadFile("resources/" + lang + ".json")
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return t, nil
}

// reload rebuilds one language from the embedded bundle plus the override
// file at path. A missing file leaves only the embedded messages.
func (b *Bundle) reload(path string) error {
	lang := langOf(path)
	t, err := embedded(lang)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	default:
		var override map[string]string
		if err := json.Unmarshal(data, &override); err != nil {
			return err
		}
		for k, v := range override {
			t[k] = v
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(t) == 0 {
		delete(b.translations, lang)
		return nil
	}
	b.translations[lang] = t
	return nil
}

// LoadDir overlays every <lang>.json found in dir on top of the current bundle.
func (b *Bundle) LoadDir(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return err
		}
		if err := b.merge(langOf(f.Name()), data); err != nil {
			return fmt.Errorf("bundle %s: %w", f.Name(), err)
		}
	}
	return nil
}

// Watch starts reloading bundle files of dir as they change and returns
// once the watcher is registered. The returned channel is closed when the
// reload loop stops, after ctx is done.
func (b *Bundle) Watch(ctx context.Context, dir string, log *zap.Logger) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	log.Info("watching translation bundles", zap.String("dir", dir))

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()
		b.watchLoop(ctx, watcher, log)
	}()
	return done, nil
}

func (b *Bundle) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, log *zap.Logger) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if err := b.reload(event.Name); err != nil {
				log.Warn("bundle reload failed", zap.String("file", event.Name), zap.Error(err))
				continue
			}
			log.Info("bundle reloaded", zap.String("file", event.Name), zap.String("op", event.Op.String()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bundle) T(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if t, ok := b.translations[lang]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	if t, ok := b.translations[b.defaultLang]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	return key
}

// Langs returns the loaded languages, sorted.
func (b *Bundle) Langs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	langs := make([]string, 0, len(b.translations))
	for l := range b.translations {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// GetLang resolves the request language: lang cookie, Accept-Language, default.
func (b *Bundle) GetLang(r *http.Request) string {
	langs := b.Langs()
	if cookie, err := r.Cookie("lang"); err == nil {
		for _, l := range langs {
			if l == cookie.Value {
				return l
			}
		}
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(tags) > 0 {
			supported := make([]language.Tag, 0, len(langs))
			for _, l := range langs {
				supported = append(supported, language.Make(l))
			}
			_, idx, conf := language.NewMatcher(supported).Match(tags...)
			if conf != language.No {
				return langs[idx]
			}
		}
	}
	return b.defaultLang
}
