// Package prompts loads the prompt template file and serves filled templates
// to the content pipeline. The file is a markdown document where each
// `### name` heading starts one template; the body runs until the next
// heading. Placeholders use single braces: {company}, {bio}, and so on.
//
// The file is watched and reloaded on change, so prompt tuning does not
// require a restart. A reload that fails to parse keeps the previous
// templates.
package prompts

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	apperrors "slidesmith/pkg/errors"
)

const headingMarker = "### "

// Library holds the parsed templates behind a read lock.
type Library struct {
	mu        sync.RWMutex
	templates map[string]string

	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// NewLibrary parses the prompt file and starts watching it for changes.
func NewLibrary(path string, logger *zap.Logger) (*Library, error) {
	lib := &Library{path: path, logger: logger}
	if err := lib.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("prompt file watching disabled", zap.Error(err))
		return lib, nil
	}
	// Watch the directory, not the file: editors replace files on save and
	// a watch on the old inode goes stale.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("prompt file watching disabled", zap.Error(err))
		watcher.Close()
		return lib, nil
	}
	lib.watcher = watcher
	go lib.watch()
	return lib, nil
}

// Fill returns the named template with every {placeholder} substituted from
// vars. Placeholders with no value substitute to the empty string.
func (l *Library) Fill(name string, vars map[string]string) (string, error) {
	l.mu.RLock()
	tmpl, ok := l.templates[name]
	l.mu.RUnlock()
	if !ok {
		return "", apperrors.NewConfigurationError("no prompt template named " + name)
	}
	return fillPlaceholders(tmpl, vars), nil
}

// Raw returns a template body unfilled.
func (l *Library) Raw(name string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tmpl, ok := l.templates[name]
	return tmpl, ok
}

// Names lists the available template names.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	return names
}

// Close stops the file watcher.
func (l *Library) Close() error {
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

func (l *Library) reload() error {
	f, err := os.Open(l.path)
	if err != nil {
		return apperrors.NewConfigurationError("prompt file unreadable: " + err.Error())
	}
	defer f.Close()

	templates, err := parseTemplates(f)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return apperrors.NewConfigurationError("prompt file has no templates: " + l.path)
	}

	l.mu.Lock()
	l.templates = templates
	l.mu.Unlock()
	l.logger.Info("prompt templates loaded",
		zap.String("path", l.path),
		zap.Int("count", len(templates)),
	)
	return nil
}

func (l *Library) watch() {
	target := filepath.Clean(l.path)
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := l.reload(); err != nil {
				l.logger.Error("prompt reload failed, keeping previous templates", zap.Error(err))
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("prompt watcher error", zap.Error(err))
		}
	}
}

func parseTemplates(f *os.File) (map[string]string, error) {
	templates := make(map[string]string)
	var (
		current string
		body    strings.Builder
	)
	flush := func() {
		if current != "" {
			templates[current] = strings.TrimSpace(body.String())
		}
		body.Reset()
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, headingMarker) {
			flush()
			// Headings normalize to snake_case keys: "### Capability Scripts"
			// and "### capability_scripts" name the same template.
			heading := strings.TrimSpace(strings.TrimPrefix(line, headingMarker))
			current = strings.ReplaceAll(strings.ToLower(heading), " ", "_")
			continue
		}
		if current != "" {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(err, "reading prompt file")
	}
	flush()
	return templates, nil
}

// fillPlaceholders substitutes {key} occurrences left to right. Unmatched
// braces pass through untouched.
func fillPlaceholders(tmpl string, vars map[string]string) string {
	var out strings.Builder
	out.Grow(len(tmpl))

	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			out.WriteString(tmpl)
			return out.String()
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			out.WriteString(tmpl)
			return out.String()
		}
		end += open

		key := tmpl[open+1 : end]
		out.WriteString(tmpl[:open])
		if isPlaceholderKey(key) {
			out.WriteString(vars[key])
		} else {
			out.WriteString(tmpl[open : end+1])
		}
		tmpl = tmpl[end+1:]
	}
}

func isPlaceholderKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}
