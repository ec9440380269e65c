// cvar/file.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package cvar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/iancoleman/orderedmap"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type format int

const (
	formatJSON format = iota
	formatYAML
	formatTOML
)

func formatForPath(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// ReadFile decodes a flat name/value config file, choosing the format
// from the file's extension.
func ReadFile(path string) (map[string]string, error) {
	f, err := formatForPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(f, b)
}

func decode(f format, b []byte) (map[string]string, error) {
	raw := make(map[string]any)
	switch f {
	case formatJSON:
		d := json.NewDecoder(bytes.NewReader(b))
		d.UseNumber()
		if err := d.Decode(&raw); err != nil {
			return nil, err
		}
	case formatYAML:
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
	case formatTOML:
		if err := toml.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		s, err := valueString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		values[k] = s
	}
	return values, nil
}

func valueString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%v: %w", v, ErrInvalidValue)
	}
}

// LoadFile reads path and applies its values. Protected cvars may be set
// this way; it is only used at startup.
func (r *Registry) LoadFile(path string) error {
	values, err := ReadFile(path)
	if err != nil {
		return err
	}
	r.lg.Infof("%s: loaded %d cvars", path, len(values))
	return r.Apply(values, false)
}

// SaveFile writes the Saveable cvars to path in registration order.
func (r *Registry) SaveFile(path string) error {
	f, err := formatForPath(path)
	if err != nil {
		return err
	}
	b, err := r.encode(f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o600)
}

func (r *Registry) saveable() []*CVar {
	var s []*CVar
	for _, name := range r.Names() {
		if cv, _ := r.Lookup(name); cv.Flags.Has(Saveable) {
			s = append(s, cv)
		}
	}
	return s
}

func (r *Registry) encode(f format) ([]byte, error) {
	vars := r.saveable()

	switch f {
	case formatJSON:
		om := orderedmap.New()
		for _, cv := range vars {
			om.Set(cv.Name, cv.typed())
		}
		return json.MarshalIndent(om, "", "  ")

	case formatYAML:
		root := &yaml.Node{Kind: yaml.MappingNode}
		for _, cv := range vars {
			var v yaml.Node
			if err := v.Encode(cv.typed()); err != nil {
				return nil, err
			}
			root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: cv.Name}, &v)
		}
		return yaml.Marshal(root)

	case formatTOML:
		// go-toml sorts map keys, so encode one key at a time.
		var buf bytes.Buffer
		for _, cv := range vars {
			b, err := toml.Marshal(map[string]any{cv.Name: cv.typed()})
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		return buf.Bytes(), nil
	}
	return nil, ErrUnsupportedFormat
}

// Watch reports the contents of path each time it is written. The
// directory is watched rather than the file so that editors that replace
// the file on save are handled. The returned channel is closed when ctx
// is done.
func (r *Registry) Watch(ctx context.Context, path string) (<-chan map[string]string, error) {
	if _, err := formatForPath(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	ch := make(chan map[string]string, 1)
	go func() {
		defer close(ch)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				values, err := ReadFile(abs)
				if err != nil {
					r.lg.Warnf("%s: %v", abs, err)
					continue
				}
				select {
				case ch <- values:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.lg.Warnf("%s: watch: %v", abs, err)
			}
		}
	}()
	return ch, nil
}
