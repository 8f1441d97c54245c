package catalog

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-leadform/pkg/model"
)

// Store keeps validated catalogs keyed by id. It is safe for concurrent
// readers when treated as immutable after construction.
type Store struct {
	catalogs map[string]model.Catalog
}

// LoadFS walks the provided filesystem and parses JSON/YAML catalog files.
// When fsys is nil or no catalog files are present, the returned store is
// empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{catalogs: make(map[string]model.Catalog)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		cat, err := normaliseCatalog(doc, path)
		if err != nil {
			return err
		}
		if _, exists := store.catalogs[cat.ID]; exists {
			return fmt.Errorf("catalog: duplicate catalog %q (file %s)", cat.ID, path)
		}
		store.catalogs[cat.ID] = cat
		return nil
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

// NewStore builds a store from catalogs that are already in memory. Each one
// is validated and its step slice copied, so later decoration never touches
// the caller's values.
func NewStore(catalogs ...model.Catalog) (*Store, error) {
	store := &Store{catalogs: make(map[string]model.Catalog, len(catalogs))}
	for _, cat := range catalogs {
		if err := Validate(cat); err != nil {
			return nil, err
		}
		if _, exists := store.catalogs[cat.ID]; exists {
			return nil, fmt.Errorf("catalog: duplicate catalog %q", cat.ID)
		}
		cat.Steps = append([]model.StepDefinition(nil), cat.Steps...)
		store.catalogs[cat.ID] = cat
	}
	return store, nil
}

// Catalog returns the catalog registered under id.
func (s *Store) Catalog(id string) (model.Catalog, bool) {
	if s == nil {
		return model.Catalog{}, false
	}
	cat, ok := s.catalogs[strings.TrimSpace(id)]
	return cat, ok
}

// IDs returns the sorted catalog identifiers.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.catalogs))
	for id := range s.catalogs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any catalogs.
func (s *Store) Empty() bool {
	return s == nil || len(s.catalogs) == 0
}

// Decorate applies decorators to every catalog in the store.
func (s *Store) Decorate(decorators ...model.Decorator) error {
	if s == nil {
		return nil
	}
	for id, cat := range s.catalogs {
		cat.Steps = append([]model.StepDefinition(nil), cat.Steps...)
		for _, decorator := range decorators {
			if decorator == nil {
				continue
			}
			if err := decorator.Decorate(&cat); err != nil {
				return fmt.Errorf("catalog: decorate %q: %w", id, err)
			}
		}
		s.catalogs[id] = cat
	}
	return nil
}

type documentFile struct {
	ID          string            `json:"id" yaml:"id"`
	FormType    string            `json:"formType" yaml:"formType"`
	Title       string            `json:"title" yaml:"title"`
	SubmitLabel string            `json:"submitLabel" yaml:"submitLabel"`
	Steps       []stepFile        `json:"steps" yaml:"steps"`
	Metadata    map[string]string `json:"metadata" yaml:"metadata"`
}

type stepFile struct {
	Ordinal     *int              `json:"ordinal,omitempty" yaml:"ordinal,omitempty"`
	AnswerKey   string            `json:"answerKey" yaml:"answerKey"`
	Kind        string            `json:"kind" yaml:"kind"`
	InputHint   string            `json:"inputHint,omitempty" yaml:"inputHint,omitempty"`
	Prompt      string            `json:"prompt" yaml:"prompt"`
	Hint        string            `json:"hint,omitempty" yaml:"hint,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string          `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	UIHints     map[string]string `json:"uiHints,omitempty" yaml:"uiHints,omitempty"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("catalog: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	return documentFile{}, fmt.Errorf("catalog: parse %s: invalid JSON or YAML", source)
}

func normaliseCatalog(doc documentFile, source string) (model.Catalog, error) {
	cat := model.Catalog{
		ID:          strings.TrimSpace(doc.ID),
		FormType:    strings.TrimSpace(doc.FormType),
		Title:       strings.TrimSpace(doc.Title),
		SubmitLabel: strings.TrimSpace(doc.SubmitLabel),
		Metadata:    cloneStringMap(doc.Metadata),
		Steps:       make([]model.StepDefinition, 0, len(doc.Steps)),
	}

	for idx, raw := range doc.Steps {
		if raw.Ordinal != nil && *raw.Ordinal != idx {
			return model.Catalog{}, fmt.Errorf("catalog: file %s step %q declares ordinal %d at position %d", source, raw.AnswerKey, *raw.Ordinal, idx)
		}
		step := model.StepDefinition{
			Ordinal:     idx,
			AnswerKey:   strings.TrimSpace(raw.AnswerKey),
			Kind:        model.StepKind(strings.ToLower(strings.TrimSpace(raw.Kind))),
			InputHint:   strings.ToLower(strings.TrimSpace(raw.InputHint)),
			Prompt:      strings.TrimSpace(raw.Prompt),
			Hint:        strings.TrimSpace(raw.Hint),
			Placeholder: raw.Placeholder,
			Options:     append([]string(nil), raw.Options...),
			Metadata:    cloneStringMap(raw.Metadata),
			UIHints:     cloneStringMap(raw.UIHints),
		}
		if step.Kind == model.StepKindText && step.InputHint == "" {
			step.InputHint = model.InputHintText
		}
		cat.Steps = append(cat.Steps, step)
	}

	if err := Validate(cat); err != nil {
		return model.Catalog{}, fmt.Errorf("%w (file %s)", err, source)
	}
	return cat, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
