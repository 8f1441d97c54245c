package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/goliatone/go-leadform/pkg/model"
)

const (
	// StrategySessionID identifies the built-in lead qualification catalog.
	StrategySessionID = "strategy-session"
	// FormTypeKey is the payload key carrying the catalog's form type.
	FormTypeKey = "formType"
)

//go:embed catalogs/*
var embeddedCatalogs embed.FS

var (
	defaultOnce  sync.Once
	defaultStore *Store
	defaultErr   error
)

// EmbeddedFS returns the bundled catalog documents.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedCatalogs, "catalogs")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}

// Embedded loads (once) and returns the store built from EmbeddedFS.
func Embedded() (*Store, error) {
	defaultOnce.Do(func() {
		defaultStore, defaultErr = LoadFS(EmbeddedFS())
	})
	return defaultStore, defaultErr
}

// Default returns the strategy-session catalog shipped with the module.
func Default() (model.Catalog, error) {
	store, err := Embedded()
	if err != nil {
		return model.Catalog{}, err
	}
	cat, ok := store.Catalog(StrategySessionID)
	if !ok {
		return model.Catalog{}, fmt.Errorf("catalog: embedded catalog %q missing", StrategySessionID)
	}
	return cat, nil
}

// MustDefault is Default for init-time wiring.
func MustDefault() model.Catalog {
	cat, err := Default()
	if err != nil {
		panic(err)
	}
	return cat
}
