// pkg/engine/registry.go
// Package engine provides the scan orchestrator, the test module contract,
// and the finding/report data model.
package engine

import (
	"fmt"
	"sort"
	"sync"
)

// ModuleFactory creates a fresh module instance. Factories must be cheap:
// the registry calls them both for metadata listing and per scan.
type ModuleFactory func() Module

var (
	registryMu     sync.RWMutex
	moduleRegistry = make(map[Category]ModuleFactory)
)

// RegisterModule adds a module factory for a category. Modules register
// themselves from init functions in their own packages; registering the
// same category twice panics, since that is always a programming error.
func RegisterModule(category Category, factory ModuleFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if !category.IsValid() {
		panic(fmt.Sprintf("engine: cannot register module for unknown category %q", category))
	}
	if _, exists := moduleRegistry[category]; exists {
		panic(fmt.Sprintf("engine: duplicate module registration for category %s", category))
	}
	moduleRegistry[category] = factory
}

// ModuleFor returns the factory registered for a category, or false when
// the category has no module.
func ModuleFor(category Category) (ModuleFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := moduleRegistry[category]
	return f, ok
}

// RegisteredCategories returns the categories with a registered module in
// canonical A01..A10 order.
func RegisteredCategories() []Category {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cats := make([]Category, 0, len(moduleRegistry))
	for c := range moduleRegistry {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// AllModuleMetadata instantiates every registered module and returns its
// metadata, in category order. Used by the modules listing command.
func AllModuleMetadata() []ModuleMetadata {
	cats := RegisteredCategories()
	metas := make([]ModuleMetadata, 0, len(cats))
	for _, c := range cats {
		f, _ := ModuleFor(c)
		metas = append(metas, f().Metadata())
	}
	return metas
}
