package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModule is a scripted module used across engine tests.
type stubModule struct {
	meta ModuleMetadata
	run  func(ctx context.Context, sc *ScanContext) error
}

func (m *stubModule) Metadata() ModuleMetadata { return m.meta }

func (m *stubModule) Run(ctx context.Context, sc *ScanContext) error {
	if m.run == nil {
		return nil
	}
	return m.run(ctx, sc)
}

func stubFactory(category Category, run func(ctx context.Context, sc *ScanContext) error) ModuleFactory {
	return func() Module {
		return &stubModule{
			meta: ModuleMetadata{Category: category, Name: "stub-" + string(category), Version: "1.0.0"},
			run:  run,
		}
	}
}

// swapRegistry replaces the global module registry for the duration of a
// test, since module packages register themselves via init.
func swapRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := moduleRegistry
	moduleRegistry = make(map[Category]ModuleFactory)
	registryMu.Unlock()

	t.Cleanup(func() {
		registryMu.Lock()
		moduleRegistry = saved
		registryMu.Unlock()
	})
}

func TestRegisterModule_AndLookup(t *testing.T) {
	swapRegistry(t)

	RegisterModule(CategoryInjection, stubFactory(CategoryInjection, nil))

	factory, ok := ModuleFor(CategoryInjection)
	require.True(t, ok)
	assert.Equal(t, CategoryInjection, factory().Metadata().Category)

	_, ok = ModuleFor(CategorySSRF)
	assert.False(t, ok)
}

func TestRegisterModule_DuplicatePanics(t *testing.T) {
	swapRegistry(t)

	RegisterModule(CategoryInjection, stubFactory(CategoryInjection, nil))
	assert.PanicsWithValue(t,
		"engine: duplicate module registration for category A03",
		func() { RegisterModule(CategoryInjection, stubFactory(CategoryInjection, nil)) })
}

func TestRegisterModule_UnknownCategoryPanics(t *testing.T) {
	swapRegistry(t)

	assert.Panics(t, func() { RegisterModule("A42", stubFactory("A42", nil)) })
}

func TestRegisteredCategories_CanonicalOrder(t *testing.T) {
	swapRegistry(t)

	// Registered out of order
	RegisterModule(CategorySSRF, stubFactory(CategorySSRF, nil))
	RegisterModule(CategoryBrokenAccessControl, stubFactory(CategoryBrokenAccessControl, nil))
	RegisterModule(CategoryMisconfiguration, stubFactory(CategoryMisconfiguration, nil))

	cats := RegisteredCategories()
	assert.Equal(t, []Category{CategoryBrokenAccessControl, CategoryMisconfiguration, CategorySSRF}, cats)
}

func TestAllModuleMetadata(t *testing.T) {
	swapRegistry(t)

	RegisterModule(CategoryInjection, stubFactory(CategoryInjection, nil))
	RegisterModule(CategoryCryptoFailures, stubFactory(CategoryCryptoFailures, nil))

	metas := AllModuleMetadata()
	require.Len(t, metas, 2)
	assert.Equal(t, CategoryCryptoFailures, metas[0].Category)
	assert.Equal(t, CategoryInjection, metas[1].Category)
	assert.Equal(t, "stub-A03", metas[1].Name)
}
