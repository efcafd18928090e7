package adapter

import "fmt"

// ErrAdapterUnavailable is returned when a named adapter doesn't exist in
// the registry, or exists but Detect(projectRoot) returns false
// (spec.md §4.8 step 2: "Select adapter by framework name; if missing or
// detect(project_root) is false, fail with AdapterUnavailable").
type ErrAdapterUnavailable struct {
	Name string
}

func (e *ErrAdapterUnavailable) Error() string {
	return fmt.Sprintf("nit/adapter: adapter %q is unavailable", e.Name)
}

// Registry holds every built-in TestAdapter and CoverageAdapter, keyed by
// framework name. It is populated once at construction — spec.md §4.2:
// "the registry enumerates all adapters at startup".
type Registry struct {
	testAdapters     map[string]TestAdapter
	coverageAdapters map[string]CoverageAdapter
}

// NewRegistry builds a Registry with all twelve built-in TestAdapters
// (pytest, vitest, jest, playwright, cypress, cargo_test, gotest,
// catch2, gtest, junit5, xunit, kotest) and the coverage adapters that
// have a distinct coverage-collection story from their test runner.
func NewRegistry() *Registry {
	r := &Registry{
		testAdapters:     map[string]TestAdapter{},
		coverageAdapters: map[string]CoverageAdapter{},
	}

	for _, a := range []TestAdapter{
		newPytestAdapter(),
		newVitestAdapter(),
		newJestAdapter(),
		newPlaywrightAdapter(),
		newCypressAdapter(),
		newCargoTestAdapter(),
		newGoTestAdapter(),
		newCatch2Adapter(),
		newGtestAdapter(),
		newJUnit5Adapter(),
		newXUnitAdapter(),
		newKotestAdapter(),
	} {
		r.testAdapters[a.Name()] = a
	}

	for _, name := range []string{"pytest", "gotest", "vitest"} {
		r.coverageAdapters[name] = newLcovCoverageAdapter(r.testAdapters[name])
	}

	return r
}

// GetTestAdapter returns the named adapter, or ErrAdapterUnavailable if
// it isn't registered. Callers must still check Detect(projectRoot)
// themselves per spec.md §4.8's two-part failure condition.
func (r *Registry) GetTestAdapter(name string) (TestAdapter, error) {
	a, ok := r.testAdapters[name]
	if !ok {
		return nil, &ErrAdapterUnavailable{Name: name}
	}
	return a, nil
}

// GetCoverageAdapter returns the named coverage adapter, or
// ErrAdapterUnavailable if it isn't registered.
func (r *Registry) GetCoverageAdapter(name string) (CoverageAdapter, error) {
	c, ok := r.coverageAdapters[name]
	if !ok {
		return nil, &ErrAdapterUnavailable{Name: name}
	}
	return c, nil
}

// ListTestAdapters returns every registered TestAdapter, in no
// particular order.
func (r *Registry) ListTestAdapters() []TestAdapter {
	out := make([]TestAdapter, 0, len(r.testAdapters))
	for _, a := range r.testAdapters {
		out = append(out, a)
	}
	return out
}
