package steps

// Fixtures is the scenario-scoped store for named values shared between
// steps. Every scenario gets a fresh store; steps read fixtures declared
// with WithFixtures and write them by returning a WithTargetFixture value
// or by calling Set directly. A store is not shared across scenarios, so
// parallel scenario execution needs no locking here.
type Fixtures struct {
	values map[string]any
}

// NewFixtures creates an empty fixture store.
func NewFixtures() *Fixtures {
	return &Fixtures{values: make(map[string]any)}
}

// Set stores a value under the given name, replacing any previous value.
func (f *Fixtures) Set(name string, value any) {
	f.values[name] = value
}

// Get retrieves a value and reports whether the name was set.
func (f *Fixtures) Get(name string) (any, bool) {
	v, ok := f.values[name]
	return v, ok
}
