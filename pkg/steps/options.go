package steps

// Option customizes a step definition at registration time.
type Option func(*Definition)

// WithConverter converts the named capture with fn instead of the default
// declared-type conversion. The value fn returns must be assignable to the
// handler parameter bound to that capture.
func WithConverter(argName string, fn ConvertFunc) Option {
	return func(d *Definition) {
		if d.converters == nil {
			d.converters = make(map[string]ConvertFunc)
		}
		d.converters[argName] = fn
	}
}

// WithFixtures declares fixture parameters the handler takes after its
// capture parameters. Each name is resolved from the scenario's fixture
// store when the step runs.
func WithFixtures(names ...string) Option {
	return func(d *Definition) {
		d.fixtureNames = append(d.fixtureNames, names...)
	}
}

// WithTargetFixture stores the handler's non-error return value in the
// scenario's fixture store under the given name after the step runs.
func WithTargetFixture(name string) Option {
	return func(d *Definition) {
		d.targetFixture = name
	}
}
