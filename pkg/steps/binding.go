package steps

import (
	"context"
	"fmt"
	"reflect"

	"github.com/denizgursoy/tursu/pkg/model"
)

var (
	ctxType       = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType       = reflect.TypeOf((*error)(nil)).Elem()
	tableType     = reflect.TypeOf(Table{})
	dataTableType = reflect.TypeOf((*model.DataTable)(nil))
	docStringType = reflect.TypeOf((*model.DocString)(nil))
)

// binding is the validated call shape of a handler:
//
//	func([ctx context.Context,] captures..., fixtures..., [table,] [doc])
//	     [error | (context.Context, error) | (T[, error]) with a target fixture]
//
// The table parameter is a steps.Table or *model.DataTable, the doc
// parameter a *model.DocString.
type binding struct {
	fn       reflect.Value
	takesCtx bool
	captures []reflect.Type
	fixtures []reflect.Type
	table    reflect.Type
	doc      bool
	outCtx   bool
	outValue reflect.Type
	outErr   bool
}

func newBinding(d *Definition) (*binding, error) {
	t := reflect.TypeOf(d.Handler)
	if t == nil || t.Kind() != reflect.Func {
		return nil, fmt.Errorf("step handler must be a function, got %T", d.Handler)
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("step handler must not be variadic")
	}
	b := &binding{fn: reflect.ValueOf(d.Handler)}

	params := make([]reflect.Type, t.NumIn())
	for i := range params {
		params[i] = t.In(i)
	}

	if n := len(params); n > 0 && params[n-1] == docStringType {
		b.doc = true
		params = params[:n-1]
	}
	if n := len(params); n > 0 && (params[n-1] == tableType || params[n-1] == dataTableType) {
		b.table = params[n-1]
		params = params[:n-1]
	}
	if n := len(d.fixtureNames); n > 0 {
		if len(params) < n {
			return nil, fmt.Errorf("step handler declares %d fixtures but takes only %d parameters", n, len(params))
		}
		b.fixtures = params[len(params)-n:]
		params = params[:len(params)-n]
	}
	if len(params) > 0 && params[0].Implements(ctxType) {
		b.takesCtx = true
		params = params[1:]
	}
	for _, p := range params {
		if p.Implements(ctxType) {
			return nil, fmt.Errorf("context.Context must be the first parameter")
		}
	}
	b.captures = params
	if want := d.Pattern.arity(); want >= 0 && len(b.captures) != want {
		return nil, fmt.Errorf("step handler takes %d pattern arguments, pattern captures %d", len(b.captures), want)
	}

	switch n := t.NumOut(); n {
	case 0:
	case 1, 2:
		last := t.Out(n - 1)
		b.outErr = last.Implements(errType)
		if n == 2 && !b.outErr {
			return nil, fmt.Errorf("step handler's second return value must be error, got %s", last)
		}
		if n == 2 || !b.outErr {
			first := t.Out(0)
			switch {
			case first.Implements(errType):
				return nil, fmt.Errorf("error must be the last return value")
			case first.Implements(ctxType):
				if d.targetFixture != "" {
					return nil, fmt.Errorf("target fixture %q cannot take a context.Context return", d.targetFixture)
				}
				b.outCtx = true
			default:
				if d.targetFixture == "" {
					return nil, fmt.Errorf("step handler returns %s but declares no target fixture", first)
				}
				b.outValue = first
			}
		}
	default:
		return nil, fmt.Errorf("step handler returns %d values, want at most 2", n)
	}
	if d.targetFixture != "" && b.outValue == nil {
		return nil, fmt.Errorf("target fixture %q needs a non-error return value", d.targetFixture)
	}

	return b, nil
}

// invoke calls the handler with converted arguments, resolved fixtures and
// the step's attached table or doc string. A returned context replaces the
// caller's for subsequent steps; a target-fixture value is stored only when
// the handler did not fail.
func (d *Definition) invoke(ctx context.Context, args []Argument, fx *Fixtures, step *model.Step) (context.Context, error) {
	if d.bind == nil {
		return nil, fmt.Errorf("step definition %s has no handler", d)
	}
	b := d.bind

	callArgs := make([]reflect.Value, 0, b.fn.Type().NumIn())
	if b.takesCtx {
		if ctx == nil {
			ctx = context.Background()
		}
		callArgs = append(callArgs, reflect.ValueOf(ctx))
	}
	for i, t := range b.captures {
		v, err := argValue(args[i].Value, t)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", args[i].Name, err)
		}
		callArgs = append(callArgs, v)
	}
	for i, t := range b.fixtures {
		name := d.fixtureNames[i]
		var raw any
		ok := false
		if fx != nil {
			raw, ok = fx.Get(name)
		}
		if !ok {
			return nil, fmt.Errorf("fixture %q is not set", name)
		}
		v, err := argValue(raw, t)
		if err != nil {
			return nil, fmt.Errorf("fixture %q: %w", name, err)
		}
		callArgs = append(callArgs, v)
	}
	if b.table != nil {
		if step.DataTable == nil {
			return nil, fmt.Errorf("step %q has no data table", step.Text)
		}
		if b.table == tableType {
			callArgs = append(callArgs, reflect.ValueOf(NewTableFromModel(step.DataTable)))
		} else {
			callArgs = append(callArgs, reflect.ValueOf(step.DataTable))
		}
	}
	if b.doc {
		if step.DocString == nil {
			return nil, fmt.Errorf("step %q has no doc string", step.Text)
		}
		callArgs = append(callArgs, reflect.ValueOf(step.DocString))
	}

	results := b.fn.Call(callArgs)

	var newCtx context.Context
	var callErr error
	if b.outErr {
		if v := results[len(results)-1]; !isNilValue(v) {
			callErr = v.Interface().(error)
		}
	}
	if b.outCtx {
		if v := results[0]; !isNilValue(v) {
			newCtx = v.Interface().(context.Context)
		}
	}
	if b.outValue != nil && callErr == nil {
		if fx == nil {
			return nil, fmt.Errorf("target fixture %q needs a fixture store", d.targetFixture)
		}
		fx.Set(d.targetFixture, results[0].Interface())
	}
	return newCtx, callErr
}

// argValue adapts a converted argument to the declared parameter type.
func argValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("have %T, step handler wants %s", v, t)
	}
	return rv, nil
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
