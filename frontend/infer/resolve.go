package infer

import (
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
)

// binding maps the arguments of a call to the parameters of a signature
type binding struct {
	// args[i] lists the indices of the arguments bound to parameter i
	args [][]int
}

// bind matches call arguments to sig parameters by position and by name.
// It reports false when the call does not have the shape sig expects.
func bind(call *ir.Call, sig *symbols.Signature) (binding, bool) {
	b := binding{args: make([][]int, len(sig.Params))}
	next := 0
	seenNamed := false
	for i, arg := range call.Args {
		var param int
		if arg.Positional() {
			if seenNamed || next >= len(sig.Params) {
				return binding{}, false
			}
			param = next
			// a vararg takes every remaining positional argument
			if !sig.Params[param].Vararg {
				next++
			}
		} else {
			seenNamed = true
			param = sig.ParamIndex(arg.Name)
			if param < 0 || len(b.args[param]) > 0 {
				return binding{}, false
			}
		}
		if arg.Spread && !sig.Params[param].Vararg {
			return binding{}, false
		}
		b.args[param] = append(b.args[param], i)
	}
	for i, param := range sig.Params {
		if len(b.args[i]) == 0 && !param.HasDefault && !param.Vararg {
			return binding{}, false
		}
	}
	return b, true
}

// Applicable returns the signatures call could resolve to, judging only by
// shape: name, arity, named arguments, receiver and explicit type arguments.
// Signatures are in declaration order.
func Applicable(call *ir.Call, table *symbols.Table) []*symbols.Signature {
	var applicable []*symbols.Signature
	for _, sig := range table.Lookup(call.Callee, len(call.Args)) {
		if (call.Receiver != nil) != (sig.Receiver != nil) {
			continue
		}
		if len(call.TypeArgs) > 0 && len(call.TypeArgs) != len(sig.TypeParams) {
			continue
		}
		if _, ok := bind(call, sig); !ok {
			continue
		}
		applicable = append(applicable, sig)
	}
	return applicable
}
