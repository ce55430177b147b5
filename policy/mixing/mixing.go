// Package mixing is the reference policy.Engine shipped alongside the
// generic controller: a table of rules, each gated by a trigger kind and
// a compiled expr-lang condition, producing a fixed set of action
// descriptors when the condition holds. Grounded on
// bittoy-rule/components/transform's expr_filter_node.go/
// expr_switch_node.go compile-once-evaluate-many pattern
// (expr.Compile at rule-registration time, vm.Run per trigger), applied
// to the worked example "when Phone connects, duck Entertainment by 6dB".
package mixing

import (
	"context"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/policy"
	"github.com/gc-audio/routingctl/registry"
)

// Rule is one row of the mixing table: fires for TriggerKind when
// Condition evaluates truthy, producing Descriptors. Priority breaks ties
// when more than one rule matches the same trigger; higher runs first,
// mirroring a class's registry.Class.Priority field feeding the same kind
// of contention class-based connection requests resolve by.
type Rule struct {
	Name        string
	TriggerKind gctypes.TriggerKind
	Condition   string // expr-lang boolean expression; "" always matches
	Descriptors []policy.ActionDescriptor
	Priority    int32

	program *vm.Program
}

// Engine is the compiled form of a []Rule, ready to evaluate triggers,
// implementing policy.Engine. Grounded on bittoy-rule/engine/config.go's
// pattern of compiling configuration once at construction rather than
// per-call.
type Engine struct {
	reg   *registry.Registry
	rules []Rule
	log   gctypes.Logger
}

// New compiles rules against reg and returns a ready-to-use Engine.
// Compilation happens once here, not per Evaluate call, the same
// discipline bittoy-rule's expr-based nodes apply to rule conditions.
func New(reg *registry.Registry, log gctypes.Logger, rules []Rule) (*Engine, error) {
	compiled := make([]Rule, len(rules))
	copy(compiled, rules)
	for i := range compiled {
		r := &compiled[i]
		if r.Condition == "" {
			continue
		}
		prog, err := expr.Compile(r.Condition, expr.Env(conditionEnv{}))
		if err != nil {
			return nil, fmt.Errorf("mixing: rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(compiled, func(i, j int) bool { return compiled[i].Priority > compiled[j].Priority })
	return &Engine{reg: reg, rules: compiled, log: log}, nil
}

// conditionEnv is the variable environment a rule condition expression
// evaluates against: the triggering kind by name, and the decoded payload
// fields expr-lang can reach via normal field access (e.g.
// `Payload.SourceName == "PhoneSource"`).
type conditionEnv struct {
	TriggerKind string
	Payload     any
}

// Evaluate runs every rule whose TriggerKind matches t.Kind, in priority
// order, and concatenates the action descriptors of every rule whose
// condition holds (or which carries no condition at all).
func (e *Engine) Evaluate(_ context.Context, t gctypes.Trigger) ([]policy.ActionDescriptor, error) {
	var out []policy.ActionDescriptor
	env := conditionEnv{TriggerKind: t.Kind.String(), Payload: t.Payload}

	for _, r := range e.rules {
		if r.TriggerKind != t.Kind {
			continue
		}
		if r.program != nil {
			result, err := expr.Run(r.program, env)
			if err != nil {
				return nil, gctypes.NewError("mixing.Evaluate", gctypes.NotPossible, err)
			}
			matched, ok := result.(bool)
			if !ok || !matched {
				continue
			}
		}
		if e.log != nil {
			e.log.Printf("mixing: rule %q matched trigger %s", r.Name, t.Kind)
		}
		out = append(out, r.Descriptors...)
	}
	return out, nil
}
