package graph

import "strings"

// validate runs the distilled spec's validation pipeline, in order, each
// failing fast: empty graph, arity mismatch, missing inputs, sink
// uniqueness, cycle detection. On success it returns the unique sink decl
// and a cache of NodeInfo built bottom-up so that shared predecessors share
// a single *NodeInfo (letting an external visualizer walk a DAG, not a
// tree).
func validate(decls []*declCore, inputs map[*nameIdentity]string) (*declCore, map[*declCore]*NodeInfo, error) {
	if len(decls) == 0 {
		return nil, nil, newTrickleException("Empty graph")
	}

	if err := checkArities(decls); err != nil {
		return nil, nil, err
	}
	if err := checkInputsDeclared(decls, inputs); err != nil {
		return nil, nil, err
	}

	sink, err := checkSingleSink(decls)
	if err != nil {
		return nil, nil, err
	}
	if sink == nil {
		// Zero sinks in a non-empty declaration set is only possible if the
		// predecessor relation has a cycle; report that instead.
		if err := detectCycle(decls); err != nil {
			return nil, nil, err
		}
		// Should be unreachable: a non-empty DAG always has >=1 sink.
		return nil, nil, newTrickleException("Empty graph")
	}
	if err := detectCycle(decls); err != nil {
		return nil, nil, err
	}

	infos := buildNodeInfos(decls)
	return sink, infos, nil
}

func checkArities(decls []*declCore) error {
	for _, d := range decls {
		if len(d.bindings) != d.arity {
			return newTrickleException(
				"Incorrect argument count for node %q: expected %d, got %d",
				d.name, d.arity, len(d.bindings),
			)
		}
	}
	return nil
}

func checkInputsDeclared(decls []*declCore, inputs map[*nameIdentity]string) error {
	for _, d := range decls {
		for _, b := range d.bindings {
			if b.kind != argInput {
				continue
			}
			if _, ok := inputs[b.inputID]; !ok {
				return newTrickleException(
					"Missing input %q referenced by node %q: declare it via Inputs(...)",
					b.label, d.name,
				)
			}
		}
	}
	return nil
}

// checkSingleSink returns the one decl with no dependent (nothing else in
// decls references it via a binding or a happens-after edge). If more than
// one qualifies, it fails with "Multiple sinks" naming every candidate. If
// none qualify, it returns (nil, nil) — the caller treats that as "let
// cycle detection explain it".
func checkSingleSink(decls []*declCore) (*declCore, error) {
	hasDependent := make(map[*declCore]bool, len(decls))
	for _, d := range decls {
		for _, b := range d.bindings {
			if b.kind == argNode {
				hasDependent[b.decl] = true
			}
		}
		for _, p := range d.after {
			hasDependent[p] = true
		}
	}

	var sinks []*declCore
	for _, d := range decls {
		if !hasDependent[d] {
			sinks = append(sinks, d)
		}
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		names := make([]string, len(sinks))
		for i, s := range sinks {
			names[i] = s.name
		}
		return nil, newTrickleException("Multiple sinks: %s", strings.Join(names, ", "))
	}
}

// dfsColor is the three-color marking used by detectCycle: White
// (unvisited), Gray (on the current recursion stack), Black (fully
// explored and known cycle-free).
type dfsColor int

const (
	white dfsColor = iota
	gray
	black
)

// detectCycle runs a depth-first search over the predecessor relation
// (bindings ∪ happens-after) looking for a back-edge (an edge into a Gray
// node). On the first one found it reconstructs and reports one
// representative cycle as a "a -> b -> ... -> a" path of display names.
func detectCycle(decls []*declCore) error {
	color := make(map[*declCore]dfsColor, len(decls))
	var path []*declCore

	var visit func(d *declCore) error
	visit = func(d *declCore) error {
		color[d] = gray
		path = append(path, d)

		for _, pred := range predecessorsOf(d) {
			switch color[pred] {
			case white:
				if err := visit(pred); err != nil {
					return err
				}
			case gray:
				return newTrickleException("cycle detected: %s", formatCycle(path, pred))
			case black:
				// fully explored elsewhere, cannot contribute a new cycle
			}
		}

		path = path[:len(path)-1]
		color[d] = black
		return nil
	}

	for _, d := range decls {
		if color[d] == white {
			if err := visit(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func predecessorsOf(d *declCore) []*declCore {
	preds := make([]*declCore, 0, len(d.bindings)+len(d.after))
	for _, b := range d.bindings {
		if b.kind == argNode {
			preds = append(preds, b.decl)
		}
	}
	preds = append(preds, d.after...)
	return preds
}

// formatCycle renders the back-edge found at path[len(path)-1] -> target as
// "a -> b -> ... -> a", where the cycle segment starts at target's first
// occurrence in path.
func formatCycle(path []*declCore, target *declCore) string {
	start := 0
	for i, d := range path {
		if d == target {
			start = i
			break
		}
	}
	segment := path[start:]
	names := make([]string, 0, len(segment)+1)
	for _, d := range segment {
		names = append(names, d.name)
	}
	names = append(names, target.name)
	return strings.Join(names, " -> ")
}

// buildNodeInfos computes a NodeInfo for every decl, bottom-up, so that
// decls shared by multiple callers share a single *NodeInfo instance.
func buildNodeInfos(decls []*declCore) map[*declCore]*NodeInfo {
	infos := make(map[*declCore]*NodeInfo, len(decls))

	var build func(d *declCore) *NodeInfo
	build = func(d *declCore) *NodeInfo {
		if info, ok := infos[d]; ok {
			return info
		}
		info := &NodeInfo{Name: d.name, Kind: KindNode}
		infos[d] = info // reserve before recursing; decls form a DAG so this never observes a half-built cycle

		for _, b := range d.bindings {
			switch b.kind {
			case argNode:
				info.Args = append(info.Args, build(b.decl))
			case argInput:
				info.Args = append(info.Args, &NodeInfo{Name: b.label, Kind: KindInput})
			}
		}
		info.Preds = append(info.Preds, info.Args...)
		for _, p := range d.after {
			info.Preds = append(info.Preds, build(p))
		}
		return info
	}

	for _, d := range decls {
		build(d)
	}
	return infos
}
