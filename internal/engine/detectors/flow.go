package detectors

import (
	"fmt"

	"scriptlint/internal/engine/metrics"
	"scriptlint/internal/engine/script/ast"
)

// ReturnConsistency reports functions that return a value on some paths and
// fall through or return nothing on others.
func ReturnConsistency(in *Input) []Violation {
	names := metrics.DisplayNames(in.Program)
	var out []Violation
	for _, s := range in.Flow.Functions {
		if !s.Inconsistent() {
			continue
		}
		name := s.Name
		if n, ok := names[s.Function]; ok {
			name = n
		}
		reason := "falls through without a return"
		if s.HasBareReturn && !s.FallsThrough {
			reason = "also returns without a value"
		}
		out = append(out, at(s.Function.NodeSpan(),
			fmt.Sprintf("function '%s' returns a value on some paths but %s", name, reason),
			map[string]string{"function": name}))
	}
	return out
}

// UnreachableCode reports the first statement of each block that can never
// execute.
func UnreachableCode(in *Input) []Violation {
	var out []Violation
	for _, st := range in.Flow.Unreachable {
		out = append(out, at(st.NodeSpan(),
			"unreachable code after return, break or continue",
			map[string]string{"statement": st.Kind()}))
	}
	return out
}

// NullSafety reports member chains that dereference more than
// max_chain_depth levels before the first optional access.
func NullSafety(in *Input) []Violation {
	limit := in.Thresholds.Get("max_chain_depth", DefaultMaxChainDepth)
	seen := map[ast.Node]bool{}
	var out []Violation
	ast.Inspect(in.Program, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.Member, *ast.Call:
		default:
			return true
		}
		if seen[n] {
			return true
		}
		links := chain(n.(ast.Expr), seen)
		depth := 0
		for _, m := range links {
			if m.Optional {
				break
			}
			depth++
		}
		if depth > limit {
			out = append(out, at(n.NodeSpan(),
				fmt.Sprintf("property chain dereferences %d levels without optional chaining (max %d)", depth, limit),
				map[string]string{"depth": itoa(depth), "max": itoa(limit)}))
		}
		return true
	})
	return out
}

// chain flattens a member/call chain into its member links, root first, and
// marks every node of the chain as seen.
func chain(x ast.Expr, seen map[ast.Node]bool) []*ast.Member {
	var links []*ast.Member
	for {
		seen[x] = true
		switch n := x.(type) {
		case *ast.Member:
			links = append(links, n)
			x = n.Object
		case *ast.Call:
			if n.Optional {
				// obj.fn?.() guards everything after it; treat as optional link.
				links = append(links, &ast.Member{Optional: true})
			}
			x = n.Callee
		default:
			for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
				links[i], links[j] = links[j], links[i]
			}
			return links
		}
	}
}
