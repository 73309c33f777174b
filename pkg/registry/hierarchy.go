package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/navgraph/pkg/domain"
)

var (
	// ErrInconsistentHierarchy is returned when the declared bases admit no order that
	// keeps every type ahead of its bases and every base list in declaration order.
	ErrInconsistentHierarchy = errors.New("inconsistent type hierarchy")

	// ErrBaseCycle is returned when a type derives from itself.
	ErrBaseCycle = errors.New("type derives from itself")
)

// linearize computes the C3 linearization of t: t first, then the merge of its bases'
// linearizations and of its base list. A type always precedes its bases and bases keep
// their declared order, so in a diamond the shared base comes after every type deriving
// from it.
func linearize(bases map[domain.TypeName][]domain.TypeName, t domain.TypeName) ([]domain.TypeName, error) {
	memo := make(map[domain.TypeName][]domain.TypeName)
	onPath := make(map[domain.TypeName]bool)

	var lin func(domain.TypeName) ([]domain.TypeName, error)
	lin = func(n domain.TypeName) ([]domain.TypeName, error) {
		if l, ok := memo[n]; ok {
			return l, nil
		}
		if onPath[n] {
			return nil, fmt.Errorf("%w: %s", ErrBaseCycle, n)
		}
		onPath[n] = true
		defer delete(onPath, n)

		seqs := make([][]domain.TypeName, 0, len(bases[n])+1)
		for _, b := range bases[n] {
			l, err := lin(b)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, slices.Clone(l))
		}
		seqs = append(seqs, slices.Clone(bases[n]))

		merged, ok := merge(seqs)
		if !ok {
			return nil, fmt.Errorf("%w: cannot order the bases %v of %s", ErrInconsistentHierarchy, bases[n], n)
		}
		out := append([]domain.TypeName{n}, merged...)
		memo[n] = out
		return out, nil
	}
	return lin(t)
}

// merge repeatedly takes the first head that appears in no sequence's tail.
// It fails when every remaining head is blocked.
func merge(seqs [][]domain.TypeName) ([]domain.TypeName, bool) {
	var out []domain.TypeName
	for {
		seqs = slices.DeleteFunc(seqs, func(s []domain.TypeName) bool { return len(s) == 0 })
		if len(seqs) == 0 {
			return out, true
		}

		var head domain.TypeName
		found := false
		for _, s := range seqs {
			if !inTail(seqs, s[0]) {
				head, found = s[0], true
				break
			}
		}
		if !found {
			return nil, false
		}

		out = append(out, head)
		for i := range seqs {
			if seqs[i][0] == head {
				seqs[i] = seqs[i][1:]
			}
		}
	}
}

func inTail(seqs [][]domain.TypeName, t domain.TypeName) bool {
	for _, s := range seqs {
		if slices.Contains(s[1:], t) {
			return true
		}
	}
	return false
}

// lineage is linearize for lookups. A malformed hierarchy still yields a usable order:
// the bases walked depth-first, left to right, each type kept at its first visit.
// Validation reports the malformation.
func lineage(bases map[domain.TypeName][]domain.TypeName, t domain.TypeName) []domain.TypeName {
	if order, err := linearize(bases, t); err == nil {
		return order
	}

	var order []domain.TypeName
	seen := make(map[domain.TypeName]bool)
	var visit func(domain.TypeName)
	visit = func(n domain.TypeName) {
		if seen[n] {
			return
		}
		seen[n] = true
		order = append(order, n)
		for _, b := range bases[n] {
			visit(b)
		}
	}
	visit(t)
	return order
}
