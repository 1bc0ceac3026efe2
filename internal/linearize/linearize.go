package linearize

import (
	"errors"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

/*
C3 Linearization
----------------

Every class is registered with its direct bases ordered most-derived first
(the reverse of a Solidity `is` list, whose right-most entry is the most
derived base). The linearization of a class C with bases B1..Bn is

	L(C) = C + merge(L(B1), ..., L(Bn), [B1, ..., Bn])

merge repeatedly takes the head of the first list whose head does not
appear in the tail of any list, removes it from every list and appends it
to the result. When no list has such a head the precedence constraints
contradict each other and linearization fails.

Before merging, the graph reachable from C is checked for cycles with a
three-color depth-first search: a grey node reached again means the class
inherits from itself.
*/

var (
	ErrUnknownClass = errors.New("unknown class")
	ErrCycle        = errors.New("inheritance cycle")
	ErrInconsistent = errors.New("inconsistent precedence order")
)

// Class identifies a node of the inheritance graph.
type Class string

type color int

const (
	white color = iota
	grey
	black
)

// Graph is the explicit inheritance graph of one compilation.
type Graph struct {
	bases map[Class][]Class
	order []Class
	cache map[Class][]Class
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		bases: make(map[Class][]Class),
		cache: make(map[Class][]Class),
	}
}

// AddClass registers class with its direct bases, most-derived first.
// Registering a class twice replaces its bases.
func (g *Graph) AddClass(class Class, bases ...Class) {
	if _, ok := g.bases[class]; !ok {
		g.order = append(g.order, class)
	}
	g.bases[class] = append([]Class(nil), bases...)
	clear(g.cache)
}

// Has reports whether class was registered
func (g *Graph) Has(class Class) bool {
	_, ok := g.bases[class]
	return ok
}

// Bases returns the direct bases of class, most-derived first
func (g *Graph) Bases(class Class) []Class {
	return g.bases[class]
}

// Classes returns the registered classes in registration order
func (g *Graph) Classes() []Class {
	return append([]Class(nil), g.order...)
}

// Linearize returns the C3 order of class: class first, common bases last.
func (g *Graph) Linearize(class Class) ([]Class, error) {
	if !g.Has(class) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	if err := g.checkCycles(class); err != nil {
		return nil, err
	}
	result, err := g.linearize(class)
	if err != nil {
		return nil, err
	}
	return append([]Class(nil), result...), nil
}

// LinearizeAll linearizes every registered class in registration order.
func (g *Graph) LinearizeAll() (map[Class][]Class, error) {
	out := make(map[Class][]Class, len(g.order))
	for _, class := range g.order {
		chain, err := g.Linearize(class)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", class, err)
		}
		out[class] = chain
	}
	return out, nil
}

func (g *Graph) linearize(class Class) ([]Class, error) {
	if cached, ok := g.cache[class]; ok {
		return cached, nil
	}

	bases := g.bases[class]
	sequences := make([][]Class, 0, len(bases)+1)
	for _, base := range bases {
		chain, err := g.linearize(base)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, append([]Class(nil), chain...))
	}
	sequences = append(sequences, append([]Class(nil), bases...))

	merged, err := merge(sequences)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInconsistent, class, err)
	}

	result := append([]Class{class}, merged...)
	g.cache[class] = result
	return result, nil
}

func merge(sequences [][]Class) ([]Class, error) {
	var result []Class
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			return result, nil
		}

		tails := mapset.NewThreadUnsafeSet[Class]()
		for _, seq := range sequences {
			for _, c := range seq[1:] {
				tails.Add(c)
			}
		}

		var head Class
		found := false
		for _, seq := range sequences {
			if !tails.Contains(seq[0]) {
				head = seq[0]
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("cannot order %s", describeHeads(sequences))
		}

		result = append(result, head)
		for i, seq := range sequences {
			if seq[0] == head {
				sequences[i] = seq[1:]
			}
		}
	}
}

func dropEmpty(sequences [][]Class) [][]Class {
	out := sequences[:0]
	for _, seq := range sequences {
		if len(seq) > 0 {
			out = append(out, seq)
		}
	}
	return out
}

func describeHeads(sequences [][]Class) string {
	heads := mapset.NewThreadUnsafeSet[Class]()
	var names []string
	for _, seq := range sequences {
		if heads.Add(seq[0]) {
			names = append(names, string(seq[0]))
		}
	}
	return strings.Join(names, ", ")
}

// checkCycles runs the three-color search from class. Unknown bases are
// reported here as well since every edge is visited.
func (g *Graph) checkCycles(class Class) error {
	colors := make(map[Class]color)
	var path []Class

	var visit func(c Class) error
	visit = func(c Class) error {
		switch colors[c] {
		case black:
			return nil
		case grey:
			cycle := append(append([]Class(nil), path...), c)
			return fmt.Errorf("%w: %s", ErrCycle, joinClasses(cycle))
		}
		if !g.Has(c) {
			return fmt.Errorf("%w: %s", ErrUnknownClass, c)
		}

		colors[c] = grey
		path = append(path, c)
		for _, base := range g.bases[c] {
			if err := visit(base); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		colors[c] = black
		return nil
	}

	return visit(class)
}

func joinClasses(classes []Class) string {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = string(c)
	}
	return strings.Join(names, " -> ")
}
