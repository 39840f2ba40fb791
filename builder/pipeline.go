package builder

import "fmt"

// Pipeline assigns topological node indices from a GraphBuilder's edge
// set, lifted from the teacher's pipeline.go DFS topological sort
// (visit/sort) with the TICKscript tree-of-children model generalized to
// an arbitrary edge list and a panic-on-cycle replaced by a returned
// WiringError-worthy error, since a build-time cycle must be reported, not
// crash the process.
type Pipeline struct {
	n        int
	children [][]int
	sorted   []int
}

// NewPipeline builds a Pipeline over n nodes (indices 0..n-1) connected by
// edges; Sort orders source nodes before the nodes that depend on them.
func NewPipeline(n int, edges []Edge) *Pipeline {
	children := make([][]int, n)
	for _, e := range edges {
		children[e.SrcNodeIndex] = append(children[e.SrcNodeIndex], e.DstNodeIndex)
	}
	return &Pipeline{n: n, children: children}
}

// Sort returns node indices in dependency order: every node appears after
// all of its inputs' source nodes. An error is returned if the edge set
// contains a cycle.
func (p *Pipeline) Sort() ([]int, error) {
	if p.sorted != nil {
		return p.sorted, nil
	}
	pMark := make([]bool, p.n)
	tMark := make([]bool, p.n)
	var sorted []int

	var visit func(i int) error
	visit = func(i int) error {
		if tMark[i] {
			return fmt.Errorf("builder: pipeline contains a cycle at node index %d", i)
		}
		if !pMark[i] {
			tMark[i] = true
			for _, c := range p.children[i] {
				if err := visit(c); err != nil {
					return err
				}
			}
			pMark[i] = true
			tMark[i] = false
			sorted = append(sorted, i)
		}
		return nil
	}

	for i := p.n - 1; i >= 0; i-- {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	p.sorted = sorted
	return sorted, nil
}

// Len returns the number of nodes in the pipeline.
func (p *Pipeline) Len() int { return p.n }
