package problem

// Component is a connected set of variables: two variables are adjacent
// when some residual block reads both.
type Component struct {
	// Variables in breadth-first order from the earliest registered member.
	Variables []string
	// Anchored is true when a block reads a single non-constant variable of
	// the component, or a member has fixed coordinates. An unanchored
	// component usually makes the normal equations singular.
	Anchored bool
}

// walker carries the breadth-first state over the variable graph.
type walker struct {
	adj     [][]int
	visited []bool
	queue   []int
}

// Components splits the variable graph into connected components, in
// registration order of their first variable.
func (p *Problem) Components() []Component {
	n := len(p.vars)
	w := &walker{adj: make([][]int, n), visited: make([]bool, n), queue: make([]int, 0, n)}
	anchor := make([]bool, n)
	for _, blk := range p.blocks {
		active := blk.vars[:0:0]
		for _, i := range blk.vars {
			if !p.vars[i].constant() {
				active = append(active, i)
			}
		}
		if len(active) == 1 {
			anchor[active[0]] = true
		}
		for _, a := range blk.vars {
			for _, b := range blk.vars {
				if a != b {
					w.adj[a] = append(w.adj[a], b)
				}
			}
		}
	}
	for i, v := range p.vars {
		for _, f := range v.fixed {
			if f {
				anchor[i] = true
				break
			}
		}
	}

	var out []Component
	for start := 0; start < n; start++ {
		if w.visited[start] {
			continue
		}
		order := w.walk(start)
		c := Component{Variables: make([]string, len(order))}
		for k, i := range order {
			c.Variables[k] = p.vars[i].name
			c.Anchored = c.Anchored || anchor[i]
		}
		out = append(out, c)
	}

	return out
}

// walk visits everything reachable from start and returns the visit order.
func (w *walker) walk(start int) []int {
	var order []int
	w.visited[start] = true
	w.queue = append(w.queue[:0], start)
	for len(w.queue) > 0 {
		cur := w.queue[0]
		w.queue = w.queue[1:]
		order = append(order, cur)
		for _, nbr := range w.adj[cur] {
			if !w.visited[nbr] {
				w.visited[nbr] = true
				w.queue = append(w.queue, nbr)
			}
		}
	}

	return order
}
