package g2o

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlopt/factor"
	"github.com/katalvlaran/lvlopt/loss"
	"github.com/katalvlaran/lvlopt/manifold"
	"github.com/katalvlaran/lvlopt/problem"
)

const (
	tagVertexSE2 = "VERTEX_SE2"
	tagEdgeSE2   = "EDGE_SE2"
	tagVertexSE3 = "VERTEX_SE3:QUAT"
	tagEdgeSE3   = "EDGE_SE3:QUAT"
	tagFix       = "FIX"
)

var (
	// ErrMalformedLine reports a record with the wrong field count or an
	// unparsable number.
	ErrMalformedLine = errors.New("g2o: malformed line")
	// ErrUnknownVertex reports an edge or FIX record naming an undeclared vertex.
	ErrUnknownVertex = errors.New("g2o: unknown vertex")
	// ErrDuplicateVertex reports a vertex id declared twice.
	ErrDuplicateVertex = errors.New("g2o: duplicate vertex")
	// ErrBadVariable reports a value that Write cannot map to a vertex.
	ErrBadVariable = errors.New("g2o: variable is not a pose")
)

// Option configures Read.
type Option func(*options)

type options struct {
	edgeLoss    loss.Loss
	anchor      bool
	information bool
	log         logr.Logger
}

// WithEdgeLoss replaces the Huber(1) loss put on every edge and on the
// anchor. A nil loss means plain least squares.
func WithEdgeLoss(l loss.Loss) Option {
	return func(o *options) {
		if l == nil {
			l = loss.Trivial{}
		}
		o.edgeLoss = l
	}
}

// WithAnchor toggles the prior that pins the first vertex (default on).
func WithAnchor(on bool) Option {
	return func(o *options) {
		o.anchor = on
	}
}

// WithInformation weights each edge by its information matrix instead of
// ignoring it.
func WithInformation(on bool) Option {
	return func(o *options) {
		o.information = on
	}
}

// WithLogger reports skipped records at V(1).
func WithLogger(l logr.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// VariableName returns the variable name used for vertex id.
func VariableName(id int) string { return "x" + strconv.Itoa(id) }

type vertex struct {
	id    int
	name  string
	value []float64
	se3   bool
}

type reader struct {
	opts    options
	prob    *problem.Problem
	values  map[string][]float64
	byID    map[int]*vertex
	order   []*vertex
	fixed   []*vertex
	skipped map[string]int
}

// Read parses a g2o stream into a problem and its initial values.
func Read(r io.Reader, opts ...Option) (*problem.Problem, map[string][]float64, error) {
	h, _ := loss.NewHuber(1)
	rd := &reader{
		opts:    options{edgeLoss: h, anchor: true, log: logr.Discard()},
		prob:    problem.New(),
		values:  make(map[string][]float64),
		byID:    make(map[int]*vertex),
		skipped: make(map[string]int),
	}
	for _, opt := range opts {
		opt(&rd.opts)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := rd.record(fields); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if err := rd.finish(); err != nil {
		return nil, nil, err
	}
	for tag, n := range rd.skipped {
		rd.opts.log.V(1).Info("skipped unsupported records", "tag", tag, "count", n)
	}

	return rd.prob, rd.values, nil
}

func (rd *reader) record(f []string) error {
	switch f[0] {
	case tagVertexSE2:
		return rd.vertexSE2(f[1:])
	case tagVertexSE3:
		return rd.vertexSE3(f[1:])
	case tagEdgeSE2:
		return rd.edgeSE2(f[1:])
	case tagEdgeSE3:
		return rd.edgeSE3(f[1:])
	case tagFix:
		return rd.fix(f[1:])
	}
	rd.skipped[f[0]]++

	return nil
}

func (rd *reader) addVertex(id int, value []float64, se3 bool) error {
	if _, ok := rd.byID[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateVertex, id)
	}
	v := &vertex{id: id, name: VariableName(id), value: value, se3: se3}
	rd.byID[id] = v
	rd.order = append(rd.order, v)
	rd.values[v.name] = value

	return nil
}

func (rd *reader) vertexSE2(f []string) error {
	id, nums, err := parseRecord(tagVertexSE2, f, 1, 3)
	if err != nil {
		return err
	}

	return rd.addVertex(id[0], []float64{nums[2], nums[0], nums[1]}, false)
}

func (rd *reader) vertexSE3(f []string) error {
	id, nums, err := parseRecord(tagVertexSE3, f, 1, 7)
	if err != nil {
		return err
	}
	q, err := normalize(nums[3:7])
	if err != nil {
		return err
	}

	return rd.addVertex(id[0], []float64{q[0], q[1], q[2], q[3], nums[0], nums[1], nums[2]}, true)
}

func (rd *reader) endpoints(ids []int, se3 bool) (*vertex, *vertex, error) {
	out := make([]*vertex, 2)
	for k, id := range ids {
		v, ok := rd.byID[id]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %d", ErrUnknownVertex, id)
		}
		if v.se3 != se3 {
			return nil, nil, fmt.Errorf("%w: vertex %d has the wrong pose type", ErrMalformedLine, id)
		}
		out[k] = v
	}

	return out[0], out[1], nil
}

func (rd *reader) edgeSE2(f []string) error {
	ids, nums, err := parseRecord(tagEdgeSE2, f, 2, 3, 6)
	if err != nil {
		return err
	}
	v0, v1, err := rd.endpoints(ids, false)
	if err != nil {
		return err
	}
	var fac factor.Factor = factor.NewBetweenSE2(nums[0], nums[1], nums[2])
	if fac, err = rd.weight(fac, nums[3:], nil); err != nil {
		return err
	}

	return rd.addEdge(v0, v1, 3, 3, fac)
}

// se3InfoOrder maps the (ω, ρ) residual rows onto g2o's (t, q) ordering.
var se3InfoOrder = []int{3, 4, 5, 0, 1, 2}

func (rd *reader) edgeSE3(f []string) error {
	ids, nums, err := parseRecord(tagEdgeSE3, f, 2, 7, 21)
	if err != nil {
		return err
	}
	v0, v1, err := rd.endpoints(ids, true)
	if err != nil {
		return err
	}
	q, err := normalize(nums[3:7])
	if err != nil {
		return err
	}
	var fac factor.Factor = factor.NewBetweenSE3(
		[3]float64{nums[0], nums[1], nums[2]},
		[4]float64{q[0], q[1], q[2], q[3]},
	)
	if fac, err = rd.weight(fac, nums[7:], se3InfoOrder); err != nil {
		return err
	}

	return rd.addEdge(v0, v1, 6, 7, fac)
}

func (rd *reader) addEdge(v0, v1 *vertex, residualDim, dim int, fac factor.Factor) error {
	return rd.prob.AddResidualBlock(residualDim, []problem.VariableSpec{
		{Name: v0.name, Dim: dim},
		{Name: v1.name, Dim: dim},
	}, fac, rd.opts.edgeLoss)
}

// weight whitens fac by the upper-triangular information entries when
// information weighting is on. Entries within a record may be omitted.
func (rd *reader) weight(fac factor.Factor, upper []float64, order []int) (factor.Factor, error) {
	if !rd.opts.information || len(upper) == 0 {
		return fac, nil
	}
	n := fac.ResidualDim()
	if len(upper) != n*(n+1)/2 {
		return nil, fmt.Errorf("%w: %d information entries, want %d", ErrMalformedLine, len(upper), n*(n+1)/2)
	}
	info := mat.NewSymDense(n, nil)
	k := 0
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			info.SetSym(i, j, upper[k])
			k++
		}
	}
	if order != nil {
		perm := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				perm.SetSym(i, j, info.At(order[i], order[j]))
			}
		}
		info = perm
	}
	w, err := factor.NewWhitened(fac, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}

	return w, nil
}

func (rd *reader) fix(f []string) error {
	if len(f) == 0 {
		return fmt.Errorf("%w: %s needs at least one id", ErrMalformedLine, tagFix)
	}
	for _, s := range f {
		id, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %s id %q", ErrMalformedLine, tagFix, s)
		}
		v, ok := rd.byID[id]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownVertex, id)
		}
		rd.fixed = append(rd.fixed, v)
	}

	return nil
}

// finish anchors the graph and attaches manifolds once every variable
// exists.
func (rd *reader) finish() error {
	if rd.opts.anchor && len(rd.order) > 0 && len(rd.fixed) == 0 {
		first := rd.order[0]
		if err := rd.prob.AddResidualBlock(len(first.value), []problem.VariableSpec{
			{Name: first.name, Dim: len(first.value)},
		}, factor.NewPrior(first.value), rd.opts.edgeLoss); err != nil {
			return err
		}
	}
	for _, v := range rd.order {
		if !v.se3 || !rd.prob.HasVariable(v.name) {
			continue
		}
		if err := rd.prob.SetManifold(v.name, manifold.SE3{}); err != nil {
			return err
		}
	}
	for _, v := range rd.fixed {
		if !rd.prob.HasVariable(v.name) {
			continue
		}
		if err := rd.prob.FixVariable(v.name); err != nil {
			return err
		}
	}

	return nil
}

// parseRecord reads nIDs integers followed by exactly want floats, or by
// want+optional floats when optional is given.
func parseRecord(tag string, f []string, nIDs, want int, optional ...int) ([]int, []float64, error) {
	n := len(f) - nIDs
	ok := n == want
	for _, o := range optional {
		ok = ok || n == want+o
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s has %d fields", ErrMalformedLine, tag, len(f))
	}
	ids := make([]int, nIDs)
	for k := range ids {
		id, err := strconv.Atoi(f[k])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s id %q", ErrMalformedLine, tag, f[k])
		}
		ids[k] = id
	}
	nums := make([]float64, n)
	for k := range nums {
		x, err := strconv.ParseFloat(f[nIDs+k], 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, nil, fmt.Errorf("%w: %s value %q", ErrMalformedLine, tag, f[nIDs+k])
		}
		nums[k] = x
	}

	return ids, nums, nil
}

func normalize(q []float64) ([]float64, error) {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		return nil, fmt.Errorf("%w: zero quaternion", ErrMalformedLine)
	}

	return []float64{q[0] / n, q[1] / n, q[2] / n, q[3] / n}, nil
}

// Write emits every pose in values as a vertex record, sorted by id.
// Length-3 values are written as VERTEX_SE2 and length-7 values as
// VERTEX_SE3:QUAT.
func Write(w io.Writer, values map[string][]float64) error {
	type entry struct {
		id int
		x  []float64
	}
	entries := make([]entry, 0, len(values))
	for name, x := range values {
		id, err := strconv.Atoi(strings.TrimPrefix(name, "x"))
		if err != nil || !strings.HasPrefix(name, "x") {
			return fmt.Errorf("%w: name %q", ErrBadVariable, name)
		}
		if len(x) != 3 && len(x) != 7 {
			return fmt.Errorf("%w: %q has length %d", ErrBadVariable, name, len(x))
		}
		entries = append(entries, entry{id: id, x: x})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	bw := bufio.NewWriter(w)
	for _, e := range entries {
		var fields []float64
		tag := tagVertexSE2
		if len(e.x) == 3 {
			fields = []float64{e.x[1], e.x[2], e.x[0]}
		} else {
			tag = tagVertexSE3
			fields = []float64{e.x[4], e.x[5], e.x[6], e.x[0], e.x[1], e.x[2], e.x[3]}
		}
		parts := make([]string, 0, len(fields)+2)
		parts = append(parts, tag, strconv.Itoa(e.id))
		for _, v := range fields {
			parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if _, err := bw.WriteString(strings.Join(parts, " ") + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}
