package g2o_test

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlopt/factor"
	"github.com/katalvlaran/lvlopt/g2o"
	"github.com/katalvlaran/lvlopt/loss"
	"github.com/katalvlaran/lvlopt/manifold"
	"github.com/katalvlaran/lvlopt/optimizer"
	"github.com/katalvlaran/lvlopt/problem"
)

const chainSE2 = `# three poses, two odometry edges
VERTEX_SE2 0 0 0 0
VERTEX_SE2 1 0.8 0.2 0.3
VERTEX_SE2 2 1.5 0.7 1.2
EDGE_SE2 0 1 1 0 0.5 1 0 0 1 0 1
EDGE_SE2 1 2 1 0 0.5 1 0 0 1 0 1
`

func TestReadSE2(t *testing.T) {
	p, values, err := g2o.Read(strings.NewReader(chainSE2))
	require.NoError(t, err)

	assert.Equal(t, 3, p.NumVariables())
	assert.Equal(t, 3, p.NumResidualBlocks(), "two edges and the anchor")
	assert.Equal(t, []float64{0.3, 0.8, 0.2}, values["x1"], "stored as [theta, x, y]")
	assert.Nil(t, p.Manifold("x1"))

	blocks := p.ResidualBlocks()
	assert.IsType(t, &factor.BetweenSE2{}, blocks[0].Factor)
	assert.IsType(t, &loss.Huber{}, blocks[0].Loss)
	assert.IsType(t, &factor.Prior{}, blocks[2].Factor)
	assert.Equal(t, []problem.VariableSpec{{Name: "x0", Dim: 3}}, blocks[2].Variables)
}

func TestReadSE3(t *testing.T) {
	const in = `VERTEX_SE3:QUAT 0 0 0 0 0 0 0 1
VERTEX_SE3:QUAT 1 1 0 0 0 0 0 2
EDGE_SE3:QUAT 0 1 1 0 0 0 0 0 1
`
	p, values, err := g2o.Read(strings.NewReader(in), g2o.WithAnchor(false))
	require.NoError(t, err)
	assert.Equal(t, 1, p.NumResidualBlocks())
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 0, 0}, values["x1"], "quaternion normalized and moved first")
	assert.Equal(t, manifold.SE3{}, p.Manifold("x0"))
	assert.Equal(t, manifold.SE3{}, p.Manifold("x1"))

	ev, err := p.Evaluate(values, false, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, ev.Cost, 1e-12, "initial poses already satisfy the edge")
}

func TestReadInformationWeighting(t *testing.T) {
	const in = `VERTEX_SE2 0 0 0 0
VERTEX_SE2 1 0 0 0
EDGE_SE2 0 1 1 0 0 4 0 0 9 0 16
`
	p, values, err := g2o.Read(strings.NewReader(in),
		g2o.WithInformation(true), g2o.WithAnchor(false), g2o.WithEdgeLoss(nil))
	require.NoError(t, err)
	b := p.ResidualBlocks()[0]
	require.IsType(t, &factor.Whitened{}, b.Factor)
	assert.Equal(t, loss.Trivial{}, b.Loss)

	r, _, err := b.Factor.Evaluate([][]float64{values["x0"], values["x1"]}, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 0, 0}, r, 1e-12)
}

func TestReadFix(t *testing.T) {
	p, _, err := g2o.Read(strings.NewReader(chainSE2 + "FIX 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, p.NumResidualBlocks(), "a fixed vertex replaces the anchor")
	assert.True(t, p.IsFixed("x0", 0))
	assert.False(t, p.IsFixed("x1", 0))
}

func TestReadSkipsUnknownTags(t *testing.T) {
	p, _, err := g2o.Read(strings.NewReader("PARAMS_SE2OFFSET 0 0 0 0\n\n" + chainSE2))
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumVariables())
}

func TestReadErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
		line string
	}{
		{"short vertex", "VERTEX_SE2 0 1 2\n", g2o.ErrMalformedLine, "line 1"},
		{"bad number", "VERTEX_SE2 0 1 2 abc\n", g2o.ErrMalformedLine, "line 1"},
		{"bad id", "VERTEX_SE2 a 1 2 3\n", g2o.ErrMalformedLine, "line 1"},
		{"non-finite", "VERTEX_SE2 0 1 2 NaN\n", g2o.ErrMalformedLine, "line 1"},
		{"zero quaternion", "VERTEX_SE3:QUAT 0 0 0 0 0 0 0 0\n", g2o.ErrMalformedLine, "line 1"},
		{"unknown vertex", "VERTEX_SE2 0 0 0 0\nEDGE_SE2 0 7 1 0 0\n", g2o.ErrUnknownVertex, "line 2"},
		{"duplicate vertex", "VERTEX_SE2 0 0 0 0\nVERTEX_SE2 0 1 0 0\n", g2o.ErrDuplicateVertex, "line 2"},
		{"mixed pose types", "VERTEX_SE2 0 0 0 0\nVERTEX_SE3:QUAT 1 0 0 0 0 0 0 1\nEDGE_SE2 0 1 1 0 0\n", g2o.ErrMalformedLine, "line 3"},
		{"fix unknown", "VERTEX_SE2 0 0 0 0\nFIX 3\n", g2o.ErrUnknownVertex, "line 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := g2o.Read(strings.NewReader(tc.in))
			require.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), tc.line)
		})
	}
}

func TestReadRejectsIndefiniteInformation(t *testing.T) {
	const in = "VERTEX_SE2 0 0 0 0\nVERTEX_SE2 1 0 0 0\nEDGE_SE2 0 1 1 0 0 1 0 0 -1 0 1\n"
	_, _, err := g2o.Read(strings.NewReader(in), g2o.WithInformation(true))
	require.ErrorIs(t, err, g2o.ErrMalformedLine)
	assert.ErrorIs(t, err, factor.ErrNotPositiveDefinite)
}

func TestWriteRoundTrip(t *testing.T) {
	values := map[string][]float64{
		"x10": {0.25, 1, -2},
		"x2":  {0, 0, 0, 1, 3, 4, 5},
	}
	var buf bytes.Buffer
	require.NoError(t, g2o.Write(&buf, values))
	assert.Equal(t, "VERTEX_SE3:QUAT 2 3 4 5 0 0 0 1\nVERTEX_SE2 10 1 -2 0.25\n", buf.String())

	_, back, err := g2o.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, values, back)
}

func TestWriteRejectsNonPoses(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, g2o.Write(&buf, map[string][]float64{"a": {1, 2, 3}}), g2o.ErrBadVariable)
	assert.ErrorIs(t, g2o.Write(&buf, map[string][]float64{"x1": {1, 2}}), g2o.ErrBadVariable)
}

// TestOptimizeChain closes the loop: read, optimize, and compare against
// the poses implied by the odometry.
func TestOptimizeChain(t *testing.T) {
	p, values, err := g2o.Read(strings.NewReader(chainSE2))
	require.NoError(t, err)
	res, err := optimizer.LevenbergMarquardt{}.Optimize(context.Background(), p, values)
	require.NoError(t, err)
	require.True(t, res.Status.Converged(), res.Status.String())

	assert.InDeltaSlice(t, []float64{0, 0, 0}, res.Values["x0"], 1e-4)
	assert.InDeltaSlice(t, []float64{0.5, 1, 0}, res.Values["x1"], 1e-4)
	assert.InDeltaSlice(t, []float64{1, 1 + math.Cos(0.5), math.Sin(0.5)}, res.Values["x2"], 1e-4)
}
