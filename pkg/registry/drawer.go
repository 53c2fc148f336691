package registry

import (
	"io"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
	colors "gopkg.in/go-playground/colors.v1"
)

// palette holds one RGB tuple per category, assigned in sorted category
// order and reused cyclically.
var palette = [][3]uint8{
	{66, 133, 244},
	{219, 68, 55},
	{244, 180, 0},
	{15, 157, 88},
	{171, 71, 188},
	{0, 172, 193},
}

// ExportDOT writes the dependency graph of every registered step in DOT
// format. Vertices are coloured by category; edges point from a dependency
// to its dependant. Dependencies that are not registered are omitted.
func (r *Registry) ExportDOT(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.steps))
	catSet := make(map[string]struct{})
	for id, reg := range r.steps {
		ids = append(ids, id)
		catSet[reg.Descriptor.Category] = struct{}{}
	}
	sort.Strings(ids)

	cats := make([]string, 0, len(catSet))
	for c := range catSet {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	catColor := make(map[string]string, len(cats))
	for i, c := range cats {
		rgb := palette[i%len(palette)]
		hex, err := colors.RGB(rgb[0], rgb[1], rgb[2])
		if err != nil {
			return errors.Wrapf(err, "colour for category %q", c)
		}
		catColor[c] = hex.ToHEX().String()
	}

	g := graph.New(graph.StringHash, graph.Directed())
	for _, id := range ids {
		d := r.steps[id].Descriptor
		err := g.AddVertex(id,
			graph.VertexAttribute("style", "filled"),
			graph.VertexAttribute("fillcolor", catColor[d.Category]),
			graph.VertexAttribute("tooltip", d.Name),
		)
		if err != nil {
			return errors.Wrapf(err, "add vertex %q", id)
		}
	}
	for _, id := range ids {
		for _, dep := range r.steps[id].Descriptor.Dependencies {
			if _, ok := r.steps[dep]; !ok {
				continue
			}
			if err := g.AddEdge(dep, id); err != nil {
				return errors.Wrapf(err, "add edge %q -> %q", dep, id)
			}
		}
	}
	return errors.Wrap(draw.DOT(g, w), "write dot graph")
}
