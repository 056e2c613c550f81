package dump

import (
	"fmt"
	"io"
	"sort"

	"github.com/kasuganosora/joinopt/internal/bitset"
	"github.com/kasuganosora/joinopt/internal/querygraph"
)

// Emit serializes a QueryGraph back into the dump grammar Parse accepts.
// It is the inverse used by the round-trip property. The join lines are
// written both before and after the input lines: Parse drops the leading
// copy (it only sets the parser's seen-join flag) and keeps the trailing
// one, so Parse of Emit's output has the same relations, joins and subset
// cardinalities. A graph with no joins emits no join line, and Parse then
// keeps none of its records.
func Emit(w io.Writer, g *querygraph.QueryGraph) error {
	idToName := make(map[int]string, len(g.Relations))
	for _, rel := range g.Relations {
		idToName[rel.ID] = rel.Name
	}

	for _, j := range g.Joins {
		leftID := querygraph.SingleBitIndex(j.Left)
		rightID := querygraph.SingleBitIndex(j.Right)
		if _, err := fmt.Fprintf(w, "join [rel_a=%q] [rel_b=%q] sel=%f\n",
			idToName[leftID], idToName[rightID], j.Selectivity); err != nil {
			return err
		}
	}

	for _, rel := range g.Relations {
		if _, err := fmt.Fprintf(w, "input %d %f %f %s\n", rel.ID, rel.Cardinality, rel.TableSize, rel.Name); err != nil {
			return err
		}
	}

	for _, j := range g.Joins {
		leftID := querygraph.SingleBitIndex(j.Left)
		rightID := querygraph.SingleBitIndex(j.Right)
		if _, err := fmt.Fprintf(w, "join [rel_a=%q] [rel_b=%q] sel=%f\n",
			idToName[leftID], idToName[rightID], j.Selectivity); err != nil {
			return err
		}
	}

	masks := make([]bitset.Set, 0, len(g.Cardinalities))
	for mask := range g.Cardinalities {
		masks = append(masks, mask)
	}
	sort.Slice(masks, func(i, j int) bool { return masks[i] < masks[j] })
	for _, mask := range masks {
		if _, err := fmt.Fprintf(w, "o %d %f\n", mask, g.Cardinalities[mask]); err != nil {
			return err
		}
	}
	return nil
}
