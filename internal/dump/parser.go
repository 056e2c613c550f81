// Package dump parses the plain-text, line-oriented query-dump format
// emitted by the query engine's debug dump facility into a
// *querygraph.QueryGraph, giving the DP driver something concrete to
// consume in tests and the CLI.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kasuganosora/joinopt/internal/bitset"
	"github.com/kasuganosora/joinopt/internal/querygraph"
)

type inputRecord struct {
	id          int
	cardinality float64
	tableSize   float64
	name        string
}

type joinRecord struct {
	relA, relB  string
	selectivity float64
}

type subsetRecord struct {
	mask        uint64
	cardinality float64
}

// Parse reads a query dump from r. It tracks two flags: seenJoin (true
// once any "join" line has been read) and read (true once the first
// "input" line following a "join" line is encountered). Records are only
// appended to the result once read is true: every line before that input
// is ignored, including the join lines that set seenJoin, so a join
// predicate is kept only if it appears after that input. read is never
// reset.
//
// Malformed lines (unparsable integer/real tokens, unknown relation names
// in a join) are reported to stderrWriter and skipped; optimization can
// still proceed best-effort over whatever parsed.
func Parse(r io.Reader, stderrWriter io.Writer) (*querygraph.QueryGraph, error) {
	scanner := bufio.NewScanner(r)

	var inputs []inputRecord
	var joins []joinRecord
	var subsets []subsetRecord

	seenJoin := false
	read := false

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		kind := fields[0]

		switch kind {
		case "join":
			seenJoin = true
			if !read {
				continue
			}
			jr, err := parseJoin(fields[1:])
			if err != nil {
				fmt.Fprintf(stderrWriter, "dump: line %d: %v\n", lineNo, err)
				continue
			}
			joins = append(joins, jr)

		case "input":
			if seenJoin && !read {
				read = true
			}
			if !read {
				continue
			}
			ir, err := parseInput(fields[1:])
			if err != nil {
				fmt.Fprintf(stderrWriter, "dump: line %d: %v\n", lineNo, err)
				continue
			}
			inputs = append(inputs, ir)

		case "o":
			if !read {
				continue
			}
			sr, err := parseSubset(fields[1:])
			if err != nil {
				fmt.Fprintf(stderrWriter, "dump: line %d: %v\n", lineNo, err)
				continue
			}
			subsets = append(subsets, sr)

		default:
			fmt.Fprintf(stderrWriter, "dump: line %d: unrecognized record kind %q\n", lineNo, kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dump: scanning input: %w", err)
	}

	return build(inputs, joins, subsets, stderrWriter)
}

func parseInput(fields []string) (inputRecord, error) {
	if len(fields) < 4 {
		return inputRecord{}, fmt.Errorf("malformed input record: %v", fields)
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return inputRecord{}, fmt.Errorf("bad relation id %q: %w", fields[0], err)
	}
	card, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return inputRecord{}, fmt.Errorf("bad cardinality %q: %w", fields[1], err)
	}
	size, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return inputRecord{}, fmt.Errorf("bad table_size %q: %w", fields[2], err)
	}
	return inputRecord{id: id, cardinality: card, tableSize: size, name: fields[3]}, nil
}

// parseJoin handles `join [rel_a="<name_a>" [rel_b="<name_b>"] sel=<sel>`,
// stripping the `[rel_a="`..`"` / `[rel_b="`..`"]` wrappers and the
// `sel=` prefix.
func parseJoin(fields []string) (joinRecord, error) {
	if len(fields) < 2 {
		return joinRecord{}, fmt.Errorf("malformed join record: %v", fields)
	}
	relA := stripRelWrapper(fields[0], "rel_a")
	relB := stripRelWrapper(fields[1], "rel_b")
	selToken := fields[len(fields)-1]
	selStr := strings.TrimPrefix(selToken, "sel=")
	sel, err := strconv.ParseFloat(selStr, 64)
	if err != nil {
		return joinRecord{}, fmt.Errorf("bad selectivity %q: %w", selToken, err)
	}
	if relA == "" || relB == "" {
		return joinRecord{}, fmt.Errorf("malformed join endpoints: %v", fields)
	}
	return joinRecord{relA: relA, relB: relB, selectivity: sel}, nil
}

func stripRelWrapper(token, prefix string) string {
	t := strings.TrimPrefix(token, "["+prefix+"=\"")
	t = strings.TrimSuffix(t, "\"]")
	t = strings.TrimSuffix(t, "\"")
	return t
}

func parseSubset(fields []string) (subsetRecord, error) {
	if len(fields) < 2 {
		return subsetRecord{}, fmt.Errorf("malformed subset record: %v", fields)
	}
	mask, err := strconv.ParseUint(fields[0], 0, 64)
	if err != nil {
		return subsetRecord{}, fmt.Errorf("bad subset mask %q: %w", fields[0], err)
	}
	card, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return subsetRecord{}, fmt.Errorf("bad subset cardinality %q: %w", fields[1], err)
	}
	return subsetRecord{mask: mask, cardinality: card}, nil
}

func build(inputs []inputRecord, joins []joinRecord, subsets []subsetRecord, stderrWriter io.Writer) (*querygraph.QueryGraph, error) {
	nameToID := make(map[string]int, len(inputs))
	relations := make([]querygraph.Relation, len(inputs))
	for i, in := range inputs {
		relations[i] = querygraph.Relation{
			Name:        in.name,
			ID:          in.id,
			TableSize:   in.tableSize,
			Cardinality: in.cardinality,
		}
		nameToID[in.name] = in.id
	}

	rawJoins := make([]querygraph.RawJoin, 0, len(joins))
	for _, j := range joins {
		leftID, ok := nameToID[j.relA]
		if !ok {
			fmt.Fprintf(stderrWriter, "dump: unknown relation %q in join, skipping\n", j.relA)
			continue
		}
		rightID, ok := nameToID[j.relB]
		if !ok {
			fmt.Fprintf(stderrWriter, "dump: unknown relation %q in join, skipping\n", j.relB)
			continue
		}
		rawJoins = append(rawJoins, querygraph.RawJoin{
			LeftID:      leftID,
			RightID:     rightID,
			Selectivity: j.selectivity,
		})
	}

	cardinalities := make(map[bitset.Set]float64, len(subsets))
	for _, s := range subsets {
		cardinalities[bitset.Set(s.mask)] = s.cardinality
	}

	return querygraph.New(relations, rawJoins, cardinalities)
}
