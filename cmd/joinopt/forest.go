package main

import (
	"fmt"
	"plugin"

	"github.com/kasuganosora/joinopt/internal/model"
)

// loadForest opens a Go plugin (.so) exposing a ForestRoot symbol with
// model.ForestFunc's signature — the process-global compiled forest
// evaluator, linked externally so the trained model can be swapped
// without rebuilding the optimizer. The returned closer is a no-op: the
// Go runtime does not support unloading plugins once opened.
func loadForest(path string) (model.ForestFunc, func(), error) {
	if path == "" {
		return nil, nil, fmt.Errorf("no forest library path configured")
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening plugin %s: %w", path, err)
	}

	sym, err := p.Lookup("ForestRoot")
	if err != nil {
		return nil, nil, fmt.Errorf("plugin %s missing ForestRoot symbol: %w", path, err)
	}

	forest, ok := sym.(func(input, output []float64, startRow, nRows int32))
	if !ok {
		return nil, nil, fmt.Errorf("plugin %s: ForestRoot has unexpected signature", path)
	}

	return model.ForestFunc(forest), func() {}, nil
}
