// Command joinopt reads a query dump, runs DPsize join-order enumeration
// over it, and prints the cheapest plan found. Styled after the
// teacher's cmd/service entrypoint: load config, wire up collaborators,
// run, fail loud on error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kasuganosora/joinopt/internal/bitset"
	"github.com/kasuganosora/joinopt/internal/cost"
	"github.com/kasuganosora/joinopt/internal/dpsize"
	"github.com/kasuganosora/joinopt/internal/dump"
	"github.com/kasuganosora/joinopt/internal/memocache"
	"github.com/kasuganosora/joinopt/internal/model"
	"github.com/kasuganosora/joinopt/internal/printer"
	"github.com/kasuganosora/joinopt/internal/telemetry"
	"github.com/kasuganosora/joinopt/pkg/config"
)

func main() {
	dumpPath := flag.String("dump", "", "path to a query dump file (required)")
	configPath := flag.String("config", "", "path to a JSON config file (optional, uses defaults if omitted)")
	flag.Parse()

	if *dumpPath == "" {
		log.Fatal("joinopt: -dump is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("joinopt: loading config: %v", err)
	}

	if err := run(context.Background(), cfg, *dumpPath); err != nil {
		log.Fatalf("joinopt: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, dumpPath string) error {
	f, err := os.Open(dumpPath)
	if err != nil {
		return fmt.Errorf("opening dump file: %w", err)
	}
	defer f.Close()

	graph, err := dump.Parse(f, os.Stderr)
	if err != nil {
		return fmt.Errorf("parsing dump: %w", err)
	}

	if graph.NumRelations() > cfg.Optimizer.MaxRelations {
		return fmt.Errorf("query graph has %d relations, exceeds configured max_relations %d",
			graph.NumRelations(), cfg.Optimizer.MaxRelations)
	}

	var adapter cost.Adapter
	switch cfg.Optimizer.Adapter {
	case "learned":
		forestFn, closeForest, err := loadForest(cfg.Optimizer.ForestLibraryPath)
		if err != nil {
			return fmt.Errorf("loading forest model: %w", err)
		}
		defer closeForest()
		m := model.New(forestFn)
		m.Resize(graph.NumRelations() * 2)
		adapter = cost.LearnedModel{Model: m}
	default:
		adapter = cost.Cout{}
	}

	var cache *memocache.Cache
	if cfg.Cache.Enabled {
		cache, err = memocache.Open(memocache.Config{
			DataDir:    cfg.Cache.DataDir,
			InMemory:   cfg.Cache.InMemory,
			SyncWrites: cfg.Cache.SyncWrites,
		})
		if err != nil {
			return fmt.Errorf("opening memo cache: %w", err)
		}
		defer cache.Close()

		for mask, card := range graph.Cardinalities {
			if err := cache.PutCardinality(mask, card); err != nil {
				return fmt.Errorf("seeding memo cache: %w", err)
			}
		}
	}

	driver := dpsize.New(graph, adapter)
	defer driver.Arena().Release()

	if cache != nil {
		driver.CardinalityFallback = func(subset bitset.Set) (float64, bool) {
			value, ok, err := cache.Cardinality(subset)
			if err != nil {
				log.Printf("joinopt: memo cache lookup for subset %#x failed: %v", subset, err)
				return 0, false
			}
			return value, ok
		}
	}

	plan, err := driver.Run()
	if err != nil {
		return fmt.Errorf("running DPsize: %w", err)
	}
	if plan == nil {
		fmt.Println("no plan found: query graph is disconnected or empty")
		return nil
	}

	fmt.Println(printer.PrintGraph(plan, graph))
	fmt.Printf("cost=%v cardinality=%v\n", plan.Cost, plan.Cardinality)

	if cache != nil {
		sig := plan.Signature()
		if prevSig, ok, err := cache.Signature(plan.Subset); err != nil {
			return fmt.Errorf("checking previous plan signature: %w", err)
		} else if ok && prevSig != sig {
			fmt.Println("plan changed since the previous cached run")
		}
		if err := cache.PutSignature(plan.Subset, sig); err != nil {
			return fmt.Errorf("recording plan signature: %w", err)
		}
	}

	if cfg.Telemetry.Enabled {
		store, err := telemetry.Open(cfg.Telemetry.DBPath)
		if err != nil {
			return fmt.Errorf("opening telemetry store: %w", err)
		}
		defer store.Close()

		if _, err := store.RecordRun(telemetry.RunRecord{
			RelationCount: graph.NumRelations(),
			AdapterName:   cfg.Optimizer.Adapter,
			BestPlanCost:  plan.Cost,
			BestPlanSig:   plan.Signature(),
		}); err != nil {
			return fmt.Errorf("recording telemetry: %w", err)
		}
	}

	_ = ctx
	return nil
}
