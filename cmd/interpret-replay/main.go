// interpret-replay re-runs saved interpret fixtures through the deterministic
// pipeline, without any LLM calls, so behavior changes show up as diffs
// against the recorded decision triple.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/interpreter"
)

// Fixture is one recorded interpret turn plus, optionally, the output the
// pipeline produced when the fixture was captured.
type Fixture struct {
	Name        string                           `json:"name"`
	Mode        string                           `json:"mode"`
	Message     string                           `json:"message"`
	History     []interpreter.ConversationTurn   `json:"history,omitempty"`
	Catalog     []interpreter.VenueCatalogEntry  `json:"catalog,omitempty"`
	LockedDraft map[string]any                   `json:"locked_draft,omitempty"`
	AnchorDate  string                           `json:"anchor_date,omitempty"`
	Envelope    interpreter.ResponseEnvelope     `json:"llm_envelope"`
	Expected    *interpreter.Result              `json:"expected,omitempty"`
}

func main() {
	dir := flag.String("dir", "fixtures", "directory of *.json fixtures")
	verbose := flag.Bool("v", false, "print full results, not just mismatches")
	flag.Parse()

	paths, err := filepath.Glob(filepath.Join(*dir, "*.json"))
	if err != nil {
		log.Fatal(err)
	}
	if len(paths) == 0 {
		log.Fatalf("no fixtures found in %s", *dir)
	}
	sort.Strings(paths)

	pipeline := interpreter.NewPipeline()
	failures := 0
	for _, path := range paths {
		fx, err := loadFixture(path)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		req := interpreter.Request{
			Mode:        interpreter.Mode(fx.Mode),
			Envelope:    fx.Envelope,
			Message:     fx.Message,
			History:     fx.History,
			Catalog:     fx.Catalog,
			LockedDraft: fx.LockedDraft,
		}
		if interpreter.IsDateKey(fx.AnchorDate) {
			req.DateContext = &interpreter.DateKeyContext{AnchorDate: fx.AnchorDate}
		}
		result := pipeline.Run(req)

		name := fx.Name
		if name == "" {
			name = filepath.Base(path)
		}
		if fx.Expected != nil && !resultsMatch(*fx.Expected, result) {
			failures++
			fmt.Printf("FAIL %s\n", name)
			printResult("  expected", *fx.Expected)
			printResult("  actual  ", result)
			continue
		}
		if *verbose {
			fmt.Printf("ok   %s\n", name)
			printResult("  ", result)
		} else {
			fmt.Printf("ok   %s  next_action=%s blocking=%v\n", name, result.NextAction, result.BlockingFields)
		}
	}
	if failures > 0 {
		fmt.Printf("\n%d fixture(s) diverged\n", failures)
		os.Exit(1)
	}
}

func loadFixture(path string) (Fixture, error) {
	var fx Fixture
	blob, err := os.ReadFile(path)
	if err != nil {
		return fx, err
	}
	if err := json.Unmarshal(blob, &fx); err != nil {
		return fx, fmt.Errorf("parse fixture: %w", err)
	}
	return fx, nil
}

// resultsMatch compares the parts of a result that define pipeline behavior:
// the decision triple and the draft. Quality hints and run metadata are
// advisory and may evolve without breaking fixtures.
func resultsMatch(want, got interpreter.Result) bool {
	return want.NextAction == got.NextAction &&
		reflect.DeepEqual(want.BlockingFields, got.BlockingFields) &&
		reflect.DeepEqual(want.ClarificationQuestion, got.ClarificationQuestion) &&
		reflect.DeepEqual(want.DraftPayload, got.DraftPayload)
}

func printResult(prefix string, res interpreter.Result) {
	blob, _ := json.MarshalIndent(struct {
		NextAction            interpreter.NextAction `json:"next_action"`
		BlockingFields        []string               `json:"blocking_fields"`
		ClarificationQuestion *string                `json:"clarification_question"`
		Draft                 interpreter.Draft      `json:"draft_payload"`
	}{res.NextAction, res.BlockingFields, res.ClarificationQuestion, res.DraftPayload}, prefix, "  ")
	fmt.Printf("%s%s\n", prefix, blob)
}
