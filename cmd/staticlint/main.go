// The staticlint command bundles the static analyzers used on this
// project into a single multichecker binary: a selection of standard
// passes from the Go toolchain, third-party analyzers, staticcheck, and
// the project-specific noexit analyzer.
//
// An optional config.json placed next to the binary narrows the set of
// enabled staticcheck analyzers; without it the whole SA class runs.
package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/shortling/cmd/staticlint/noexit"
)

const configFileName = `config.json`

type configData struct {
	Staticcheck []string
}

func loadStaticcheckFilter() map[string]bool {
	appfile, err := os.Executable()
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), configFileName))
	if err != nil {
		return nil
	}
	var cfg configData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil
	}

	filter := make(map[string]bool, len(cfg.Staticcheck))
	for _, name := range cfg.Staticcheck {
		filter[name] = true
	}

	return filter
}

func main() {
	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		noexit.Analyzer,
	}

	filter := loadStaticcheckFilter()
	for _, v := range staticcheck.Analyzers {
		if filter == nil && strings.HasPrefix(v.Analyzer.Name, "SA") {
			checks = append(checks, v.Analyzer)
			continue
		}
		if filter[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}

	multichecker.Main(checks...)
}
