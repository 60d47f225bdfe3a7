// Command treefuse is the driver CLI of spec.md §6: it takes a Go module
// root, a list of source files, and a fusion heuristic name, and rewrites
// each source file's fusable traversal call sites in place.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pborman/getopt/v2"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"

	"github.com/viant/treefuse/internal/config"
	"github.com/viant/treefuse/internal/driver"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Getopt setup, mirroring its-hmny-Choreia/cmd/main.go's package-level
	// flag registration and parse.
	maxMergedNodes := getopt.IntLong("max-merged-f", 0, 0, "maximum nodes per merge group (default 5)")
	maxMergedInstances := getopt.IntLong("max-merged-n", 0, 0, "maximum per-callee instances per merge group (default 5)")
	configPath := getopt.StringLong("config", 0, "", "path to an optional treefuse.yaml config file")
	logLevel := getopt.StringLong("log-level", 0, "", "log level: debug, info, warn, error")
	dryRun := getopt.BoolLong("dry-run", 0, "print the plan, write nothing")
	showUsage := getopt.BoolLong("help", 'h', "display this help message")
	getopt.Parse()

	if *showUsage {
		getopt.Usage()
		return 0
	}

	positional := getopt.Args()
	if len(positional) < 2 {
		fmt.Fprintln(os.Stderr, "usage: treefuse [flags] <module-root> <source-file>... [greedy|solely-parallel]")
		getopt.Usage()
		return 2
	}

	heuristic := string(config.Greedy)
	sources := positional[1:]
	if last := sources[len(sources)-1]; last == string(config.Greedy) || last == string(config.SolelyParallel) {
		heuristic = last
		sources = sources[:len(sources)-1]
	}
	moduleRoot := positional[0]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg.ApplyFlags(*maxMergedNodes, *maxMergedInstances, heuristic, *logLevel)

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, lerr := logrus.ParseLevel(cfg.LogLevel); lerr == nil {
		log.SetLevel(lvl)
	}
	entry := logrus.NewEntry(log)

	fs := afs.New()
	ctx := context.Background()

	if _, err := driver.ResolveModulePath(ctx, fs, moduleRoot); err != nil {
		entry.WithError(err).Error("failed to resolve module path")
		return 1
	}

	d := driver.New(fs, cfg, entry)
	d.DryRun = *dryRun

	results, err := d.Run(ctx, sources)
	if err != nil {
		entry.WithError(err).Error("run aborted")
		return 1
	}

	for _, r := range results {
		entry.WithFields(logrus.Fields{
			"path":       r.Path,
			"candidates": r.Candidates,
			"fused":      r.Fused,
			"skipped":    r.Skipped,
		}).Info("processed")
	}
	return 0
}
