package main

import (
	"fmt"
	"os"

	"github.com/makew0rld/merkvault/config"
	"github.com/makew0rld/merkvault/merkle"
	"github.com/makew0rld/merkvault/store"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the --config file, or the defaults, and applies the global
// flag overrides.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	conf := config.Default()
	if path := ctx.String("config"); path != "" {
		var err error
		if conf, err = config.Load(path); err != nil {
			return conf, err
		}
	}
	if alg := ctx.String("algorithm"); alg != "" {
		conf.Hash = alg
	}
	return conf, conf.Validate()
}

// snapshot reads every file under dirPath and builds the tree for it. A
// progress bar is shown on stderr while hashing.
func snapshot(dirPath string, alg merkle.Algorithm) (merkle.Files, *merkle.Tree, error) {
	n, size, err := store.DirSize(dirPath)
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(os.Stderr, "Found %d files. Starting hashing...\n", n)
	bar := progressbar.DefaultBytes(size, "")
	files, err := store.LoadDir(dirPath, bar)
	if err != nil {
		return nil, nil, err
	}
	_ = bar.Finish()
	tree, err := merkle.Build(files, alg)
	if err != nil {
		return nil, nil, fmt.Errorf("building tree for %s: %w", dirPath, err)
	}
	return files, tree, nil
}
