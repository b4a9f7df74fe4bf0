package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Set by goreleaser or just
var (
	version string
	commit  string
	date    string
	builtBy string
)

func noArgs(ctx *cli.Context) error {
	if ctx.Args().Len() != 0 {
		return fmt.Errorf("command requires no arguments")
	}
	return nil
}

func dirArg(ctx *cli.Context) error {
	// Validate path argument
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("only one argument allowed: dir path")
	}
	if fi, err := os.Stat(ctx.Args().First()); err == nil && fi.IsDir() {
		return nil
	}
	return fmt.Errorf("not a valid path to a directory")
}

func main() {
	app := &cli.App{
		Name:  "merkvault",
		Usage: "store files remotely and check them against a local merkle root",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file (defaults are used otherwise)",
			},
			&cli.StringFlag{
				Name:    "algorithm",
				Aliases: []string{"a"},
				Usage:   "hash algorithm: sha256 or blake3 (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "get version information",
				Action: func(ctx *cli.Context) error {
					fmt.Printf("%s\n%s\n%s\n%s\n", version, commit, date, builtBy)
					return nil
				},
			},
			{
				Name:   "init",
				Usage:  "write a config file with default values",
				Action: initConfig,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output config file",
						Value:   "merkvault.toml",
					},
				},
				Before: noArgs,
			},
			{
				Name:   "root",
				Usage:  "get the root hash of a directory",
				Action: root,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "hex",
						Usage: "get hash as hex",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "also store the raw root hash in this file",
					},
				},
				Before: dirArg,
			},
			{
				Name:   "proof",
				Usage:  "generate a proof for a file in a directory",
				Action: proof,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dir",
						Aliases:  []string{"d"},
						Usage:    "directory the tree is built from",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "file path relative to the directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output path for the proof (otherwise text version goes to stdout)",
					},
				},
				Before: noArgs,
			},
			{
				Name:   "verify",
				Usage:  "check a file against a proof and a root hash",
				Action: verify,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "proof",
						Aliases:  []string{"p"},
						Usage:    "proof file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "path to the file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "root",
						Usage: "file holding the raw root hash",
					},
					&cli.StringFlag{
						Name:  "root-hex",
						Usage: "hex root hash to compare to",
					},
				},
				Before: noArgs,
			},
			{
				Name:   "info",
				Usage:  "get information about a proof file",
				Action: info,
				Before: func(ctx *cli.Context) error {
					if ctx.Args().Len() != 1 {
						return fmt.Errorf("command requires one arg: the proof file")
					}
					return nil
				},
			},
			{
				Name:   "dot",
				Usage:  "print the tree of a directory as a graphviz DOT graph",
				Action: dot,
				Before: dirArg,
			},
			{
				Name:   "serve",
				Usage:  "run the file server",
				Action: serve,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "directory uploaded files are stored in",
					},
					&cli.UintFlag{
						Name:  "port",
						Usage: "port to listen to",
					},
				},
				Before: noArgs,
			},
			{
				Name:   "upload",
				Usage:  "store the root hash of a directory locally and upload its files",
				Action: upload,
				Flags:  clientFlags,
				Before: noArgs,
			},
			{
				Name:   "download",
				Usage:  "download a file and check it against the stored root hash",
				Action: download,
				Flags:  clientFlags,
				Before: func(ctx *cli.Context) error {
					if ctx.Args().Len() != 1 {
						return fmt.Errorf("command requires one arg: the file name")
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}

var clientFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "files-path",
		Usage: "directory of local files",
	},
	&cli.StringFlag{
		Name:  "merkle-path",
		Usage: "file the root hash is stored in",
	},
	&cli.StringFlag{
		Name:  "url",
		Usage: "server URL",
	},
}
