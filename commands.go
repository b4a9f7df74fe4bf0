package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/makew0rld/merkvault/config"
	"github.com/makew0rld/merkvault/merkle"
	"github.com/makew0rld/merkvault/rpc"
	"github.com/makew0rld/merkvault/store"
	"github.com/urfave/cli/v2"
)

func initConfig(ctx *cli.Context) error {
	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	path := ctx.String("output")
	if err := conf.Save(path); err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", path)
	return nil
}

func root(ctx *cli.Context) error {
	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	_, tree, err := snapshot(ctx.Args().First(), conf.Algorithm())
	if err != nil {
		return err
	}
	if out := ctx.String("output"); len(out) > 0 {
		if err := store.WriteRoot(out, tree.Root()); err != nil {
			return err
		}
	}
	if ctx.Bool("hex") {
		fmt.Println(tree.Root())
	} else {
		os.Stdout.Write(tree.Root())
	}
	return nil
}

func proof(ctx *cli.Context) error {
	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	files, tree, err := snapshot(ctx.String("dir"), conf.Algorithm())
	if err != nil {
		return err
	}
	name := filepath.ToSlash(ctx.String("file"))
	p, err := tree.Proof(name, files)
	if errors.Is(err, merkle.ErrNotFound) {
		return fmt.Errorf("file with that name not found in Merkle tree")
	}
	if err != nil {
		return fmt.Errorf("error calculating proof: %w", err)
	}
	pf := &proofFile{
		Name:      name,
		Algorithm: tree.Algorithm(),
		Root:      tree.Root(),
		TreeSize:  tree.Leaves(),
		Proof:     p,
	}
	if out := ctx.String("output"); len(out) > 0 {
		return writeProof(pf, out)
	}
	printProof(pf)
	return nil
}

// printProof is the text version of a proof.
func printProof(pf *proofFile) {
	fmt.Printf("File: %s\n", pf.Name)
	fmt.Printf("Hash algorithm: %s\n", pf.Algorithm)
	fmt.Printf("Tree size: %d files\n", pf.TreeSize)
	fmt.Printf("Tree root hash: %s\n", pf.Root)
	fmt.Printf("Proof length: %d hashes\n", len(pf.Proof))
	fmt.Println("Steps, starting from the file's own level:")
	for i, step := range pf.Proof {
		if i == 0 {
			fmt.Printf("  %2d  start  %s\n", i, step.Digest)
			continue
		}
		fmt.Printf("  %2d  %-5s  %s\n", i, step.Side, step.Digest)
	}
}

func expectedRoot(ctx *cli.Context) (merkle.Digest, error) {
	switch {
	case len(ctx.String("root")) > 0:
		return store.ReadRoot(ctx.String("root"))
	case len(ctx.String("root-hex")) > 0:
		r, err := hex.DecodeString(ctx.String("root-hex"))
		if err != nil {
			return nil, fmt.Errorf("failed to decode given hexadecimal hash: %w", err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("one of --root or --root-hex is required")
}

func verify(ctx *cli.Context) error {
	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	pf, err := readProof(ctx.String("proof"))
	if err != nil {
		return fmt.Errorf("error reading or decoding file: %w", err)
	}
	content, err := os.ReadFile(ctx.String("file"))
	if err != nil {
		return err
	}
	expected, err := expectedRoot(ctx)
	if err != nil {
		return err
	}
	if pf.Algorithm.String() != conf.Algorithm().String() {
		fmt.Printf("Warning: proof was made with %s, checking with %s\n", pf.Algorithm, conf.Algorithm())
	}
	if merkle.Verify(pf.Proof, expected, content, conf.Algorithm()) {
		fmt.Println("OK: proof and file match given root hash")
		return nil
	}
	return cli.Exit("NOT OK: proof and file don't match given root hash", 2)
}

func info(ctx *cli.Context) error {
	pf, err := readProof(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("error reading or decoding file: %w", err)
	}
	printProof(pf)
	return nil
}

func dot(ctx *cli.Context) error {
	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	_, tree, err := snapshot(ctx.Args().First(), conf.Algorithm())
	if err != nil {
		return err
	}
	if err := tree.RootNode().DotGraph(os.Stdout); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func serve(ctx *cli.Context) error {
	conf, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet("path") {
		conf.Server.Path = ctx.String("path")
	}
	if ctx.IsSet("port") {
		conf.Server.Port = uint16(ctx.Uint("port"))
	}
	logger, err := conf.Logger()
	if err != nil {
		return err
	}
	dir, err := store.OpenDir(conf.Server.Path)
	if err != nil {
		return err
	}

	sctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("Welcome to merkvault server")
	return rpc.NewServer(dir, conf.Algorithm(), conf.Server, logger).ListenAndServe(sctx)
}

func clientConfig(ctx *cli.Context) (config.Config, error) {
	conf, err := loadConfig(ctx)
	if err != nil {
		return conf, err
	}
	if ctx.IsSet("files-path") {
		conf.Client.FilesPath = ctx.String("files-path")
	}
	if ctx.IsSet("merkle-path") {
		conf.Client.MerklePath = ctx.String("merkle-path")
	}
	if ctx.IsSet("url") {
		conf.Client.URL = ctx.String("url")
	}
	return conf, nil
}

func upload(ctx *cli.Context) error {
	conf, err := clientConfig(ctx)
	if err != nil {
		return err
	}
	logger, err := conf.Logger()
	if err != nil {
		return err
	}
	files, tree, err := snapshot(conf.Client.FilesPath, conf.Algorithm())
	if err != nil {
		return err
	}
	names := files.Names()
	for _, name := range names {
		if !store.ValidName(name) {
			// The server stores files flat
			return fmt.Errorf("%w: %s (subdirectories can't be uploaded)", store.ErrInvalidName, name)
		}
	}
	if err := store.WriteRoot(conf.Client.MerklePath, tree.Root()); err != nil {
		return err
	}
	logger.Infof("Root hash %s stored in %s", tree.Root(), conf.Client.MerklePath)

	c := rpc.NewClient(conf.Client.URL, conf.Client.Retries)
	for _, name := range names {
		if err := c.Upload(ctx.Context, name, files[name]); err != nil {
			return fmt.Errorf("uploading %s: %w", name, err)
		}
		logger.Infof("Uploaded %s", name)
	}
	return nil
}

func download(ctx *cli.Context) error {
	conf, err := clientConfig(ctx)
	if err != nil {
		return err
	}
	logger, err := conf.Logger()
	if err != nil {
		return err
	}
	name := ctx.Args().First()
	if !store.ValidName(name) {
		return fmt.Errorf("%w: %s", store.ErrInvalidName, name)
	}
	expected, err := store.ReadRoot(conf.Client.MerklePath)
	if err != nil {
		return fmt.Errorf("reading root hash: %w", err)
	}

	c := rpc.NewClient(conf.Client.URL, conf.Client.Retries)
	resp, err := c.Download(ctx.Context, name, expected, conf.Algorithm())
	if errors.Is(err, rpc.ErrProofRejected) {
		return cli.Exit(fmt.Sprintf("NOT OK: %s does not match the stored root hash", name), 2)
	}
	if err != nil {
		return err
	}
	logger.Infof("Proof for %s verified (%d hashes)", name, len(resp.MerkleProof))

	if err := os.MkdirAll(conf.Client.FilesPath, 0755); err != nil {
		return err
	}
	path := filepath.Join(conf.Client.FilesPath, name)
	if err := os.WriteFile(path, resp.Content, 0644); err != nil {
		return err
	}
	fmt.Printf("OK: %s verified and written to %s\n", name, path)
	return nil
}
