package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/makew0rld/merkvault/merkle"
)

const (
	// Version written to disk. 0 version is reserved as an error.
	fileVersion = 0x1
)

var (
	fileMagicNumber = []byte("merkvault")
	fileHeader      = append(fileMagicNumber, fileVersion)
)

// proofFile is a proof as stored on disk. Root is the root the proof was
// generated against, kept for information only: verification always takes
// the expected root from the user.
type proofFile struct {
	Name      string
	Algorithm merkle.Algorithm
	Root      merkle.Digest
	TreeSize  int // number of files
	Proof     merkle.Proof
}

func writeProof(proof *proofFile, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeProof(proof, f)
}

func encodeProof(proof *proofFile, w io.Writer) error {
	// Write header
	if _, err := w.Write(fileHeader); err != nil {
		return err
	}
	// Write proof
	return cbor.NewEncoder(w).Encode(proof)
}

func readProof(path string) (*proofFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeProof(f)
}

func decodeProof(r io.Reader) (*proofFile, error) {
	// Confirm file type and version
	header := make([]byte, len(fileHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if !bytes.Equal(header, fileHeader) {
		return nil, fmt.Errorf("invalid file header")
	}
	// Get struct
	var proof proofFile
	if err := cbor.NewDecoder(r).Decode(&proof); err != nil {
		return nil, err
	}
	return &proof, nil
}
