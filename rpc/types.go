package rpc

import "github.com/makew0rld/merkvault/merkle"

// UploadRequest carries a file to store. Content is standard base64.
type UploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type UploadResponse struct {
	Message string `json:"message"`
}

// FileResponse is a stored file with its proof against the server's current
// tree. Content is base64 on the wire.
type FileResponse struct {
	Filename    string       `json:"filename"`
	Content     []byte       `json:"content"`
	MerkleProof merkle.Proof `json:"merkle_proof"`
}

type RootResponse struct {
	Root      string `json:"root"` // hex
	Files     int    `json:"files"`
	Algorithm string `json:"algorithm"`
}

type errorResponse struct {
	Error string `json:"error"`
}
