package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/photostrip/photostrip"
	"github.com/photostrip/photostrip/metadata"
	"github.com/photostrip/photostrip/tags"
	"github.com/photostrip/photostrip/types"
)

var _ = fmt.Print

type dump struct {
	File   string            `json:"file"`
	MIME   string            `json:"mime"`
	Tags   tags.Tags         `json:"tags"`
	Record map[string]string `json:"record"`
	Kind   string            `json:"kind"`
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	if len(os.Args) == 1 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/exifdump input-file [output.json]")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		return
	}
	mime := photostrip.DetectMIME(os.Args[1], data)
	all, err := tags.Decode(data, tags.Options{Blocks: tags.AllBlocks})
	if err != nil {
		return
	}
	rec := metadata.NewExtractor().Extract(types.RawImage{Data: data, MIMEType: mime})
	b, err := json.MarshalIndent(dump{File: os.Args[1], MIME: mime, Tags: all, Record: rec.Map(), Kind: rec.Kind.String()}, "", "  ")
	if err != nil {
		return
	}
	if len(os.Args) == 2 {
		fmt.Println(string(b))
		return
	}
	if err = os.WriteFile(os.Args[2], b, 0o666); err != nil {
		return
	}
	fmt.Println("Metadata written to:", os.Args[2])
}
