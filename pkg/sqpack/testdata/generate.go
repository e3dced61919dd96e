//go:build ignore

// This program writes a small unpacked mod pack for manual testing.
// Run with: go run generate.go [dir]
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Faultbox/sqpack-tools/pkg/sqpack/sqpacktest"
)

type modEntry struct {
	Name      string
	Category  string
	FullPath  string
	DatFile   string
	ModOffset uint32
	ModSize   uint32
}

func main() {
	dir := "samplepack"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		panic(err)
	}

	var b sqpacktest.Builder
	var entries []modEntry

	add := func(path, category string, off uint32) {
		entries = append(entries, modEntry{
			Name:      filepath.Base(path),
			Category:  category,
			FullPath:  path,
			DatFile:   "040000",
			ModOffset: off,
			ModSize:   uint32(len(b.Bytes())) - off,
		})
	}

	// Standard entry: plain text split over two blocks
	text := []byte("Hello, SqPack!\n")
	off := b.AddStandard(sqpacktest.Deflate(bytes.Repeat(text, 40)), sqpacktest.Raw(text))
	add("common/font/hello.txt", "Common", off)

	// Texture entry: 80-byte header and two mip levels
	header := bytes.Repeat([]byte{0xA0}, 80)
	off = b.AddTexture(header,
		[]sqpacktest.Block{sqpacktest.Deflate(bytes.Repeat([]byte{0xFF, 0x00}, 512)), sqpacktest.Raw(make([]byte, 256))},
		[]sqpacktest.Block{sqpacktest.Deflate(bytes.Repeat([]byte{0x7F}, 256))},
	)
	add("chara/equipment/e0001/texture/v01_c0101e0001_top_d.tex", "Body", off)

	// Model entry: one level of geometry
	off = b.AddModel(sqpacktest.Model{
		Version:                0x01000005,
		VertexDeclarationCount: 2,
		MaterialCount:          1,
		LODCount:               1,
		Stack:                  []sqpacktest.Block{sqpacktest.Deflate(bytes.Repeat([]byte{1}, 136))},
		Runtime:                []sqpacktest.Block{sqpacktest.Raw(bytes.Repeat([]byte{2}, 64))},
		Vertex: [3][]sqpacktest.Block{
			{sqpacktest.Deflate(bytes.Repeat([]byte{3, 4}, 600))},
		},
		Index: [3][]sqpacktest.Block{
			{sqpacktest.Raw(bytes.Repeat([]byte{5}, 96))},
		},
	})
	add("chara/equipment/e0001/model/c0101e0001_top.mdl", "Body", off)

	if err := os.WriteFile(filepath.Join(dir, "TTMPD.mpd"), b.Bytes(), 0644); err != nil {
		panic(err)
	}

	var list bytes.Buffer
	enc := json.NewEncoder(&list)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			panic(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "TTMPL.mpl"), list.Bytes(), 0644); err != nil {
		panic(err)
	}

	println("Generated", dir, "with", len(entries), "entries")
}
