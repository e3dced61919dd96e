// sqtool is a CLI utility for decoding entries of unpacked mod packs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/Faultbox/sqpack-tools/internal/config"
	"github.com/Faultbox/sqpack-tools/internal/logger"
	"github.com/Faultbox/sqpack-tools/internal/modpack"
	"github.com/Faultbox/sqpack-tools/pkg/sqpack"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "stat", "info":
		cmdStat(args)
	case "extract", "x":
		cmdExtract(args)
	case "list", "ls":
		cmdList(args)
	case "search", "find":
		cmdSearch(args)
	case "unpack":
		cmdUnpack(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sqtool - mod pack entry decoder

Usage:
  sqtool <command> [options]

Commands:
  stat <file.mpd> <offset>             Show the entry header at offset
  extract <file.mpd> <offset> [output] Decode one entry to a file
  list <packdir> [pattern]             List mod entries (optional glob pattern)
  search <packdir> <pattern>           Search entries by path
  unpack <packdir> [outdir]            Decode every entry of a pack (-v lists files with xxhash)

Common options:
  -config <file>   Config file (default ./sqtool.yaml)
  -debug           Enable debug logging
  -out <dir>       Output directory for unpack
  -workers <n>     Parallel decoders for unpack
  -overwrite       Replace existing files

Examples:
  sqtool stat TTMPD.mpd 0x80
  sqtool extract TTMPD.mpd 0 top.mdl
  sqtool list ./mypack "*.tex"
  sqtool unpack ./mypack ./out`)
}

// setup parses args into a flag set carrying the config flags and
// initializes logging.
func setup(name string, args []string, register func(fs *flag.FlagSet)) (*flag.FlagSet, *config.Config) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	if register != nil {
		register(fs)
	}
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return fs, cfg
}

func fatal(format string, a ...any) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

// parseOffset accepts decimal or 0x-prefixed hex offsets.
func parseOffset(s string) (uint32, error) {
	digits, base := s, 10
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		digits, base = s[2:], 16
	}
	if strings.ContainsRune(digits, '_') {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return uint32(v), nil
}

func openArchive(path, offset string) (*sqpack.Archive, uint32) {
	off, err := parseOffset(offset)
	if err != nil {
		fatal("Error: %v", err)
	}
	archive, err := sqpack.OpenFile(path)
	if err != nil {
		fatal("Error: %v", err)
	}
	return archive, off
}

func cmdStat(args []string) {
	fs, _ := setup("stat", args, nil)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fatal("Usage: sqtool stat <file.mpd> <offset>")
	}

	archive, off := openArchive(fs.Arg(0), fs.Arg(1))
	defer archive.Close()

	hdr, err := archive.Stat(off)
	if err != nil {
		fatal("Error: %v", err)
	}

	fmt.Printf("Offset:        0x%08x\n", off)
	fmt.Printf("Kind:          %s\n", hdr.Kind)
	fmt.Printf("Header size:   %d\n", hdr.HeaderSize)
	fmt.Printf("Declared size: %d\n", hdr.DeclaredSize)

	switch hdr.Kind {
	case sqpack.KindStandard:
		fmt.Printf("Blocks:        %d\n", len(hdr.Standard))
		for i, b := range hdr.Standard {
			fmt.Printf("  %3d  offset 0x%06x  compressed %5d  uncompressed %5d\n",
				i, b.Offset, b.CompressedSize, b.UncompressedSize)
		}
	case sqpack.KindTexture:
		fmt.Printf("Levels:        %d\n", len(hdr.Texture))
		for i, l := range hdr.Texture {
			fmt.Printf("  %3d  offset 0x%06x  compressed %7d  decompressed %7d  blocks %d\n",
				i, l.CompressedOffset, l.CompressedSize, l.DecompressedSize, l.BlockCount)
		}
	case sqpack.KindModel:
		m := hdr.Model
		fmt.Printf("Version:       %d\n", m.Version)
		fmt.Printf("Blocks:        %d (%d used, %d strides)\n", m.BlockCount, m.UsedBlockCount, m.StrideCount())
		fmt.Printf("LODs:          %d\n", m.LODCount)
		fmt.Printf("Materials:     %d\n", m.MaterialCount)
		fmt.Printf("Stack:         %d blocks at 0x%x\n", m.BlockNum.Stack, m.Offset.Stack)
		fmt.Printf("Runtime:       %d blocks at 0x%x\n", m.BlockNum.Runtime, m.Offset.Runtime)
		for lod := 0; lod < sqpack.MaxLODs; lod++ {
			fmt.Printf("  lod %d  vertex %d@0x%x  edge %d@0x%x  index %d@0x%x\n", lod,
				m.BlockNum.Vertex[lod], m.Offset.Vertex[lod],
				m.BlockNum.Edge[lod], m.Offset.Edge[lod],
				m.BlockNum.Index[lod], m.Offset.Index[lod])
		}
	}
}

func cmdExtract(args []string) {
	fs, _ := setup("extract", args, nil)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fatal("Usage: sqtool extract <file.mpd> <offset> [output]")
	}

	archive, off := openArchive(fs.Arg(0), fs.Arg(1))
	defer archive.Close()

	output := fmt.Sprintf("entry_%08x.bin", off)
	if fs.NArg() > 2 {
		output = fs.Arg(2)
	}

	data, err := archive.ReadFile(off)
	if err != nil {
		fatal("Error decoding entry: %v", err)
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fatal("Error creating directory: %v", err)
		}
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		fatal("Error writing file: %v", err)
	}

	fmt.Printf("Extracted: %s (%d bytes, xxhash %016x)\n", output, len(data), xxhash.Sum64(data))
}

func openPack(dir string, cfg *config.Config) *modpack.Pack {
	p, err := modpack.Open(dir, cfg.Pack)
	if err != nil {
		fatal("Error: %v", err)
	}
	return p
}

func cmdList(args []string) {
	var limit *int
	fs, cfg := setup("list", args, func(fs *flag.FlagSet) {
		limit = fs.Int("n", 0, "Limit output to N entries (0 = all)")
	})
	defer logger.Sync()

	if fs.NArg() < 1 {
		fatal("Usage: sqtool list <packdir> [pattern]")
	}

	p := openPack(fs.Arg(0), cfg)
	defer p.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, e := range p.Entries() {
		path := modpack.NormalizePath(e.FullPath)
		if pattern != "" {
			matched, _ := filepath.Match(pattern, filepath.Base(path))
			if !matched && !strings.Contains(path, pattern) {
				continue
			}
		}
		fmt.Printf("0x%08x %9d  %s\n", e.ModOffset, e.ModSize, e.FullPath)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d entries matched)\n", count)
	}
}

func cmdSearch(args []string) {
	var limit *int
	fs, cfg := setup("search", args, func(fs *flag.FlagSet) {
		limit = fs.Int("n", 50, "Limit results (0 = all)")
	})
	defer logger.Sync()

	if fs.NArg() < 2 {
		fatal("Usage: sqtool search <packdir> <pattern>")
	}

	p := openPack(fs.Arg(0), cfg)
	defer p.Close()

	pattern := modpack.NormalizePath(fs.Arg(1))

	count := 0
	for _, e := range p.Entries() {
		if !strings.Contains(modpack.NormalizePath(e.FullPath), pattern) {
			continue
		}
		fmt.Println(e.FullPath)
		count++
		if *limit > 0 && count >= *limit {
			fmt.Fprintf(os.Stderr, "\n(showing first %d matches, use -n 0 for all)\n", *limit)
			break
		}
	}

	if count == 0 {
		fmt.Fprintln(os.Stderr, "No entries found")
	} else if *limit == 0 || count < *limit {
		fmt.Fprintf(os.Stderr, "\n(%d entries found)\n", count)
	}
}

func cmdUnpack(args []string) {
	var verbose *bool
	fs, cfg := setup("unpack", args, func(fs *flag.FlagSet) {
		verbose = fs.Bool("v", false, "Print every extracted file with its checksum")
	})
	defer logger.Sync()

	if fs.NArg() < 1 {
		fatal("Usage: sqtool unpack <packdir> [outdir]")
	}

	p := openPack(fs.Arg(0), cfg)
	defer p.Close()

	extractor := modpack.NewExtractor(cfg.Extract)
	if fs.NArg() > 1 {
		extractor.OutputDir = fs.Arg(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("unpacking",
		logger.Path(p.Dir),
	)

	summary, err := extractor.Extract(ctx, p)
	if err != nil && summary == nil {
		fatal("Error: %v", err)
	}

	for _, r := range summary.Results {
		switch {
		case r.Status == modpack.StatusFailed:
			fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", r.Entry.FullPath, r.Err)
		case *verbose && r.Status == modpack.StatusExtracted:
			if extractor.Checksums {
				fmt.Printf("%016x %9d  %s\n", r.Checksum, r.Size, r.Output)
			} else {
				fmt.Printf("%9d  %s\n", r.Size, r.Output)
			}
		}
	}
	fmt.Fprintf(os.Stderr, "\nExtracted %d, skipped %d, failed %d (to %s)\n",
		summary.Extracted, summary.Skipped, summary.Failed, extractor.OutputDir)

	if err != nil || summary.Failed > 0 {
		fatal("unpack incomplete")
	}
}
