// stowpack - packages Lua applications into self-extracting luastow executables
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/chazu/luastow/chunk"
	"github.com/chazu/luastow/launcher"
	"github.com/chazu/luastow/manifest"
	"github.com/chazu/luastow/pack"
	"github.com/chazu/luastow/selfimage"
)

const stubName = "luastow"

func main() {
	launcher.ConfigureLogging()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stowpack <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  build    Package the application described by stow.toml\n")
		fmt.Fprintf(os.Stderr, "  encode   Encode a Lua file into a chunk (used by go generate)\n")
		fmt.Fprintf(os.Stderr, "  inspect  Show the application carried by an executable\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stowpack build                       # uses ./stow.toml\n")
		fmt.Fprintf(os.Stderr, "  stowpack build -stub ./luastow -o app\n")
		fmt.Fprintf(os.Stderr, "  stowpack encode -encoding keystream -o main.bin main.lua\n")
		fmt.Fprintf(os.Stderr, "  stowpack inspect ./app\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch args[0] {
	case "build":
		handleBuildCommand(args[1:])
	case "encode":
		handleEncodeCommand(args[1:])
	case "inspect":
		handleInspectCommand(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}

// handleBuildCommand processes the `stowpack build` subcommand.
func handleBuildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	dir := fs.String("C", ".", "Directory to search for stow.toml")
	stubFlag := fs.String("stub", "", "Launcher stub (overrides [stub] path)")
	outFlag := fs.String("o", "", "Output executable (overrides [app] output)")
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Parse(args)

	m, err := manifest.FindAndLoad(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "Error: no %s found\n", manifest.FileName)
		os.Exit(1)
	}

	enc, err := m.Encoding()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	script, err := os.ReadFile(m.ScriptPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading script: %v\n", err)
		os.Exit(1)
	}

	stub := *stubFlag
	if stub == "" {
		stub = m.StubPath()
	}
	if stub == "" {
		stub, err = findStub()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	output := *outFlag
	if output == "" {
		output = m.OutputPath()
	}

	if *verbose {
		fmt.Printf("Packing %s with %s (%s) into %s\n", m.ScriptPath(), stub, enc, output)
	}

	opts := pack.Options{
		Stub:     stub,
		Script:   script,
		Encoding: enc,
		Output:   output,
	}
	if err := pack.Build(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error building: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Built %s\n", output)
	}
}

// handleEncodeCommand processes the `stowpack encode` subcommand.
func handleEncodeCommand(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	encName := fs.String("encoding", chunk.RunningSum.String(), "Chunk encoding: running-sum or keystream")
	output := fs.String("o", "", "Output file")
	fs.Parse(args)

	if fs.NArg() != 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: stowpack encode [-encoding name] -o out.bin in.lua")
		os.Exit(2)
	}

	enc, err := chunk.ParseEncoding(*encName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := pack.Payload(src, enc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// handleInspectCommand processes the `stowpack inspect` subcommand.
func handleInspectCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: stowpack inspect <executable>")
		os.Exit(2)
	}

	info, err := pack.Inspect(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		os.Exit(1)
	}

	fmt.Printf("payload offset: %d\n", info.Offset)
	fmt.Printf("payload size:   %d\n", info.Trailer.PayloadSize)
	fmt.Printf("encoding:       %s\n", info.Encoding)
}

// findStub locates the launcher stub: next to this executable first, then on
// PATH.
func findStub() (string, error) {
	if self, err := selfimage.Default().Locate(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), stubName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if p, err := exec.LookPath(stubName); err == nil {
		return p, nil
	}

	return "", fmt.Errorf("launcher stub %q not found. Use -stub or set [stub] path in %s", stubName, manifest.FileName)
}
