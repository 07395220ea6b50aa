package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/broady/routegen"
	"github.com/broady/routegen/gen"
)

type CLI struct {
	Version VersionCmd `cmd:"" help:"Print version information."`
	Print   PrintCmd   `cmd:"" help:"Print the flattened endpoint table for a schema file."`
	Check   CheckCmd   `cmd:"" help:"Validate a schema file without generating anything."`
	Gen     GenCmd     `cmd:"" help:"Generate a typed Go client from a schema file."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

type PrintCmd struct {
	Schema string `arg:"" help:"Path to the JSON schema file."`
}

func (c *PrintCmd) Run() error {
	defs, err := loadAndFlatten(c.Schema)
	if err != nil {
		return err
	}
	for _, def := range defs {
		params := routegen.RequiredParams(def.PathTemplate)
		fmt.Printf("%-24s %-7s %s", def.ID, def.Method, def.PathTemplate)
		if len(params) > 0 {
			fmt.Printf("  params=%v", params)
		}
		fmt.Println()
	}
	return nil
}

type CheckCmd struct {
	Schema string `arg:"" help:"Path to the JSON schema file."`
}

func (c *CheckCmd) Run() error {
	defs, err := loadAndFlatten(c.Schema)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d endpoints\n", len(defs))
	return nil
}

type GenCmd struct {
	Schema  string `arg:"" help:"Path to the JSON schema file."`
	Out     string `help:"Output file. Defaults to stdout." short:"o"`
	Package string `help:"Package name for the generated file." default:"apiclient"`
	Type    string `help:"Name of the generated wrapper type." default:"Client"`
}

func (c *GenCmd) Run() error {
	schema, err := loadSchema(c.Schema)
	if err != nil {
		return err
	}
	src, err := gen.Generate(schema, gen.Config{Package: c.Package, TypeName: c.Type})
	if err != nil {
		return err
	}
	if c.Out == "" {
		_, err = os.Stdout.Write(src)
		return err
	}
	return os.WriteFile(c.Out, src, 0o644)
}

func loadSchema(path string) (*routegen.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return routegen.LoadJSON(f)
}

func loadAndFlatten(path string) ([]routegen.EndpointDefinition, error) {
	schema, err := loadSchema(path)
	if err != nil {
		return nil, err
	}
	return routegen.Flatten(schema)
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("routegen"),
		kong.Description("Schema compiler for generated REST clients."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "routegen:", err)
		os.Exit(1)
	}
}
