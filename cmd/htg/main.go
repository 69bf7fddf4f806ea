// Command-line interface for building hypertree grids from string
// descriptors and inspecting stored grid files.

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/htg/format"
	"github.com/janelia-flyem/htg/htg"
	"github.com/janelia-flyem/htg/source"
)

const version = "0.1.0"

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")
)

const helpMessage = `
htg builds adaptively refined hypertree grids from string descriptors

Usage: htg [options] <command>

      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	help
	build <config.toml>
	info  <grid file>

The build config is a TOML file:

	[grid]
	dimension = 2            # number of refined axes: 1, 2, or 3
	branch_factor = 2        # children per refined axis
	grid_size = [2, 2, 1]    # root trees along x, y, z
	grid_scale = [1.0, 1.0, 1.0]
	max_level = 3
	descriptor = "R...|...."
	# descriptor_file = "grid.desc"     # alternative to inline descriptor
	# material_mask = "1...|0110"
	# material_mask_file = "grid.mask"
	# use_material_mask = true
	# parallel = true                   # decode trees concurrently

	[log]
	logfile = "/path/to/htg.log"
	max_log_size = 500       # MB
	max_log_age = 30         # days

	[output]
	path = "grid.htg"
	compression = "snappy"   # none, snappy, or zstd
`

var usage = func() {
	fmt.Printf(helpMessage)
}

type tomlConfig struct {
	Grid   gridConfig
	Log    htg.LogConfig
	Output outputConfig
}

type gridConfig struct {
	Dimension        int    `toml:"dimension"`
	BranchFactor     int    `toml:"branch_factor"`
	GridSize         [3]int     `toml:"grid_size"`
	GridScale        [3]float64 `toml:"grid_scale"`
	MaxLevel         int        `toml:"max_level"`
	Descriptor       string
	DescriptorFile   string `toml:"descriptor_file"`
	MaterialMask     string `toml:"material_mask"`
	MaterialMaskFile string `toml:"material_mask_file"`
	UseMaterialMask  bool   `toml:"use_material_mask"`
	Parallel         bool
}

type outputConfig struct {
	Path        string
	Compression string
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}

	if *runVerbose {
		htg.Verbose = true
		htg.SetLogMode(htg.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if err := DoCommand(flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// DoCommand serves as a switchboard for commands.
func DoCommand(args []string) error {
	switch args[0] {
	case "about":
		fmt.Printf("htg version %s\n", version)
	case "build":
		if len(args) < 2 {
			return fmt.Errorf("build command requires a TOML config file path")
		}
		return DoBuild(args[1])
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("info command requires a grid file path")
		}
		return DoInfo(args[1])
	default:
		return fmt.Errorf("unknown command: %q", args[0])
	}
	return nil
}

// DoBuild reads a build request from a TOML file, builds the grid, and
// optionally writes it out.
func DoBuild(configPath string) error {
	var c tomlConfig
	c.Grid.GridScale = [3]float64{1, 1, 1}
	if _, err := toml.DecodeFile(configPath, &c); err != nil {
		return fmt.Errorf("could not decode TOML config %q: %v", configPath, err)
	}
	c.Log.SetLogger()

	descriptor, err := loadString(c.Grid.Descriptor, c.Grid.DescriptorFile)
	if err != nil {
		return fmt.Errorf("descriptor: %v", err)
	}
	if descriptor == "" {
		return fmt.Errorf("config must supply a descriptor or descriptor_file")
	}
	mask, err := loadString(c.Grid.MaterialMask, c.Grid.MaterialMaskFile)
	if err != nil {
		return fmt.Errorf("material mask: %v", err)
	}

	s := source.New()
	if c.Grid.Dimension != 0 {
		s.SetDimension(c.Grid.Dimension)
	}
	if c.Grid.BranchFactor != 0 {
		s.SetBranchFactor(c.Grid.BranchFactor)
	}
	if c.Grid.GridSize != [3]int{} {
		s.SetGridSize(c.Grid.GridSize[0], c.Grid.GridSize[1], c.Grid.GridSize[2])
	}
	s.SetGridScale(c.Grid.GridScale[0], c.Grid.GridScale[1], c.Grid.GridScale[2])
	s.SetMaximumLevel(c.Grid.MaxLevel)
	s.SetDescriptor(descriptor)
	if mask != "" {
		s.SetMaterialMask(mask)
	}
	s.SetUseMaterialMask(c.Grid.UseMaterialMask)
	s.SetParallel(c.Grid.Parallel)

	grid, err := s.Build()
	if err != nil {
		return fmt.Errorf("build failed: %v", err)
	}

	fmt.Printf("Built %s\n", grid.Topology)
	fmt.Printf("  nodes:  %s\n", humanize.Comma(int64(grid.NumNodes())))
	fmt.Printf("  leaves: %s\n", humanize.Comma(int64(grid.NumLeaves())))
	if grid.MaskEnabled() {
		fmt.Printf("  blanked leaves: %s\n", humanize.Comma(int64(grid.Material.CountOn())))
	}
	fmt.Printf("  memory: %s\n", humanize.Bytes(grid.MemoryUsed()))

	if c.Output.Path != "" {
		compression, err := parseCompression(c.Output.Compression)
		if err != nil {
			return err
		}
		if err := format.WriteFile(c.Output.Path, grid, compression); err != nil {
			return fmt.Errorf("could not write grid to %q: %v", c.Output.Path, err)
		}
		fi, err := os.Stat(c.Output.Path)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%s, %s compression)\n", c.Output.Path,
			humanize.Bytes(uint64(fi.Size())), compression)
	}
	return nil
}

// DoInfo prints the header of a stored grid file without decoding its
// payload.
func DoInfo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := format.ReadHeader(f)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", path)
	fmt.Printf("  format version: %d\n", h.Version)
	fmt.Printf("  topology: %s\n", h.Topology)
	fmt.Printf("  trees:  %s\n", humanize.Comma(int64(h.NumTrees)))
	fmt.Printf("  leaves: %s\n", humanize.Comma(int64(h.NumLeaves)))
	fmt.Printf("  material mask: %v\n", h.MaskEnabled)
	return nil
}

// loadString resolves an inline value against a file-based alternative.
func loadString(inline, path string) (string, error) {
	if inline != "" && path != "" {
		return "", fmt.Errorf("supply either an inline value or a file, not both")
	}
	if path == "" {
		return inline, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func parseCompression(name string) (htg.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return htg.Snappy, nil
	case "none", "uncompressed":
		return htg.Uncompressed, nil
	case "zstd":
		return htg.Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q: use none, snappy, or zstd", name)
	}
}
