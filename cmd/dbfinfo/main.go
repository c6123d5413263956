package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/kmzgen/internal/geo"
	"github.com/woozymasta/kmzgen/internal/shapefile"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Output   string `short:"o" long:"out"      description:"Output file path. Writes to stdout if empty"`
	Format   string `short:"f" long:"format"   description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Encoding string `short:"e" long:"encoding" description:"Encoding used when the dataset has no .cpg file" default:"windows-1252"`

	Args struct {
		Dataset string `positional-arg-name:"dataset" description:"Path to the .shp file (extension optional)" required:"true"`
	} `positional-args:"yes"`
}

// Info summarizes a dataset.
type Info struct {
	Name       string            `json:"name" yaml:"name"`
	Encoding   string            `json:"encoding" yaml:"encoding"`
	Projection string            `json:"projection" yaml:"projection"`
	Fields     []shapefile.Field `json:"fields" yaml:"fields"`
	Records    int               `json:"records" yaml:"records"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	path := opts.Args.Dataset
	if strings.EqualFold(filepath.Ext(path), shapefile.ExtSHP) {
		path = path[:len(path)-len(shapefile.ExtSHP)]
	}
	ds := shapefile.Dataset{Dir: filepath.Dir(path), Name: filepath.Base(path)}

	info, err := inspect(ds, opts.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading dataset: %v\n", err)
		os.Exit(1)
	}

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(info)
	} else {
		outputData, err = json.MarshalIndent(info, "", "  ")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d fields of %s to %s (format: %s)\n", len(info.Fields), info.Name, opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

func inspect(ds shapefile.Dataset, fallback string) (*Info, error) {
	encoding, ok, err := shapefile.ReadEncoding(ds)
	if err != nil {
		return nil, err
	}
	if !ok || encoding == "" {
		encoding = fallback
	}

	prj, hasPRJ, err := shapefile.ReadProjection(ds)
	if err != nil {
		return nil, err
	}
	proj, err := geo.NewResolver(false).Resolve(prj, hasPRJ)
	if err != nil {
		return nil, err
	}
	projection := proj.Name
	if proj.Unrecognized {
		projection = "unrecognized"
	}

	r, err := shapefile.Open(ds, shapefile.Options{Encoding: encoding})
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return &Info{
		Name:       ds.Name,
		Encoding:   encoding,
		Projection: projection,
		Fields:     r.Fields(),
		Records:    r.Len(),
	}, nil
}
