package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-tiler/internal/server"
	"github.com/joeblew999/plat-tiler/internal/service"
)

// Options defines all CLI flags and env vars for the tiler server.
// Flags: --host, --port, --data-dir
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR
type Options struct {
	Host    string `doc:"Host to bind to" default:"0.0.0.0"`
	Port    int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir string `doc:"Directory for tile data files" default:".data"`
}

func newServer(opts *Options) *server.Server {
	return server.New(server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		DataDir: opts.DataDir,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		srv := newServer(opts)

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-tiler API server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Tiles:   %s/tiles/\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		})
	})

	cli.Root().Use = "tiler"
	cli.Root().Short = "GeoJSON to vector tile pipeline"
	cli.Root().Version = "0.1.0"

	// generate subcommand: run the pipeline without the server
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate tiles from a source file, or run a YAML batch config",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			svc := service.NewTilerService(opts.DataDir)

			configPath, _ := cmd.Flags().GetString("config")
			var jobs []service.GenerateOptions
			if configPath != "" {
				cfg, err := service.LoadBatchConfig(configPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				jobs = cfg.Jobs
			} else {
				job := service.GenerateOptions{}
				job.SourceFile, _ = cmd.Flags().GetString("input")
				job.OutputName, _ = cmd.Flags().GetString("output")
				job.LayerName, _ = cmd.Flags().GetString("layer")
				job.MinZoom, _ = cmd.Flags().GetInt("min-zoom")
				job.MaxZoom, _ = cmd.Flags().GetInt("max-zoom")
				job.PMTiles, _ = cmd.Flags().GetBool("pmtiles")
				if job.SourceFile == "" || job.OutputName == "" {
					fmt.Fprintln(os.Stderr, "Error: --input and --output are required (or use --config)")
					os.Exit(1)
				}
				jobs = []service.GenerateOptions{job}
			}

			for _, job := range jobs {
				fmt.Printf("Generating %s from %s...\n", job.OutputName, job.SourceFile)
				result, err := svc.Generate(context.Background(), job, func(progress int, status string) {
					fmt.Printf("  [%3d%%] %s\n", progress, status)
				})
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				fmt.Printf("  Wrote %d tiles to %s (z%d-z%d)\n",
					result.TileCount, result.Output, result.MinZoom, result.MaxZoom)
			}
		}),
	}
	generateCmd.Flags().StringP("input", "i", "", "Source file name in the sources directory")
	generateCmd.Flags().StringP("output", "o", "", "Output tile set name")
	generateCmd.Flags().StringP("layer", "l", "default", "Layer name in generated tiles")
	generateCmd.Flags().Int("min-zoom", 0, "Minimum zoom level")
	generateCmd.Flags().Int("max-zoom", 14, "Maximum zoom level")
	generateCmd.Flags().Bool("pmtiles", false, "Write a single PMTiles archive")
	generateCmd.Flags().StringP("config", "c", "", "YAML batch config with multiple jobs")
	cli.Root().AddCommand(generateCmd)

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Run()
}
