package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ukaddresskit/ukaddresskit/internal/config"
	"github.com/ukaddresskit/ukaddresskit/internal/locality"
	"github.com/ukaddresskit/ukaddresskit/internal/models"
	"github.com/ukaddresskit/ukaddresskit/internal/parser"
	"github.com/ukaddresskit/ukaddresskit/internal/postcode"
	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
	"github.com/ukaddresskit/ukaddresskit/internal/tagger"
	"github.com/ukaddresskit/ukaddresskit/internal/tagger/libpostal"
)

func main() {
	config.LoadEnv()

	rootCmd := &cobra.Command{
		Use:   "ukaddresskit",
		Short: "UK address structuring toolkit",
		Long:  `Parses free-text UK addresses into structured fields and resolves postcodes and ambiguous place names.`,
	}

	rootCmd.AddCommand(createParseCmd())
	rootCmd.AddCommand(createTagCmd())
	rootCmd.AddCommand(createPostcodeCmd())
	rootCmd.AddCommand(createLocalityCmd())
	rootCmd.AddCommand(createModelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newParser builds the pipeline with the selected backend. An empty
// backend honours the UKADDRESS_TAGGER environment variable and falls
// back to the crf model chain.
func newParser(backend, model string) *parser.Parser {
	tables, err := refdata.Load()
	if err != nil {
		log.Fatalf("Failed to load reference tables: %v", err)
	}

	if backend == "" {
		backend = config.GetEnv("UKADDRESS_TAGGER", "crf")
	}
	var tg tagger.Tagger
	switch backend {
	case "crf":
		manager, err := models.NewManager()
		if err != nil {
			log.Fatalf("Failed to locate model cache: %v", err)
		}
		tg, err = manager.Open(model)
		if err != nil {
			log.Fatalf("Failed to open tagging model: %v", err)
		}
	case "libpostal":
		tg = libpostal.New()
	default:
		log.Fatalf("Unknown tagger backend %q", backend)
	}
	return parser.New(tables, tg)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Println(string(out))
}

// createParseCmd creates the parse subcommand
func createParseCmd() *cobra.Command {
	var model, backend string
	var probs, structured bool

	cmd := &cobra.Command{
		Use:   "parse [address]",
		Short: "Parse an address into labelled tokens",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p := newParser(backend, model)
			text := strings.Join(args, " ")

			switch {
			case structured:
				addr, err := p.Structured(text)
				if err != nil {
					log.Fatalf("Failed to parse address: %v", err)
				}
				printJSON(addr)
			case probs:
				result, err := p.ParseWithProbabilities(text)
				if err != nil {
					log.Fatalf("Failed to parse address: %v", err)
				}
				printJSON(result)
			default:
				pairs, err := p.Parse(text)
				if err != nil {
					log.Fatalf("Failed to parse address: %v", err)
				}
				printJSON(pairs)
			}
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "path to a tagging model file")
	cmd.Flags().StringVar(&backend, "backend", "", "tagger backend: crf or libpostal")
	cmd.Flags().BoolVar(&probs, "probs", false, "include marginal and sequence probabilities")
	cmd.Flags().BoolVar(&structured, "structured", false, "emit the reconciled structured address")
	return cmd
}

// createTagCmd creates the tag subcommand
func createTagCmd() *cobra.Command {
	var model, backend string

	cmd := &cobra.Command{
		Use:   "tag [address]",
		Short: "Tag an address into field name to value pairs",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p := newParser(backend, model)
			fields, err := p.Tag(strings.Join(args, " "))
			if err != nil {
				log.Fatalf("Failed to tag address: %v", err)
			}
			printJSON(fields)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "path to a tagging model file")
	cmd.Flags().StringVar(&backend, "backend", "", "tagger backend: crf or libpostal")
	return cmd
}

// createPostcodeCmd creates the postcode subcommand
func createPostcodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "postcode [code]",
		Short: "Normalize a postcode and look up its reference data",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			tables, err := refdata.Load()
			if err != nil {
				log.Fatalf("Failed to load reference tables: %v", err)
			}
			normalized, err := postcode.Normalize(args[0])
			if err != nil {
				log.Fatalf("Invalid postcode %q: %v", args[0], err)
			}
			outcode, err := postcode.ExtractOutcode(normalized)
			if err != nil {
				log.Fatalf("Invalid postcode %q: %v", args[0], err)
			}

			dir := postcode.NewDirectory(tables)
			out := map[string]interface{}{
				"postcode": normalized,
				"outcode":  outcode,
			}
			if town, err := dir.PostTown(normalized); err == nil {
				out["post_town"] = town
			}
			if county, err := dir.County(normalized); err == nil && county != "" {
				out["county"] = county
			}
			if loc, err := dir.Locality(normalized); err == nil {
				out["locality"] = loc
			}
			if streets, err := dir.Streets(normalized); err == nil {
				out["streets"] = streets
			}
			if mix, err := dir.PropertyMix(normalized); err == nil {
				out["property_mix"] = mix
			}
			printJSON(out)
		},
	}
}

// createLocalityCmd creates the locality subcommand
func createLocalityCmd() *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "locality [name]",
		Short: "Resolve a locality name to its town",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			tables, err := refdata.Load()
			if err != nil {
				log.Fatalf("Failed to load reference tables: %v", err)
			}
			index := locality.NewIndex(tables.LocalityTowns)
			towns, err := index.Resolve(strings.Join(args, " "), locality.Policy(policy))
			if err != nil {
				log.Fatalf("Failed to resolve locality: %v", err)
			}
			printJSON(towns)
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(locality.PolicyMostCommon),
		"ambiguity policy: error, most_common, first or all")
	return cmd
}

// createModelsCmd creates the models subcommand tree
func createModelsCmd() *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage tagging models",
	}

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List installed models",
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := models.NewManager()
			if err != nil {
				log.Fatalf("Failed to locate model cache: %v", err)
			}
			installed, err := manager.ListInstalled()
			if err != nil {
				log.Fatalf("Failed to list models: %v", err)
			}
			printJSON(installed)
		},
	})

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "resolve",
		Short: "Show which model would be used",
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := models.NewManager()
			if err != nil {
				log.Fatalf("Failed to locate model cache: %v", err)
			}
			ref, err := manager.Resolve("")
			if err != nil {
				log.Fatalf("Failed to resolve model: %v", err)
			}
			printJSON(ref)
		},
	})

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "set-default [name-or-path]",
		Short: "Point the default model at an installed model",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := models.NewManager()
			if err != nil {
				log.Fatalf("Failed to locate model cache: %v", err)
			}
			path, err := manager.SetDefault(args[0])
			if err != nil {
				log.Fatalf("Failed to set default model: %v", err)
			}
			fmt.Printf("Default model: %s\n", path)
		},
	})

	var sum string
	var makeDefault bool
	downloadCmd := &cobra.Command{
		Use:   "download [name] [url]",
		Short: "Download a model into the cache",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			manager, err := models.NewManager()
			if err != nil {
				log.Fatalf("Failed to locate model cache: %v", err)
			}
			path, err := manager.Download(context.Background(), args[0], args[1], sum, makeDefault)
			if err != nil {
				log.Fatalf("Failed to download model: %v", err)
			}
			fmt.Printf("Installed: %s\n", path)
		},
	}
	downloadCmd.Flags().StringVar(&sum, "sha256", "", "expected sha256 of the model file")
	downloadCmd.Flags().BoolVar(&makeDefault, "default", false, "make the downloaded model the default")
	modelsCmd.AddCommand(downloadCmd)

	return modelsCmd
}
