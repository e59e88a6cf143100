// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fanjia1024/presales-agent/config"
	"github.com/fanjia1024/presales-agent/internal/log"
	"github.com/fanjia1024/presales-agent/internal/utils"
	"github.com/fanjia1024/presales-agent/llm"
	"github.com/fanjia1024/presales-agent/prompt"
	"github.com/fanjia1024/presales-agent/server"
	"github.com/fanjia1024/presales-agent/store"
	"github.com/fanjia1024/presales-agent/version"
	"github.com/fanjia1024/presales-agent/workflow"
	"github.com/fanjia1024/presales-agent/workflow/stages"
)

const Usage = `presales-agent <Action> [Flags]
Action:
   serve        run the HTTP API (/api/agent/run and /api/agent/stream)
   run          run the estimation workflow over a requirement text file and print the result as JSON
   init-db      create or migrate the SQLite database
   version      print the version of presales-agent
`

func main() {
	flags := flag.NewFlagSet("presales-agent", flag.ExitOnError)

	flagHelp := flags.Bool("h", false, "Show help message.")
	flagVerbose := flags.Bool("verbose", false, "Verbose mode.")
	flagConfig := flags.String("config", "", "Config file path (YAML).")
	flagDB := flags.String("db", "", "SQLite database path, overrides the config file.")
	flagAddr := flags.String("addr", "", "Listen address for serve, overrides the config file.")
	flagIndustry := flags.String("industry", "", "Industry for prompt template selection, overrides the config file.")
	flagTemplates := flags.String("templates", "", "Prompt template directory, overrides the config file.")

	flags.Usage = func() {
		fmt.Fprint(os.Stderr, Usage)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flags.PrintDefaults()
	}

	if len(os.Args) < 2 {
		flags.Usage()
		os.Exit(1)
	}
	action := strings.ToLower(os.Args[1])

	switch action {
	case "version":
		fmt.Fprintf(os.Stdout, "%s\n", version.Version)

	case "serve":
		parseFlags(flags, os.Args[2:], flagHelp, flagVerbose)
		cfg := loadConfig(flagConfig, flagDB, flagAddr, flagIndustry, flagTemplates)

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			log.Error("Failed to open database %s: %v\n", cfg.Store.Path, err)
			os.Exit(1)
		}
		defer st.Close()
		if err := st.Migrate(context.Background()); err != nil {
			log.Error("Failed to migrate database: %v\n", err)
			os.Exit(1)
		}

		wf := buildWorkflow(cfg, templateSource(cfg, st))
		svr := server.New(st, wf, cfg.Server.Addr)
		if err := svr.ListenAndServe(); err != nil {
			log.Error("Server exited: %v\n", err)
			os.Exit(1)
		}

	case "run":
		path := splitPathArg(flags, flagHelp, flagVerbose)
		if path == "" {
			log.Error("Argument Path is required\n")
			os.Exit(1)
		}
		cfg := loadConfig(flagConfig, flagDB, flagAddr, flagIndustry, flagTemplates)

		var raw []byte
		var err error
		if path == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(path)
		}
		if err != nil {
			log.Error("Failed to read requirement: %v\n", err)
			os.Exit(1)
		}

		var tpls prompt.Source
		if cfg.Templates.Dir != "" {
			tpls = prompt.NewDirSource(cfg.Templates.Dir)
		}
		wf := buildWorkflow(cfg, tpls)

		res := wf.Run(context.Background(), workflow.NewState("local", "local", string(raw)))
		out, err := utils.MarshalJSONBytes(res)
		if err != nil {
			log.Error("Failed to encode result: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "%s\n", out)
		if !res.Success {
			os.Exit(1)
		}

	case "init-db":
		// Optional trailing path: a requirement file to seed a first
		// project/requirement pair for trying out the API.
		seedPath := splitPathArg(flags, flagHelp, flagVerbose)
		cfg := loadConfig(flagConfig, flagDB, flagAddr, flagIndustry, flagTemplates)

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			log.Error("Failed to open database %s: %v\n", cfg.Store.Path, err)
			os.Exit(1)
		}
		defer st.Close()
		ctx := context.Background()
		if err := st.Migrate(ctx); err != nil {
			log.Error("Failed to migrate database: %v\n", err)
			os.Exit(1)
		}
		log.Info("database %s ready\n", cfg.Store.Path)

		if seedPath != "" {
			raw, err := os.ReadFile(seedPath)
			if err != nil {
				log.Error("Failed to read requirement file: %v\n", err)
				os.Exit(1)
			}
			p, err := st.CreateProject(ctx, strings.TrimSuffix(filepath.Base(seedPath), filepath.Ext(seedPath)), cfg.Industry)
			if err != nil {
				log.Error("Failed to create project: %v\n", err)
				os.Exit(1)
			}
			r, err := st.CreateRequirement(ctx, p.ID, string(raw))
			if err != nil {
				log.Error("Failed to create requirement: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "projectId: %s\nrequirementId: %s\n", p.ID, r.ID)
		}

	default:
		flags.Usage()
		os.Exit(1)
	}
}

func parseFlags(flags *flag.FlagSet, args []string, flagHelp, flagVerbose *bool) {
	_ = flags.Parse(args)
	if *flagHelp {
		flags.Usage()
		os.Exit(0)
	}
	if *flagVerbose {
		log.SetLogLevel(log.DebugLevel)
	}
}

// splitPathArg handles `presales-agent run [flags] <path>`: the trailing
// non-flag argument is the path ("-" for stdin), everything before it goes
// to the flag set.
func splitPathArg(flags *flag.FlagSet, flagHelp, flagVerbose *bool) string {
	args := os.Args[2:]
	path := ""
	if len(args) > 0 {
		last := args[len(args)-1]
		if last == "-" || !strings.HasPrefix(last, "-") {
			path = last
			args = args[:len(args)-1]
		}
	}
	parseFlags(flags, args, flagHelp, flagVerbose)
	return path
}

func loadConfig(flagConfig, flagDB, flagAddr, flagIndustry, flagTemplates *string) *config.Config {
	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Error("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *flagDB != "" {
		cfg.Store.Path = *flagDB
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagIndustry != "" {
		cfg.Industry = *flagIndustry
	}
	if *flagTemplates != "" {
		cfg.Templates.Dir = *flagTemplates
	}
	return cfg
}

// templateSource prefers database templates and falls back to the template
// directory when one is configured.
func templateSource(cfg *config.Config, st *store.Store) prompt.Source {
	if cfg.Templates.Dir != "" {
		return prompt.Chain(st, prompt.NewDirSource(cfg.Templates.Dir))
	}
	return st
}

func buildWorkflow(cfg *config.Config, tpls prompt.Source) *workflow.Workflow {
	gen := llm.NewStructuredGenerator(llm.NewChatModel(cfg.Model), llm.StructuredGeneratorOptions{
		Retries: cfg.Model.Retries,
		Timeout: cfg.Model.Timeout,
	})
	return stages.NewWorkflow(stages.Options{
		Generator: gen,
		Templates: tpls,
		Industry:  cfg.Industry,
		Pricing:   cfg.Pricing,
	})
}
