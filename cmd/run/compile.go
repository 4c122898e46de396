package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/component-runtime/compiler"
	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/parser"
)

// manifest describes a compiled module without its source.
type manifest struct {
	ComponentID string                `json:"componentId" yaml:"componentId"`
	Path        component.Path        `json:"path" yaml:"path"`
	Trust       string                `json:"trust" yaml:"trust"`
	Functions   []string              `json:"functions" yaml:"functions"`
	Inlined     []component.Path      `json:"inlined" yaml:"inlined"`
	Imports     []parser.ModuleImport `json:"imports,omitempty" yaml:"imports,omitempty"`
	Children    []compiler.ChildRef   `json:"children,omitempty" yaml:"children,omitempty"`
	Errors      []string              `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func newManifest(res *compiler.Result, trust component.TrustMode) manifest {
	m := manifest{
		ComponentID: res.ComponentID,
		Path:        res.Path,
		Trust:       trust.String(),
		Functions:   res.Module.Names(),
		Inlined:     res.Module.Paths(),
		Imports:     res.Imports,
		Children:    res.Children,
	}
	if res.Errors != nil {
		for _, f := range res.Errors.Failures {
			m.Errors = append(m.Errors, f.Cause.Error())
		}
	}
	return m
}

func newCompileCmd() *cobra.Command {
	var (
		trustFlag  string
		outputFlag string
	)
	cmd := &cobra.Command{
		Use:   "compile <author/Name>",
		Short: "Compile a component and print its module",
		Long: `Compile a component and print the emitted module (-o text), its manifest
(-o json, -o yaml) or the compiler service response (-o service).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trust, err := component.ParseTrustMode(trustFlag)
			if err != nil {
				return err
			}
			return runCompile(cmd, args[0], trust, outputFlag)
		},
	}
	cmd.Flags().StringVar(&trustFlag, "trust", "", "Root trust mode: sandboxed, trusted, trusted-author")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "text", "Output format: text, json, yaml, service")
	return cmd
}

func runCompile(cmd *cobra.Command, id string, trust component.TrustMode, output string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c := newCompiler(cfg)
	out := cmd.OutOrStdout()

	if output == "service" {
		svc := compiler.NewService(c)
		svc.Handle(ctx, compiler.ServiceRequest{
			Action:          compiler.ActionInit,
			RendererVersion: cfg.Compiler.RendererVersion,
		})
		resp := svc.Handle(ctx, compiler.ServiceRequest{
			Action:      compiler.ActionExecute,
			ComponentID: id,
			Trust:       trust,
		})
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		if resp.Error != "" {
			return fmt.Errorf("compile %s failed", id)
		}
		return nil
	}

	res, err := c.Compile(ctx, compiler.Request{ComponentID: id, Trust: trust})
	if err != nil {
		return err
	}

	switch output {
	case "text":
		fmt.Fprint(out, res.Source)
	case "json":
		data, err := json.MarshalIndent(newManifest(res, trust), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := yaml.Marshal(newManifest(res, trust))
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}
