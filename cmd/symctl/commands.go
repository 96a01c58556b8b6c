package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/njchilds90/symbind"
	"github.com/njchilds90/symbind/internal/config"
)

type options struct {
	configPath string
	jsonOutput bool
	latex      bool

	handler *symbind.ToolHandler
}

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "symctl",
		Short: "Simplify, differentiate and inspect symbolic expressions",
		Long: `symctl runs the symbind tool surface from the command line.

Expressions are JSON trees, passed as the last argument or on stdin:

  {"kind":"apply","function":"sin","args":[{"kind":"variable","name":"x"}]}

Examples:
  symctl simplify '{"kind":"apply","function":"add","args":[...]}'
  symctl derive --var x --n 2 < expr.json
  symctl names si`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			logger, err := cfg.Logger("symctl")
			if err != nil {
				return err
			}
			scope, err := cfg.BuildScope(logger)
			if err != nil {
				return fmt.Errorf("build scope: %w", err)
			}
			o.handler = symbind.NewToolHandler(scope,
				symbind.WithToolLogger(logger),
				symbind.WithBatchLimit(cfg.Server.BatchLimit))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", "",
		"Path to YAML config file")
	root.PersistentFlags().BoolVar(&o.jsonOutput, "json", false,
		"Print the full tool response as JSON")
	root.PersistentFlags().BoolVar(&o.latex, "latex", false,
		"Print LaTeX instead of text")

	root.AddCommand(
		exprCmd(o, "simplify", "Simplify an expression", nil),
		deriveCmd(o),
		exprCmd(o, "recognize", "Identify the known function or constant an expression computes", nil),
		evalCmd(o),
		namesCmd(o),
		&cobra.Command{
			Use:   "schema",
			Short: "Print the tool schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				resp := o.handler.Handle(cmd.Context(), symbind.ToolRequest{Tool: "schema"})
				_, err := fmt.Fprintln(cmd.OutOrStdout(), resp.Result)
				return err
			},
		},
	)
	return root
}

// exprCmd builds a command that sends one expression to tool; extra adds
// further params from flags.
func exprCmd(o *options, tool, short string, extra func(params map[string]interface{}) error) *cobra.Command {
	return &cobra.Command{
		Use:   tool + " [EXPR]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := readExpr(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			params := map[string]interface{}{"expr": e}
			if extra != nil {
				if err := extra(params); err != nil {
					return err
				}
			}
			return o.run(cmd, symbind.ToolRequest{Tool: tool, Params: params})
		},
	}
}

func deriveCmd(o *options) *cobra.Command {
	var (
		variable string
		n        int
	)
	cmd := exprCmd(o, "derivative", "Differentiate an expression", func(params map[string]interface{}) error {
		if variable == "" {
			return errors.New("--var is required")
		}
		params["var"] = variable
		params["n"] = float64(n)
		return nil
	})
	cmd.Use = "derive [EXPR]"
	cmd.Aliases = []string{"derivative", "diff"}
	cmd.Flags().StringVar(&variable, "var", "", "Variable to differentiate by")
	cmd.Flags().IntVar(&n, "n", 1, "Derivative order")
	return cmd
}

func evalCmd(o *options) *cobra.Command {
	var env string
	cmd := exprCmd(o, "evaluate", "Evaluate an expression", func(params map[string]interface{}) error {
		if env == "" {
			return nil
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(env), &m); err != nil {
			return fmt.Errorf("--env: %w", err)
		}
		params["env"] = m
		return nil
	})
	cmd.Use = "eval [EXPR]"
	cmd.Aliases = []string{"evaluate"}
	cmd.Flags().StringVar(&env, "env", "", `Variable values as a JSON object, e.g. {"x": 2}`)
	return cmd
}

func namesCmd(o *options) *cobra.Command {
	var of string
	cmd := &cobra.Command{
		Use:   "names [PREFIX]",
		Short: "List bound names, or the aliases of one name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]interface{}{}
			if of != "" {
				params["of"] = of
			} else if len(args) == 1 {
				params["prefix"] = args[0]
			}
			resp := o.handler.Handle(cmd.Context(), symbind.ToolRequest{Tool: "names", Params: params})
			if resp.Error != "" {
				return errors.New(resp.Error)
			}
			if o.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			names, _ := resp.Result.([]string)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
			return err
		},
	}
	cmd.Flags().StringVar(&of, "of", "", "Show every alias of this name")
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

func (o *options) run(cmd *cobra.Command, req symbind.ToolRequest) error {
	resp := o.handler.Handle(cmd.Context(), req)
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	out := cmd.OutOrStdout()
	switch {
	case o.jsonOutput:
		return writeJSON(out, resp)
	case o.latex && resp.LaTeX != "":
		_, err := fmt.Fprintln(out, resp.LaTeX)
		return err
	}
	_, err := fmt.Fprintln(out, resp.String)
	return err
}

// readExpr takes the expression from args, or from stdin when args is
// empty or "-".
func readExpr(stdin io.Reader, args []string) (map[string]interface{}, error) {
	var raw []byte
	if len(args) == 1 && args[0] != "-" {
		raw = []byte(args[0])
	} else {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse expression: %w", err)
	}
	return m, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
