package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"prooftree/internal/agent/maestro"
	"prooftree/internal/config"
	"prooftree/internal/domain"
	models "prooftree/internal/domain/models/proof"
	proofSvc "prooftree/internal/domain/services/proof"
	serviceLLM "prooftree/internal/service/llm"
	serviceProof "prooftree/internal/service/proof"
)

// cli holds the flags shared by all subcommands.
type cli struct {
	verbose bool
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "prooftree",
		Short: "Decompose theorems into proof trees and analyze them",
		Long: `prooftree decomposes a theorem into a tree of proof steps and analyzes
trees: flattening, leaf extraction, assumption pairing and per-node validation.

Tree files hold either a bare tree ({"step": ..., "children": [...]}) or a
request body ({"theorem": ..., "proof_tree": {...}}). Use "-" for stdin.

Examples:
  prooftree decompose "There are infinitely many primes" --analyze
  prooftree analyze tree.json --validate
  prooftree node tree.json root_0_1
  prooftree path tree.json root_0_1_0
  prooftree render tree.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.cfg = config.Load()
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	root.AddCommand(c.analyzeCmd())
	root.AddCommand(c.decomposeCmd())
	root.AddCommand(c.nodeCmd())
	root.AddCommand(c.pathCmd())
	root.AddCommand(c.renderCmd())
	return root
}

func (c *cli) analyzeCmd() *cobra.Command {
	var validate bool
	var theorem string

	cmd := &cobra.Command{
		Use:   "analyze <tree-file>",
		Short: "Flatten and pair a proof tree, optionally validating every node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readTreeFile(cmd, args[0])
			if err != nil {
				return err
			}
			if theorem == "" {
				theorem = in.Theorem
			}

			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			analysis, err := svc.AnalyzeTree(cmd.Context(), &proofSvc.AnalyzeRequest{
				Theorem:   theorem,
				ProofTree: in.ProofTree,
				Validate:  validate,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), analysis)
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "Run the prove/judge check on every node")
	cmd.Flags().StringVar(&theorem, "theorem", "", "Theorem the tree proves (overrides the file)")
	return cmd
}

func (c *cli) decomposeCmd() *cobra.Command {
	var analyze bool
	var model string

	cmd := &cobra.Command{
		Use:   "decompose <theorem>",
		Short: "Ask a chat model for a proof tree of the theorem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}

			req := serviceProof.NewTheoremRequest(args[0], c.cfg)
			req.Analyze = analyze
			if model != "" {
				req.Model = model
			}

			result, err := svc.DecomposeTheorem(cmd.Context(), req)
			if err != nil {
				var outErr *domain.ModelOutputError
				if errors.As(err, &outErr) {
					fmt.Fprintln(cmd.ErrOrStderr(), "raw response:", outErr.Raw)
				}
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Also analyze and validate the returned tree")
	cmd.Flags().StringVar(&model, "model", "", "Chat model (default from DEFAULT_MODEL)")
	return cmd
}

func (c *cli) nodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node <tree-file> <node-id>",
		Short: "Print the subtree at a positional node id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readTreeFile(cmd, args[0])
			if err != nil {
				return err
			}
			root, err := serviceProof.BuildTree(in.ProofTree)
			if err != nil {
				return err
			}
			node, ok := serviceProof.FindNodeByID(root, args[1])
			if !ok {
				return fmt.Errorf("%w: node %s", domain.ErrNotFound, args[1])
			}
			return writeJSON(cmd.OutOrStdout(), serviceProof.Structure(node))
		},
	}
}

func (c *cli) pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <tree-file> <leaf-id>",
		Short: "Print the records from the root down to a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readTreeFile(cmd, args[0])
			if err != nil {
				return err
			}
			root, err := serviceProof.BuildTree(in.ProofTree)
			if err != nil {
				return err
			}
			path, err := serviceProof.PathToLeaf(root, args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), path)
		},
	}
}

func (c *cli) renderCmd() *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "render <tree-file>",
		Short: "Draw the tree with node ids, optionally annotated with validation results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readTreeFile(cmd, args[0])
			if err != nil {
				return err
			}
			root, err := serviceProof.BuildTree(in.ProofTree)
			if err != nil {
				return err
			}

			var outcomes map[string]models.Outcome
			if validate {
				svc, err := c.service(cmd)
				if err != nil {
					return err
				}
				analysis, err := svc.AnalyzeTree(cmd.Context(), &proofSvc.AnalyzeRequest{
					Theorem:   in.Theorem,
					ProofTree: in.ProofTree,
					Validate:  true,
				})
				if err != nil {
					return err
				}
				outcomes = serviceProof.OutcomesByID(analysis.ProcessedNodes)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), serviceProof.RenderText(root, outcomes))
			return err
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "Validate every node and show the outcome")
	return cmd
}

// service wires the proof service without an archive. Logs go to stderr so
// stdout stays machine-readable.
func (c *cli) service(cmd *cobra.Command) (proofSvc.ProofService, error) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	providers := serviceLLM.SetupProviders(c.cfg, logger)
	agent := maestro.NewClient(c.cfg.AI21BaseURL, c.cfg.AI21APIKey, logger,
		maestro.WithPollTimeout(c.cfg.AgentPollTimeout),
	)
	return serviceProof.SetupService(c.cfg, providers, agent, nil, logger)
}

type treeFile struct {
	Theorem   string
	ProofTree map[string]any
}

// readTreeFile accepts a bare tree or a {"theorem", "proof_tree"} body.
func readTreeFile(cmd *cobra.Command, path string) (*treeFile, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read tree file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object: %v", domain.ErrValidation, path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s holds no tree", domain.ErrValidation, path)
	}

	if wrapped, ok := raw["proof_tree"]; ok {
		tree, ok := wrapped.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: proof_tree must be an object", domain.ErrValidation)
		}
		theorem, _ := raw["theorem"].(string)
		return &treeFile{Theorem: theorem, ProofTree: tree}, nil
	}
	return &treeFile{ProofTree: raw}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
