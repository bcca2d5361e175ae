// cmd/iq-writer/commands.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"iq-bot/internal/catalog"
	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/observability"
	"iq-bot/internal/writer"
)

func newRunCommand(a *app) *cobra.Command {
	var templateIDs []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Initialize prompts and generate responses for every enabled template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			orchestrator, err := s.NewOrchestrator()
			if err != nil {
				return err
			}
			sources, err := s.DataSources(ctx)
			if err != nil {
				return err
			}

			obs := observability.New(a.cfg.App.Name, nil, a.log)
			defer obs.Shutdown()
			if a.cfg.Observability.TraceStdout {
				if err := obs.EnableTracing(os.Stderr); err != nil {
					a.log.Warn("tracing disabled", map[string]interface{}{"error": err.Error()})
				}
			}

			runner := writer.NewRunner(s.Catalog, s.Prompts, orchestrator, obs, a.cfg.Writer.Concurrency, a.log)
			return printJSON(cmd.OutOrStdout(), runner.Run(ctx, sources, templateIDs...))
		},
	}
	cmd.Flags().StringSliceVar(&templateIDs, "template", nil, "restrict the run to these template ids")
	return cmd
}

func newInitCommand(a *app) *cobra.Command {
	var templateIDs []string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Store one prompt record per parameter combination",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			sources, err := s.DataSources(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s.Prompts.InitializePrompts(ctx, sources, templateIDs...))
		},
	}
	cmd.Flags().StringSliceVar(&templateIDs, "template", nil, "restrict initialization to these template ids")
	return cmd
}

func newGenerateCommand(a *app) *cobra.Command {
	var templateID, promptID string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate responses for the stored records of a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.connect(ctx)
			if err != nil {
				return err
			}
			if _, err := s.Catalog.Template(templateID); err != nil {
				return err
			}
			orchestrator, err := s.NewOrchestrator()
			if err != nil {
				return err
			}

			if promptID != "" {
				resp, err := orchestrator.GeneratePromptResponse(ctx, templateID, promptID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printJSON(cmd.OutOrStdout(), orchestrator.GenerateResponsesByTemplate(ctx, templateID, a.cfg.Writer.Concurrency))
		},
	}
	cmd.Flags().StringVar(&templateID, "template", "", "template id")
	cmd.Flags().StringVar(&promptID, "prompt", "", "single prompt id (default: every record of the template)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the template catalog against its schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.LoadFile(a.cfg.Resources.TemplatesFile, a.log)
			if err != nil {
				return err
			}

			report := struct {
				Topics  []string               `json:"topics"`
				Valid   int                    `json:"valid"`
				Invalid []catalog.InvalidEntry `json:"invalid"`
			}{Topics: cat.Topics(), Valid: len(cat.All()), Invalid: cat.Invalid()}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Invalid) > 0 {
				return apperrors.NewTemplateInvalidError("", fmt.Sprintf("%d invalid catalog entries", len(report.Invalid)), nil)
			}
			return nil
		},
	}
}

func newPromptsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect stored prompt records",
	}

	var topic string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored prompt records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if topic != "" {
				return printJSON(cmd.OutOrStdout(), s.Reader.ListGeneratedPromptsByTopic(cmd.Context(), topic))
			}
			return printJSON(cmd.OutOrStdout(), s.Reader.ListGeneratedPrompts(cmd.Context()))
		},
	}
	list.Flags().StringVar(&topic, "topic", "", "only records of this topic")

	get := &cobra.Command{
		Use:   "get <promptId>",
		Short: "Show one stored prompt record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			p, ok := s.Reader.GetGeneratedPrompt(cmd.Context(), args[0])
			if !ok {
				return apperrors.NewPromptNotFoundError(args[0])
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func newResponseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "response <promptId>",
		Short: "Show the cached response of a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			resp, ok := s.Reader.GetResponse(cmd.Context(), args[0])
			if !ok {
				return apperrors.NewResponseNotFoundError(args[0])
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}
