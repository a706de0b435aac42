package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/app"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/config"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/logging"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tintuc24h",
		Short:         "News import pipeline for Tin Tức 24h",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration")

	root.AddCommand(newImportCmd(&configPath))
	root.AddCommand(newFeedsCmd(&configPath))
	root.AddCommand(newWatchCmd(&configPath))
	return root
}

func newImportCmd(configPath *string) *cobra.Command {
	var opts usecase.ImportOptions

	cmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Import a single article from a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Pipeline().ImportURL(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			fmt.Printf("imported %s as /articles/%s\n", report.URL, report.Slug)
			for _, reason := range report.Reasons {
				fmt.Println("note:", reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Rewrite, "rewrite", false, "rewrite content with the configured provider")
	cmd.Flags().StringVar(&opts.Tone, "tone", "", "rewrite tone override")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "rewrite provider override (gemini, openai)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "article category")
	cmd.Flags().StringVar(&opts.Author, "author", "", "article author override")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "article tags")
	cmd.Flags().StringVar(&opts.ImageURL, "image", "", "explicit lead image URL")
	return cmd
}

func newFeedsCmd(configPath *string) *cobra.Command {
	var opts usecase.ImportOptions

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Run one import pass over all configured feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.RunFeeds(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Rewrite, "rewrite", false, "rewrite content with the configured provider")
	cmd.Flags().StringVar(&opts.Tone, "tone", "", "rewrite tone override")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "rewrite provider override (gemini, openai)")
	return cmd
}

func newWatchCmd(configPath *string) *cobra.Command {
	var opts usecase.ImportOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import feeds on the configured interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return application.Watch(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Rewrite, "rewrite", false, "rewrite content with the configured provider")
	cmd.Flags().StringVar(&opts.Tone, "tone", "", "rewrite tone override")
	return cmd
}

func buildApp(configPath string) (*app.Application, error) {
	cfg := config.Load(configPath)
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}
