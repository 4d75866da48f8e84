package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/jonathan/buyside/internal/fetch"
	"github.com/jonathan/buyside/internal/observability"
	"github.com/jonathan/buyside/internal/pipeline"
	"github.com/jonathan/buyside/internal/types"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a campaign and run it through enrichment",
	Long: `Creates a campaign from the given draft: keyword extraction, policy review and semantic
description run against the ad text and optional image, the image is uploaded, and the
result is saved to the record store.`,
	RunE: runCreate,
}

var (
	createName   string
	createBudget int
	createText   string
	createImage  string
	createURL    string
	createJSON   bool
)

func init() {
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "Campaign name (required)")
	createCmd.Flags().IntVarP(&createBudget, "budget", "b", types.DefaultDraftBudget, "Budget in whole currency units")
	createCmd.Flags().StringVarP(&createText, "text", "t", "", "Ad text content (required)")
	createCmd.Flags().StringVarP(&createImage, "image", "i", "", "Path to the ad image (optional)")
	createCmd.Flags().StringVar(&createURL, "image-url", "", "URL to download the ad image from (mutually exclusive with --image)")
	createCmd.MarkFlagsMutuallyExclusive("image", "image-url")
	createCmd.Flags().BoolVar(&createJSON, "json", false, "Print the created campaign as JSON")

	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, _ []string) error {
	draft := types.CampaignDraft{
		Name:          createName,
		Budget:        createBudget,
		AdTextContent: createText,
	}
	ctx := cmd.Context()

	switch {
	case createImage != "":
		image, err := readImage(createImage)
		if err != nil {
			return err
		}
		draft.Image = image
	case createURL != "":
		image, err := fetch.Image(ctx, createURL, nil)
		if err != nil {
			return err
		}
		draft.Image = image
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	a, err := newApp(ctx, appConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close(ctx)

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	var onProgress pipeline.ProgressCallback
	if !createJSON {
		onProgress = printer.PrintProgress
	}

	created, err := a.pipeline.SubmitWithProgress(ctx, draft, onProgress)
	if err != nil {
		return err
	}

	if createJSON {
		return writeJSON(cmd, created)
	}
	printer.PrintCampaign(created)
	return nil
}

// readImage loads an image file. The extension comes from the file name, or
// from the content when the name has none.
func readImage(path string) (*types.ImageAttachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		ext = strings.TrimPrefix(mimetype.Detect(data).Extension(), ".")
	}
	return &types.ImageAttachment{Data: data, Extension: strings.ToLower(ext)}, nil
}
