package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pages/internal/datadoc"
	"github.com/conneroisu/pages/internal/generate"
	"github.com/conneroisu/pages/internal/generator"
	"github.com/conneroisu/pages/internal/loader"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Write templates.json or features.json from template sources",
	Long: `Load the template sources and write the feature and stream descriptors.
Projects with a config.yaml get dist templates.json, others get the
sites-config features.json merged into the existing file.

Examples:
  pages templates                   # Pick the file from the project layout
  pages templates --type features   # Always write features.json
  pages templates --type templates  # Always write templates.json`,
	RunE: runTemplates,
}

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"g"},
	Short:   "Render stream documents into pages",
	Long: `Render stream documents with the bundled templates described by the
build manifest. Documents are read from --data (a JSON or newline-delimited
JSON file, or - for stdin) or from the local data folder.

Examples:
  pages generate                          # Render every local data document
  pages generate --data docs.jsonl        # Render documents from a file
  cat doc.json | pages generate --data -  # Render documents from stdin
  pages generate --slug main-street       # Render a single local document
  pages generate --mode development       # Pass development mode to templates`,
	RunE: runGenerate,
}

var (
	generateData   string
	generateSlug   string
	generateLocale string
)

func init() {
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(generateCmd)

	templatesCmd.Flags().Var(templatesType, "type", "Descriptor to write (auto, features, templates)")

	generateCmd.Flags().StringVarP(&generateData, "data", "d", "", "Stream documents to render (file path or - for stdin)")
	generateCmd.Flags().StringVar(&generateSlug, "slug", "", "Render only the local document with this slug")
	generateCmd.Flags().StringVar(&generateLocale, "locale", "en", "Locale of the --slug document")
	generateCmd.Flags().Var(renderMode, "mode", "Mode passed to templates (production, development)")
}

func runTemplates(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	project := cfg.Project

	paths, err := loader.GetTemplateFilepaths(project.ScopedTemplatesPath())
	if err != nil {
		return err
	}

	templates, err := loader.LoadTemplateModules(ctx, paths, loader.NewCache(), loader.Options{})
	if err != nil {
		return err
	}

	mode := parseMode(templatesType.String(), generate.ModeFor(project))
	path, err := generate.CreateTemplatesJSON(ctx, templates, project, mode)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Wrote template descriptors", "path", path, "templates", templates.Count())
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	project := cfg.Project

	var docs []datadoc.Document
	if generateSlug != "" {
		doc, found, err := datadoc.NewLocalLoader(project.LocalDataPath()).FindBySlug(generateSlug, generateLocale)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no local document with slug %q in locale %q", generateSlug, generateLocale)
		}
		docs = []datadoc.Document{doc}
	} else {
		docs, err = readDocuments(cmd.InOrStdin(), generateData, project.LocalDataPath())
		if err != nil {
			return err
		}
	}

	_, err = generator.New(project, logger, loader.NewCache()).
		WithMode(renderMode.String()).
		Generate(ctx, docs)
	return err
}

// readDocuments decodes documents from source, stdin for "-", or the local
// data folder when source is empty.
func readDocuments(stdin io.Reader, source, localDataDir string) ([]datadoc.Document, error) {
	switch source {
	case "":
		return datadoc.NewLocalLoader(localDataDir).All()
	case "-":
		return datadoc.Decode(stdin)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open data file: %w", err)
		}
		defer f.Close()
		return datadoc.Decode(f)
	}
}
