package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	"github.com/otherjamesbrown/azurely-cli/pkg/render"
)

type languageRow struct {
	Tag      analysis.Language `json:"tag" yaml:"tag"`
	Name     string            `json:"name" yaml:"name"`
	SelfName string            `json:"self_name" yaml:"self_name"`
	Default  bool              `json:"default" yaml:"default"`
}

// NewLanguagesCommand creates the languages command.
func NewLanguagesCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported recording languages",
		Long: `List the language tags accepted by --language and the language config key.
The configured default is marked with *.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.loadedConfig()
			if err != nil {
				return err
			}
			return writeLanguages(cmd.OutOrStdout(), cfg.OutputFormat, cfg.Language)
		},
	}
}

func writeLanguages(w io.Writer, format config.OutputFormat, current analysis.Language) error {
	rows := make([]languageRow, 0, len(analysis.SupportedLanguages))
	for _, l := range analysis.SupportedLanguages {
		rows = append(rows, languageRow{
			Tag:      l,
			Name:     l.DisplayName(),
			SelfName: l.SelfName(),
			Default:  l == current,
		})
	}

	if format == config.OutputFormatJSON || format == config.OutputFormatYAML {
		return render.Encode(w, format, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  TAG\tNAME\tNATIVE")
	for _, r := range rows {
		marker := " "
		if r.Default {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, r.Tag, r.Name, r.SelfName)
	}
	return tw.Flush()
}
