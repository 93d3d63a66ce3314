package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dimreg/core/config"
	"github.com/dmitrymomot/dimreg/core/resolver"
)

func labelCmd(flags *rootFlags) *cobra.Command {
	var (
		dir         dirFlags
		datasetID   string
		dimensionID string
		code        string
		langs       string
	)
	cmd := &cobra.Command{
		Use:   "label --dataset ID [--dimension DIM [--code CODE]]",
		Short: "Resolve display names",
		Long: `label prints the display name of a code. Without --code it lists every
code of --dimension; without --dimension it prints the dataset name.
Languages in --lang are tried in order, then the default language.`,
		Example: `  dimreg label --dataset 163_156 --dimension ADJUSTMENT --code Y --lang it,en`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := flags.newLogger()
			if err != nil {
				return err
			}
			var s settings
			if err := config.Load(&s); err != nil {
				return err
			}
			reg, err := dir.localRegistry(cmd.Context(), log)
			if err != nil {
				return err
			}
			res := resolver.New(reg, resolver.WithDefaultLanguage(s.DefaultLang), resolver.WithLogger(log))
			preferred := resolver.ParseLanguageList(langs)
			out := cmd.OutOrStdout()

			switch {
			case dimensionID == "":
				name, err := res.DatasetName(datasetID, preferred...)
				if err != nil {
					return err
				}
				return printLabel(out, name)
			case code == "":
				codes, err := res.Codes(datasetID, dimensionID, preferred...)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, c := range codes {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Code, c.Label, c.Language)
				}
				return tw.Flush()
			default:
				name, err := res.ResolveDetailed(datasetID, dimensionID, code, preferred...)
				if err != nil {
					return err
				}
				return printLabel(out, name)
			}
		},
	}
	dir.register(cmd)
	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset id")
	cmd.Flags().StringVar(&dimensionID, "dimension", "", "dimension id")
	cmd.Flags().StringVar(&code, "code", "", "code of --dimension")
	cmd.Flags().StringVar(&langs, "lang", "", "comma separated preferred languages, e.g. it,en")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func printLabel(w io.Writer, r resolver.Resolution) error {
	if r.FallbackUsed {
		_, err := fmt.Fprintf(w, "%s (%s, requested %s)\n", r.Label, r.Language, r.Requested)
		return err
	}
	_, err := fmt.Fprintln(w, r.Label)
	return err
}
