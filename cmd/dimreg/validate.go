package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dimreg/core/validator"
)

var (
	errInvalidField  = errors.New("field must be DIMENSION=CODE")
	errRecordInvalid = errors.New("record violates the dataset constraints")
)

func validateCmd(flags *rootFlags) *cobra.Command {
	var (
		dir       dirFlags
		datasetID string
		strict    bool
	)
	cmd := &cobra.Command{
		Use:   "validate --dataset ID DIMENSION=CODE...",
		Short: "Validate a record against a dataset's constraints",
		Long: `validate loads the constraint documents under --dir and checks one record,
given as DIMENSION=CODE arguments in record order. The result is printed as
JSON; the command fails when the record is invalid.`,
		Example: `  dimreg validate --dir ./constraints --dataset 163_156 FREQ=M ADJUSTMENT=Y`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := parseRecord(args)
			if err != nil {
				return err
			}
			log, err := flags.newLogger()
			if err != nil {
				return err
			}
			reg, err := dir.localRegistry(cmd.Context(), log)
			if err != nil {
				return err
			}

			res, err := validator.New(reg, validator.WithLogger(log)).Validate(datasetID, record, validator.Strict(strict))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Valid {
				return errRecordInvalid
			}
			return nil
		},
	}
	dir.register(cmd)
	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset id")
	cmd.Flags().BoolVar(&strict, "strict", false, "report constrained dimensions missing from the record")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func parseRecord(args []string) (validator.Record, error) {
	record := make(validator.Record, 0, len(args))
	for _, arg := range args {
		dim, code, ok := strings.Cut(arg, "=")
		if !ok || dim == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidField, arg)
		}
		record = append(record, validator.Field{Dimension: dim, Code: code})
	}
	return record, nil
}
