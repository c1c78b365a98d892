// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

func newPutCmd() *cobra.Command {
	var (
		tierName  string
		typeName  string
		tags      []string
		metaJSON  string
		filePath  string
		tableName string
	)

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store a data object in a tier",
		Long: `Store a data object in a tier and register it in the catalog.

Input is read from --file or stdin. Vector payloads are a JSON array of
numbers; dataframe and geodataframe payloads are a JSON table object with
"name", "columns" and "rows"; everything else is stored as raw bytes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := memory.ParseTier(tierName)
			if err != nil {
				return err
			}

			raw, err := readInput(cmd, filePath)
			if err != nil {
				return err
			}

			payload, err := buildPayload(memory.DataType(typeName), raw)
			if err != nil {
				return err
			}

			opts := memory.PutOptions{Tags: tags, TableName: tableName}
			if metaJSON != "" {
				meta, merr := memory.NewMeta(json.RawMessage(metaJSON))
				if merr != nil {
					return merr
				}
				opts.Meta = meta
			}

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			dataID, err := app.Manager.Put(cmd.Context(), t, payload, opts)
			if err != nil {
				return err
			}

			if err := app.Manager.Index().UpdateIndex(cmd.Context(), t); err != nil {
				slog.Warn("index rebuild after put failed", "tier", t, "error", err)
			}

			cmd.Println(dataID)
			return nil
		},
	}

	cmd.Flags().StringVar(&tierName, "tier", "", "target tier (red_hot|hot|warm|cold|glacier)")
	cmd.Flags().StringVar(&typeName, "type", "text", "data type (dict|dataframe|vector|geodataframe|binary|text)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "tags to attach")
	cmd.Flags().StringVar(&metaJSON, "meta", "", "additional metadata as a JSON object")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "input file (default stdin)")
	cmd.Flags().StringVar(&tableName, "table-name", "", "logical table name for tabular payloads")
	_ = cmd.MarkFlagRequired("tier")

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, strataerr.Errorf(strataerr.CodeCLIInputInvalid, "reading %s: %w", path, err)
		}
		return raw, nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, strataerr.Errorf(strataerr.CodeCLIInputInvalid, "reading stdin: %w", err)
	}
	return raw, nil
}

// buildPayload maps raw input bytes onto the payload variant for the type.
func buildPayload(kind memory.DataType, raw []byte) (*memory.Payload, error) {
	switch kind {
	case memory.DataTypeVector:
		var vector []float32
		if err := json.Unmarshal(raw, &vector); err != nil {
			return nil, strataerr.Errorf(strataerr.CodeCLIInputInvalid, "vector payloads must be a JSON number array: %w", err)
		}
		return &memory.Payload{Kind: kind, Vector: vector}, nil

	case memory.DataTypeDataFrame, memory.DataTypeGeoDataFrame:
		var table memory.Table
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, strataerr.Errorf(strataerr.CodeCLIInputInvalid, "tabular payloads must be a JSON table object: %w", err)
		}
		return &memory.Payload{Kind: kind, Table: &table}, nil

	case memory.DataTypeDict, memory.DataTypeText, memory.DataTypeBinary:
		return &memory.Payload{Kind: kind, Bytes: raw}, nil

	default:
		return nil, strataerr.Errorf(strataerr.CodeCLIInputInvalid, "unknown data type %q", kind)
	}
}
