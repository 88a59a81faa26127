package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/setres/internal/adapters/repository"
	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
	"github.com/okian/setres/internal/domain/packed"
	"github.com/okian/setres/internal/domain/setparse"
)

var errNoRecords = errors.New("no records in input")

type options struct {
	dexPath string
	format  string
	gen     int
	input   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "setcli",
		Short:         "Convert competitive team text and manage the build cache",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.dexPath, "dex", "", "Dictionary YAML (default: bundled)")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "Format id, e.g. gen9ou")
	root.PersistentFlags().IntVarP(&opts.gen, "gen", "g", 0, "Generation (default: from format)")
	root.PersistentFlags().StringVarP(&opts.input, "input", "i", "-", "Input file, - for stdin")

	root.AddCommand(
		newParseCmd(opts),
		newUnpackCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
	)
	return root
}

func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Parse set text into JSON records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, text, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), opts.parser(d).ParseAll(text))
		},
	}
}

func newUnpackCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unpack",
		Short: "Decode packed team lines into JSON records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, text, err := opts.load(cmd)
			if err != nil {
				return err
			}
			recs, err := opts.unpacker(d).UnpackAll(text)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			return writeRecords(cmd.OutOrStdout(), recs)
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var fromPacked bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render set text from JSON records or packed teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, text, err := opts.load(cmd)
			if err != nil {
				return err
			}
			var recs []build.Record
			if fromPacked {
				recs, err = opts.unpacker(d).UnpackAll(text)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			} else if err := json.Unmarshal([]byte(text), &recs); err != nil {
				return fmt.Errorf("decode records: %w", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), setparse.ExportAll(recs))
			return err
		},
	}
	cmd.Flags().BoolVar(&fromPacked, "packed", false, "Read packed team lines instead of JSON")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	var (
		dsn    string
		source string
		packd  bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Parse text and store the records in a sqlite build cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, text, err := opts.load(cmd)
			if err != nil {
				return err
			}
			var recs []build.Record
			if packd {
				recs, err = opts.unpacker(d).UnpackAll(text)
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			} else {
				recs = opts.parser(d).ParseAll(text)
			}
			if len(recs) == 0 {
				return errNoRecords
			}
			src := build.Source(source)
			if !src.Valid() {
				return fmt.Errorf("unknown source %q", source)
			}
			if src.Authoritative() {
				return fmt.Errorf("source %q cannot be imported", source)
			}
			for i := range recs {
				recs[i].Source = src
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := repository.OpenSQLite(ctx, dsn)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Put(ctx, recs, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records (%d cached)\n", len(recs), store.Count(ctx))
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "setres.db", "sqlite database path")
	cmd.Flags().StringVar(&source, "source", string(build.SourceCorpus), "Source tag for the imported records")
	cmd.Flags().BoolVar(&packd, "packed", false, "Read packed team lines instead of set text")
	return cmd
}

func (o *options) load(cmd *cobra.Command) (*dex.Dex, string, error) {
	d := dex.Bundled()
	if o.dexPath != "" {
		var err error
		if d, err = dex.Open(o.dexPath); err != nil {
			return nil, "", err
		}
	}

	var r io.Reader = cmd.InOrStdin()
	if o.input != "-" && o.input != "" {
		f, err := os.Open(o.input)
		if err != nil {
			return nil, "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}
	return d, string(raw), nil
}

func (o *options) parser(d *dex.Dex) *setparse.Parser {
	return setparse.New(d, setparse.WithFormat(o.format), setparse.WithGen(o.gen))
}

func (o *options) unpacker(d *dex.Dex) *packed.Unpacker {
	return packed.New(d, packed.WithGen(o.gen))
}

func writeRecords(w io.Writer, recs []build.Record) error {
	if recs == nil {
		recs = []build.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
