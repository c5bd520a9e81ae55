package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"SegPull/internal/domain/models"
	"SegPull/internal/usecase"
	applogger "SegPull/pkg/logger"
	"SegPull/pkg/server"
	"SegPull/pkg/util"
)

// runFunc executes a parsed command against an initialized app.
type runFunc func(app *server.App) error

// command parses its arguments and returns the work to run.
type command func(args []string) runFunc

var commands = map[string]command{
	"list-reports":    listReportsCmd,
	"get-segment":     getSegmentCmd,
	"updated-reports": updatedReportsCmd,
	"export-segments": exportSegmentsCmd,
	"serve":           serveCmd,
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}

func exitUsage(fset *flag.FlagSet, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	fset.Usage()
	os.Exit(2)
}

func localeFlags(fset *flag.FlagSet) (country, language *string) {
	country = fset.String("country", "", "country code (default from config)")
	language = fset.String("language", "", "report language (default from config)")
	return country, language
}

func listReportsCmd(args []string) runFunc {
	fset := newFlagSet("list-reports")
	country, language := localeFlags(fset)
	refresh := fset.Bool("refresh", false, "bypass the cache read")
	_ = fset.Parse(args)

	return func(app *server.App) error {
		raw, err := app.Client().ListReports(context.Background(),
			models.WithCountry(*country),
			models.WithLanguage(*language),
			models.WithRefresh(*refresh),
		)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, raw)
	}
}

func getSegmentCmd(args []string) runFunc {
	fset := newFlagSet("get-segment")
	code := fset.String("code", "", "report code")
	var sections stringList
	fset.Var(&sections, "section", "section to fetch (repeatable)")
	country, language := localeFlags(fset)
	out := fset.String("out", "segment.json", "output file")
	refresh := fset.Bool("refresh", false, "bypass the cache read")
	_ = fset.Parse(args)

	if strings.TrimSpace(*code) == "" {
		exitUsage(fset, "get-segment: -code is required")
	}

	return func(app *server.App) error {
		secs := util.SplitList(sections...)
		if len(secs) == 0 {
			secs = app.Config().Export.Sections
		}
		raw, err := app.Client().GetSegmentSectionsRaw(context.Background(), *code, secs,
			models.WithCountry(*country),
			models.WithLanguage(*language),
			models.WithRefresh(*refresh),
		)
		if err != nil {
			return err
		}

		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err := printJSON(f, raw); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		app.Logger().Info("segment written", applogger.String("code", *code), applogger.String("out", *out))
		return nil
	}
}

func updatedReportsCmd(args []string) runFunc {
	fset := newFlagSet("updated-reports")
	start := fset.String("start", "", "start date (YYYY-MM-DD)")
	end := fset.String("end", "", "end date (YYYY-MM-DD)")
	country, language := localeFlags(fset)
	_ = fset.Parse(args)

	if err := util.ValidateDateRange(*start, *end); err != nil {
		exitUsage(fset, "updated-reports: "+err.Error())
	}

	return func(app *server.App) error {
		raw, err := app.Client().GetUpdatedReports(context.Background(), *start, *end,
			models.WithCountry(*country),
			models.WithLanguage(*language),
		)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, raw)
	}
}

func exportSegmentsCmd(args []string) runFunc {
	fset := newFlagSet("export-segments")
	codesFile := fset.String("codes-file", "", "file with one report code per line")
	var codeArgs, sections stringList
	fset.Var(&codeArgs, "code", "report code (repeatable)")
	fset.Var(&sections, "section", "section to fetch (repeatable)")
	out := fset.String("out", "", "CSV output path (default from config)")
	refresh := fset.Bool("refresh", false, "bypass the cache read")
	_ = fset.Parse(args)

	codes, err := resolveCodes(*codesFile, codeArgs)
	if err != nil {
		exitUsage(fset, "export-segments: "+err.Error())
	}

	return func(app *server.App) error {
		secs := util.SplitList(sections...)
		if len(secs) == 0 {
			secs = app.Config().Export.Sections
		}
		path := *out
		if path == "" {
			path = app.Config().Export.Out
		}

		res, err := app.Exporter().Export(context.Background(), usecase.ExportRequest{
			Codes:    codes,
			Sections: secs,
			Out:      path,
			Refresh:  *refresh,
		})
		if res != nil {
			fmt.Fprintf(os.Stdout, "wrote %d records to %s\n", len(res.Records), res.Out)
		}
		return err
	}
}

var (
	errNoCodes   = errors.New("provide -codes-file or -code")
	errBothCodes = errors.New("use either -codes-file or -code, not both")
)

// resolveCodes returns the export codes from the codes file or from the
// repeated -code values. Exactly one source must be given.
func resolveCodes(codesFile string, codeArgs []string) ([]string, error) {
	args := util.SplitList(codeArgs...)
	switch {
	case codesFile != "" && len(args) > 0:
		return nil, errBothCodes
	case codesFile != "":
		codes, err := util.ReadCodesFile(codesFile)
		if err != nil {
			return nil, err
		}
		if len(codes) == 0 {
			return nil, errNoCodes
		}
		return codes, nil
	case len(args) > 0:
		return args, nil
	}
	return nil, errNoCodes
}

func serveCmd(args []string) runFunc {
	fset := newFlagSet("serve")
	port := fset.Int("port", 0, "listen port (default from config)")
	_ = fset.Parse(args)

	return func(app *server.App) error {
		if *port > 0 {
			app.Config().Server.Port = *port
		}
		return app.Serve(context.Background())
	}
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return errors.New("empty response")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(raw)
}
