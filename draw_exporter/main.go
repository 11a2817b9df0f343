package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/kataras/golog"

	"github.com/xor-shift/xsrng/common"
	"github.com/xor-shift/xsrng/config"
	"github.com/xor-shift/xsrng/store"
	"github.com/xor-shift/xsrng/util"
)

type arguments struct {
	Session uint   `name:"session" short:"s" xor:"source" help:"session number to replay from the database"`
	Seed    string `name:"seed" xor:"source" help:"hex seed for an offline export"`
	Min     int    `name:"min" default:"0" help:"(offline) lower bound, inclusive"`
	Max     int    `name:"max" default:"100" help:"(offline) upper bound, exclusive"`
	Count   int    `name:"count" short:"n" default:"10" help:"(offline) number of draws"`

	Verify             bool   `name:"verify" negatable:"" default:"true" help:"(session) compare replayed draws against the stored ones"`
	Out                string `name:"out" short:"o" default:"draws_{{.SessionNo}}_{{.Seed}}.{{.Format}}" help:"File to output to (templated)"`
	Format             string `name:"format" short:"f" enum:"csv,json" default:"csv" help:"Data format"`
	ExportColumnTitles bool   `name:"export_column_titles" negatable:"" default:"true" help:"(applicable only to CSV outputs) whether to include column titles for CSV exports"`
}

func main() {
	var args arguments
	kctx := kong.Parse(&args, kong.Description("Exports draws, either replayed from a stored session or drawn offline from a seed."))

	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)
	cfg.ApplyLogLevel()

	var batches []common.DrawBatch
	var seed uint64

	switch {
	case args.Session != 0:
		batches, seed, err = sessionBatches(cfg, args.Session, args.Verify)
	case args.Seed != "":
		if seed, err = util.ParseHexUint64(args.Seed); err != nil {
			kctx.Fatalf("bad seed %q: %s", args.Seed, err)
		}

		var batch common.DrawBatch
		batch, err = offlineBatch(seed, common.DrawRequest{Min: args.Min, Max: args.Max, Count: args.Count})
		batches = []common.DrawBatch{batch}
	default:
		kctx.Fatalf("one of --session or --seed is required")
	}
	kctx.FatalIfErrorf(err)

	outFileName, err := outputName(args.Out, outputNameArguments{
		SessionNo: args.Session,
		Seed:      util.ArrayToString([]uint64{seed}),
		Format:    args.Format,
	})
	kctx.FatalIfErrorf(err)

	outFile, err := os.Create(outFileName)
	if err != nil {
		golog.Fatalf("error while creating the output file \"%s\": %s", outFileName, err)
	}
	defer outFile.Close()

	if args.Format == "json" {
		err = writeJSON(outFile, batches)
	} else {
		err = writeCSV(outFile, batches, args.ExportColumnTitles)
	}
	kctx.FatalIfErrorf(err)

	golog.Infof("wrote %d batches to %s", len(batches), outFileName)
}

func sessionBatches(cfg config.Config, sessionID uint, verify bool) ([]common.DrawBatch, uint64, error) {
	db, err := store.Open(cfg.MySQL())
	if err != nil {
		return nil, 0, err
	}
	defer db.Close()

	ctx := context.Background()

	session, err := db.Session(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}

	stored, err := db.Batches(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}

	replayed, err := replay(session.Seed, stored)
	if err != nil {
		return nil, 0, err
	}

	if verify {
		if n := mismatches(stored, replayed); n != 0 {
			golog.Warnf("%d stored values of session %d do not match the replay", n, sessionID)
		} else {
			golog.Infof("all %d batches of session %d match the replay", len(stored), sessionID)
		}
	}

	return replayed, session.Seed, nil
}
