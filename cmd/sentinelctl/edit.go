package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TamimulAhsan/sentineliam/core/catalog"
	"github.com/TamimulAhsan/sentineliam/core/infra/metrics"
	"github.com/TamimulAhsan/sentineliam/core/infra/schema"
	"github.com/TamimulAhsan/sentineliam/core/policy"
	sdk "github.com/TamimulAhsan/sentineliam/sdk/client"
)

func runEditCmd(args []string) {
	fs := newFlagSet("edit")
	file := fs.String("file", "", "path to the replacement document")
	fs.ParseArgs(args)
	if fs.NArg() < 1 {
		fail("policy id required")
	}
	if *file == "" {
		fail("document file required (use --file)")
	}

	// #nosec G304 -- CLI explicitly reads local files provided by the operator.
	draft, err := os.ReadFile(*file)
	check(err)

	cat, notices, closeFn := newCatalog(fs.loadConfig(), metrics.Noop{})
	defer closeFn()
	if err := cat.Load(context.Background()); err != nil {
		printNotices(notices)
		fail(err.Error())
	}

	session := catalog.NewSession(cat)
	check(session.Open(policy.ID(fs.Arg(0)), false))
	check(session.UpdateDraft(string(draft)))

	if err := session.RequestSave(context.Background()); err != nil {
		var derr *policy.DecodeError
		var serr *schema.ValidationError
		var verr *sdk.ValidationError
		switch {
		case errors.As(err, &derr):
			fail("document is not valid JSON: " + derr.Err.Error())
		case errors.As(err, &serr):
			fail("document rejected locally: " + serr.Message)
		case errors.As(err, &verr):
			fail("document rejected by the store: " + verr.Message)
		default:
			printNotices(notices)
			fail(err.Error())
		}
	}

	rec, ok := cat.Get(policy.ID(fs.Arg(0)))
	if !ok {
		fail("policy disappeared during save")
	}
	fmt.Printf("saved %s: risk %d, vulnerable %v\n", rec.ID, rec.RiskScore, rec.IsVulnerable)
}

func runDeleteCmd(args []string) {
	fs := newFlagSet("delete")
	fs.ParseArgs(args)
	if fs.NArg() < 1 {
		fail("policy id required")
	}

	cat, notices, closeFn := newCatalog(fs.loadConfig(), metrics.Noop{})
	defer closeFn()
	if err := cat.Load(context.Background()); err != nil {
		printNotices(notices)
		fail(err.Error())
	}

	if err := cat.Delete(context.Background(), policy.ID(fs.Arg(0))); err != nil {
		printNotices(notices)
		fail(err.Error())
	}
	fmt.Printf("deleted %s\n", fs.Arg(0))
}
