package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/TamimulAhsan/sentineliam/core/catalog"
	"github.com/TamimulAhsan/sentineliam/core/infra/metrics"
	"github.com/TamimulAhsan/sentineliam/core/infra/secrets"
	"github.com/TamimulAhsan/sentineliam/core/policy"
)

func runListCmd(args []string) {
	fs := newFlagSet("list")
	search := fs.String("search", "", "substring match on policy or entity name")
	platforms := fs.String("platform", "", "comma-separated platforms (aws,azure,gcp)")
	minRisk := fs.Int("min-risk", 0, "minimum risk score")
	maxRisk := fs.Int("max-risk", 100, "maximum risk score")
	sortDir := fs.String("sort", "", "risk score sort: desc or asc")
	jsonOut := fs.Bool("json", false, "output JSON")
	fs.ParseArgs(args)

	filter := catalog.Filter{
		Search:  *search,
		MinRisk: *minRisk,
		MaxRisk: *maxRisk,
	}
	for _, part := range strings.Split(*platforms, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := policy.ParsePlatform(part)
		check(err)
		filter.Platforms = append(filter.Platforms, p)
	}

	order := catalog.SortNone
	switch strings.ToLower(strings.TrimSpace(*sortDir)) {
	case "":
	case "desc":
		order = catalog.SortDescending
	case "asc":
		order = catalog.SortAscending
	default:
		fail("sort must be desc or asc")
	}

	cat, notices, closeFn := newCatalog(fs.loadConfig(), metrics.Noop{})
	defer closeFn()
	if err := cat.Load(context.Background()); err != nil {
		printNotices(notices)
		fail(err.Error())
	}

	records := catalog.View(cat.Snapshot(), filter, order)
	if *jsonOut {
		printJSON(records)
		return
	}
	printTable(records, cat.Stale())
}

func runShowCmd(args []string) {
	fs := newFlagSet("show")
	jsonOut := fs.Bool("json", false, "output full record JSON")
	reveal := fs.Bool("reveal", false, "print secret references unredacted")
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

	rec, ok := cat.Get(policy.ID(fs.Arg(0)))
	if !ok {
		fail("unknown policy id " + fs.Arg(0))
	}
	if !*reveal {
		if redacted, changed := secrets.RedactSecretRefs(rec.Document); changed {
			rec.Document = redacted
			fmt.Fprintln(os.Stderr, "warning: document contains secret references, use --reveal to print them")
		}
	}
	if *jsonOut {
		printJSON(rec)
		return
	}

	fmt.Printf("id:        %s\n", rec.ID)
	fmt.Printf("name:      %s\n", rec.Name)
	fmt.Printf("entity:    %s\n", rec.EntityName)
	fmt.Printf("platform:  %s\n", rec.Platform)
	fmt.Printf("risk:      %d\n", rec.RiskScore)
	fmt.Printf("vulnerable: %v\n", rec.IsVulnerable)
	for _, issue := range rec.FindingDetails.Issues {
		fmt.Printf("  finding: %s\n", issue)
	}
	doc, err := policy.EncodeDocument(rec.Document)
	check(err)
	fmt.Println("document:")
	fmt.Println(doc)
}

func runRefreshCmd(args []string) {
	fs := newFlagSet("refresh")
	fs.ParseArgs(args)

	cat, notices, closeFn := newCatalog(fs.loadConfig(), metrics.Noop{})
	defer closeFn()
	if err := cat.Reset(context.Background()); err != nil {
		printNotices(notices)
		fail(err.Error())
	}
	fmt.Printf("loaded %d policies\n", cat.Len())
}

func printTable(records []policy.Record, stale bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENTITY\tPLATFORM\tRISK\tVULNERABLE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%v\n",
			r.ID, r.Name, r.EntityName, r.Platform, r.RiskScore, r.IsVulnerable)
	}
	_ = w.Flush()
	if stale {
		fmt.Fprintln(os.Stderr, "warning: showing cached snapshot, store unreachable")
	}
}
