package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/TamimulAhsan/sentineliam/core/catalog"
	"github.com/TamimulAhsan/sentineliam/core/infra/buildinfo"
	"github.com/TamimulAhsan/sentineliam/core/infra/bus"
	"github.com/TamimulAhsan/sentineliam/core/infra/config"
	"github.com/TamimulAhsan/sentineliam/core/infra/logging"
	"github.com/TamimulAhsan/sentineliam/core/infra/memory"
	"github.com/TamimulAhsan/sentineliam/core/infra/metrics"
	"github.com/TamimulAhsan/sentineliam/core/notify"
	sdk "github.com/TamimulAhsan/sentineliam/sdk/client"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "list":
		runListCmd(args)
	case "show":
		runShowCmd(args)
	case "edit":
		runEditCmd(args)
	case "delete":
		runDeleteCmd(args)
	case "refresh":
		runRefreshCmd(args)
	case "watch":
		runWatchCmd(args)
	case "version":
		fmt.Println(buildinfo.Info())
	default:
		usage()
		os.Exit(1)
	}
}

type flagSet struct {
	*flag.FlagSet
	apiURL     *string
	token      *string
	configPath *string
}

func newFlagSet(name string) *flagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	apiURL := fs.String("api-url", "", "policy store base url (default from SENTINEL_API_URL)")
	token := fs.String("token", "", "bearer token (default from SENTINEL_API_TOKEN)")
	configPath := fs.String("config", envOr("SENTINEL_CONFIG", ""), "config file path")
	return &flagSet{FlagSet: fs, apiURL: apiURL, token: token, configPath: configPath}
}

func (fs *flagSet) ParseArgs(args []string) {
	if err := fs.Parse(args); err != nil {
		fail(err.Error())
	}
}

// loadConfig resolves config in precedence order: flags, environment, file.
func (fs *flagSet) loadConfig() *config.Config {
	var cfg *config.Config
	if *fs.configPath != "" {
		loaded, err := config.LoadFile(*fs.configPath)
		check(err)
		cfg = loaded
	} else {
		cfg = config.Load()
	}
	if *fs.apiURL != "" {
		cfg.APIBaseURL = strings.TrimRight(*fs.apiURL, "/")
	}
	if *fs.token != "" {
		cfg.APIToken = *fs.token
	}
	return cfg
}

// newCatalog wires a catalog over the configured store. The snapshot cache,
// event bus, and metrics are optional collaborators keyed off the config.
func newCatalog(cfg *config.Config, m metrics.Metrics) (*catalog.Catalog, *notify.Center, func()) {
	store := sdk.New(cfg.APIBaseURL, sdk.StaticToken(cfg.APIToken))
	if prom, ok := m.(*metrics.Prom); ok {
		store.Observer = prom
	}

	notices := notify.NewCenter()
	opts := catalog.Options{Metrics: m, Notices: notices}

	var closers []func()
	if cfg.RedisURL != "" {
		cache, err := memory.NewRedisSnapshotCache(cfg.RedisURL)
		if err != nil {
			logging.Warn("sentinelctl", "snapshot cache unavailable", "error", err.Error())
		} else {
			opts.Cache = cache
			closers = append(closers, func() { _ = cache.Close() })
		}
	}
	if cfg.NatsURL != "" {
		nb, err := bus.NewNatsBus(cfg.NatsURL)
		if err != nil {
			logging.Warn("sentinelctl", "event bus unavailable", "error", err.Error())
		} else {
			opts.Events = nb
			closers = append(closers, nb.Close)
		}
	}

	closeFn := func() {
		for _, c := range closers {
			c()
		}
	}
	return catalog.New(store, opts), notices, closeFn
}

// printNotices drains failure notices to stderr so a CLI run never swallows
// a store error message.
func printNotices(notices *notify.Center) {
	for _, n := range notices.List() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", n.Level, n.Message)
	}
}

func printJSON(value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	check(err)
	fmt.Println(string(data))
}

func usage() {
	fmt.Print(`sentinelctl - policy catalog CLI

Usage:
  sentinelctl list [--search text] [--platform aws,gcp] [--min-risk n] [--max-risk n] [--sort desc|asc] [--json]
  sentinelctl show <policy_id> [--json] [--reveal]
  sentinelctl edit <policy_id> --file document.json
  sentinelctl delete <policy_id>
  sentinelctl refresh
  sentinelctl watch [--interval 30s] [--metrics]
  sentinelctl version

Global flags:
  --api-url   Policy store base URL (default from SENTINEL_API_URL)
  --token     Bearer token (default from SENTINEL_API_TOKEN)
  --config    Config file path (default from SENTINEL_CONFIG)
`)
}

func envOr(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func check(err error) {
	if err != nil {
		fail(err.Error())
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
