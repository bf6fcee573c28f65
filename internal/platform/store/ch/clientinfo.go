package ch

import (
	"os"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"

	"peacekeeper/internal/core/version"
)

// ClientInfo names this process in system.query_log, e.g.
// "peacekeeper/v0.3.0 role/sweep commit/abc1234"
func ClientInfo(role string) clickhouse.ClientInfo {
	bi := version.Info()
	host, _ := os.Hostname()

	commit := bi.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}

	type product = struct{ Name, Version string }
	return clickhouse.ClientInfo{Products: []product{
		{Name: "peacekeeper", Version: orUnknown(bi.Version)},
		{Name: "role", Version: orUnknown(role)},
		{Name: "commit", Version: orUnknown(commit)},
		{Name: "host", Version: orUnknown(host)},
	}}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
