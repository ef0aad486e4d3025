// pkg/detect/sql.go
// Package detect is the stateless detection heuristics library. Every
// function here is pure: it inspects response bodies or headers and returns
// a classification, with no network I/O and no shared mutable state, so
// each heuristic is unit-testable against literal fixtures.
package detect

import "regexp"

// sqlErrorPatterns match database error signatures across common DBMS
// families. A match is a strong indicator that injected input reached a
// SQL statement.
var sqlErrorPatterns = []*regexp.Regexp{
	// MySQL / MariaDB
	regexp.MustCompile(`(?i)you have an error in your sql syntax`),
	regexp.MustCompile(`(?i)warning.*mysql_`),
	regexp.MustCompile(`(?i)mysql_fetch_`),
	regexp.MustCompile(`(?i)mysqli?_`),
	regexp.MustCompile(`(?i)sql syntax.*mysql`),
	// PostgreSQL
	regexp.MustCompile(`(?i)postgresql.*error`),
	regexp.MustCompile(`(?i)pg_query\(\)`),
	regexp.MustCompile(`(?i)pg::syntaxerror`),
	regexp.MustCompile(`(?i)error:\s*syntax error at or near`),
	// SQL Server
	regexp.MustCompile(`(?i)unclosed quotation mark after`),
	regexp.MustCompile(`(?i)odbc sql server driver`),
	regexp.MustCompile(`(?i)microsoft sql native client`),
	regexp.MustCompile(`(?i)msg \d+, level \d+, state \d+`),
	// Oracle
	regexp.MustCompile(`(?i)\bora-\d{4,}`),
	regexp.MustCompile(`(?i)quoted string not properly terminated`),
	// SQLite
	regexp.MustCompile(`(?i)sqlite.*error`),
	regexp.MustCompile(`(?i)\[sqlite_error\]`),
	// JDBC / ORM layers
	regexp.MustCompile(`(?i)java\.sql\.sqlexception`),
	regexp.MustCompile(`(?i)sqlstate\[\w+\]`),
}

// DetectSQLError reports whether body contains a database error signature
// and returns the first matched fragment as evidence. False means no known
// signature is present, not that the target is safe.
func DetectSQLError(body string) (bool, string) {
	if body == "" {
		return false, ""
	}
	for _, p := range sqlErrorPatterns {
		if m := p.FindString(body); m != "" {
			return true, m
		}
	}
	return false, ""
}
