// Package bind translates cobra flags into scan parameters. Keeping the
// flag parsing here leaves the command files free of validation noise and
// makes the translation testable without running a command.
package bind

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tenprobe/tenprobe/pkg/config"
	"github.com/tenprobe/tenprobe/pkg/scanexec"
)

// BindScanOptions builds scan parameters from the command's flags, falling
// back to the merged configuration for anything the user did not set on
// the command line.
func BindScanOptions(cmd *cobra.Command, target string, defaults config.ScanConfig) (scanexec.Params, error) {
	flags := cmd.Flags()

	params := scanexec.Params{
		Target:          target,
		RequestTimeout:  defaults.RequestTimeout,
		ScanTimeout:     defaults.Timeout,
		MaxPayloads:     defaults.MaxPayloads,
		Concurrency:     defaults.Concurrency,
		FollowRedirects: defaults.FollowRedirects,
		Preflight:       defaults.Preflight,
	}

	rawHeaders, err := flags.GetStringArray("header")
	if err != nil {
		return scanexec.Params{}, err
	}
	headers, err := parseHeaders(rawHeaders)
	if err != nil {
		return scanexec.Params{}, err
	}
	params.Headers = headers

	bearer, err := flags.GetString("bearer-token")
	if err != nil {
		return scanexec.Params{}, err
	}
	basicAuth, err := flags.GetString("basic-auth")
	if err != nil {
		return scanexec.Params{}, err
	}
	if bearer != "" && basicAuth != "" {
		return scanexec.Params{}, fmt.Errorf("--bearer-token and --basic-auth are mutually exclusive")
	}
	params.BearerToken = bearer
	if basicAuth != "" {
		user, password, found := strings.Cut(basicAuth, ":")
		if !found || user == "" {
			return scanexec.Params{}, fmt.Errorf("--basic-auth must be user:password")
		}
		params.BasicUser = user
		params.BasicPassword = password
	}

	if flags.Changed("timeout") {
		params.ScanTimeout, err = flags.GetDuration("timeout")
		if err != nil {
			return scanexec.Params{}, err
		}
	}
	if flags.Changed("request-timeout") {
		params.RequestTimeout, err = flags.GetDuration("request-timeout")
		if err != nil {
			return scanexec.Params{}, err
		}
	}
	if flags.Changed("max-payloads") {
		params.MaxPayloads, err = flags.GetInt("max-payloads")
		if err != nil {
			return scanexec.Params{}, err
		}
	}
	if flags.Changed("concurrency") {
		params.Concurrency, err = flags.GetInt("concurrency")
		if err != nil {
			return scanexec.Params{}, err
		}
	}
	if flags.Changed("follow-redirects") {
		params.FollowRedirects, err = flags.GetBool("follow-redirects")
		if err != nil {
			return scanexec.Params{}, err
		}
	}
	if flags.Changed("preflight") {
		params.Preflight, err = flags.GetBool("preflight")
		if err != nil {
			return scanexec.Params{}, err
		}
	}

	return params, nil
}

// parseHeaders converts repeated "Name: value" flags into a header map.
// A later flag with the same name overrides an earlier one.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, found := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: value\"", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
