package netif

import (
	"context"
	"sort"
	"strings"

	"emperror.dev/errors"
	psnet "github.com/shirou/gopsutil/net"
)

// ErrUnknownInterface is returned when a requested interface is not present
// on the host.
var ErrUnknownInterface = errors.NewPlain("unknown network interface")

// ErrNoInterfaces is returned when no interface was requested.
var ErrNoInterfaces = errors.NewPlain("no network interfaces selected")

// Available returns the names of the network interfaces known to the kernel,
// sorted by name.
func Available(ctx context.Context) ([]string, error) {
	counters, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "error listing network interfaces")
	}

	names := make([]string, 0, len(counters))
	for _, c := range counters {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Parse splits a comma separated interface list, trimming blanks and
// dropping duplicates while keeping the first occurrence order.
func Parse(list string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Select validates requested against available and returns the requested
// interfaces in order. Every unknown interface is reported.
func Select(requested, available []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, errors.Wrapf(ErrNoInterfaces, "available: %s", strings.Join(available, ", "))
	}

	known := make(map[string]struct{}, len(available))
	for _, name := range available {
		known[name] = struct{}{}
	}

	var unknown []string
	for _, name := range requested {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, errors.Wrapf(ErrUnknownInterface, "%s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(available, ", "))
	}
	return requested, nil
}
