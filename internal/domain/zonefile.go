package domain

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/nhle/inboundkit/internal/model"
)

// DefaultTTL is used when ZoneFile is given a non-positive ttl.
const DefaultTTL = 3600

// maxTXTChunk is the longest character-string a TXT record may carry.
const maxTXTChunk = 255

// groupOrder lists the record types emitted first, in order. Any other
// type follows alphabetically.
var groupOrder = []string{"MX", "TXT", "CNAME"}

// ZoneFile renders records as an RFC 1035 master file for the zone
// origin. Records are grouped by type, names are made relative to the
// origin ("@" for the apex), MX and CNAME targets are made absolute and
// TXT data is quoted.
func ZoneFile(origin string, records []model.DNSRecord, ttl int) string {
	origin = Normalize(origin)
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	groups := make(map[string][]model.DNSRecord)
	for _, r := range records {
		t := strings.ToUpper(strings.TrimSpace(r.Type))
		groups[t] = append(groups[t], r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "; Zone file for %s\n", origin)
	fmt.Fprintf(&b, "$ORIGIN %s.\n", origin)
	fmt.Fprintf(&b, "$TTL %d\n", ttl)

	for _, t := range typeOrder(groups) {
		fmt.Fprintf(&b, "\n; %s records\n", t)
		tw := tabwriter.NewWriter(&b, 0, 8, 1, '\t', 0)
		for _, r := range groups[t] {
			fmt.Fprintf(tw, "%s\t%d\tIN\t%s\t%s\n",
				relativeName(r.Name, origin), ttl, t, recordData(t, r.Value))
		}
		tw.Flush()
	}

	return b.String()
}

func typeOrder(groups map[string][]model.DNSRecord) []string {
	var order []string
	seen := make(map[string]bool)
	for _, t := range groupOrder {
		if len(groups[t]) > 0 {
			order = append(order, t)
			seen[t] = true
		}
	}

	var rest []string
	for t := range groups {
		if !seen[t] {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// relativeName expresses name relative to origin. Names outside the
// zone are written fully qualified.
func relativeName(name, origin string) string {
	name = Normalize(name)
	switch {
	case name == "" || name == "@" || name == origin:
		return "@"
	case strings.HasSuffix(name, "."+origin):
		return strings.TrimSuffix(name, "."+origin)
	case strings.Contains(name, "."):
		return name + "."
	default:
		return name
	}
}

func recordData(rtype, value string) string {
	value = strings.TrimSpace(value)
	switch rtype {
	case "MX":
		fields := strings.Fields(value)
		if len(fields) >= 2 {
			return fields[0] + " " + absolute(fields[1])
		}
		return "10 " + absolute(value)
	case "CNAME", "NS", "PTR":
		return absolute(value)
	case "TXT", "SPF":
		return quoteTXT(value)
	default:
		return value
	}
}

func absolute(host string) string {
	if host == "" || strings.HasSuffix(host, ".") {
		return host
	}
	return host + "."
}

// quoteTXT quotes value as one or more character-strings, splitting at
// 255 bytes. Already-quoted input is kept as is.
func quoteTXT(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value
	}

	escape := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	var parts []string
	for len(value) > maxTXTChunk {
		parts = append(parts, `"`+escape.Replace(value[:maxTXTChunk])+`"`)
		value = value[maxTXTChunk:]
	}
	parts = append(parts, `"`+escape.Replace(value)+`"`)
	return strings.Join(parts, " ")
}
