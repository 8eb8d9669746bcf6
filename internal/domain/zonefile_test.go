package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/model"
)

func zoneLines(zone string) []string {
	var out []string
	for _, line := range strings.Split(zone, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	return out
}

func TestZoneFileGroupsAndRelativizes(t *testing.T) {
	records := []model.DNSRecord{
		{Type: "TXT", Name: "_dmarc.example.com", Value: "v=DMARC1; p=none"},
		{Type: "CNAME", Name: "abc._domainkey.example.com", Value: "abc.dkim.amazonses.com"},
		{Type: "MX", Name: "example.com", Value: "10 inbound-smtp.us-east-2.amazonaws.com"},
		{Type: "TXT", Name: "example.com", Value: "v=spf1 include:amazonses.com ~all"},
		{Type: "A", Name: "www.example.com", Value: "192.0.2.1"},
		{Type: "AAAA", Name: "@", Value: "2001:db8::1"},
	}

	zone := ZoneFile("Example.com.", records, 300)

	assert.True(t, strings.HasPrefix(zone, "; Zone file for example.com\n$ORIGIN example.com.\n$TTL 300\n"))
	assert.Equal(t, []string{
		"$ORIGIN example.com.",
		"$TTL 300",
		"@ 300 IN MX 10 inbound-smtp.us-east-2.amazonaws.com.",
		`_dmarc 300 IN TXT "v=DMARC1; p=none"`,
		`@ 300 IN TXT "v=spf1 include:amazonses.com ~all"`,
		"abc._domainkey 300 IN CNAME abc.dkim.amazonses.com.",
		"www 300 IN A 192.0.2.1",
		"@ 300 IN AAAA 2001:db8::1",
	}, zoneLines(zone))
}

func TestZoneFileDefaultsAndEdgeValues(t *testing.T) {
	records := []model.DNSRecord{
		{Type: "mx", Name: "", Value: "mx.example.net."},
		{Type: "TXT", Name: "other.org", Value: `say "hi"`},
		{Type: "TXT", Name: "quoted", Value: `"already"`},
	}

	lines := zoneLines(ZoneFile("example.com", records, 0))
	require.Len(t, lines, 5)
	assert.Equal(t, "$TTL 3600", lines[1])
	assert.Equal(t, "@ 3600 IN MX 10 mx.example.net.", lines[2])
	assert.Equal(t, `other.org. 3600 IN TXT "say \"hi\""`, lines[3])
	assert.Equal(t, `quoted 3600 IN TXT "already"`, lines[4])
}

func TestZoneFileSplitsLongTXT(t *testing.T) {
	long := strings.Repeat("k", 300)
	zone := ZoneFile("example.com", []model.DNSRecord{{Type: "TXT", Name: "dkim", Value: long}}, 60)

	want := `dkim 60 IN TXT "` + strings.Repeat("k", 255) + `" "` + strings.Repeat("k", 45) + `"`
	assert.Contains(t, zoneLines(zone), want)
}

func TestZoneFileEmpty(t *testing.T) {
	assert.Equal(t, []string{"$ORIGIN example.com.", "$TTL 3600"}, zoneLines(ZoneFile("example.com", nil, 0)))
}
