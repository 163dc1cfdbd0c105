package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fwbuilder-report/internal/parser"
)

func loadOffice(t *testing.T) *parser.Document {
	t.Helper()
	doc, err := parser.ParseFile("testdata/office.fwb")
	require.NoError(t, err)
	return doc
}

func mustNode(t *testing.T, doc *parser.Document, id string) *parser.Node {
	t.Helper()
	n, err := doc.FindByID(id)
	require.NoError(t, err)
	return n
}

func parseInline(t *testing.T, body string) *parser.Document {
	t.Helper()
	doc, err := parser.Parse(strings.NewReader(`<FWObjectDatabase xmlns="http://www.fwbuilder.org/1.0/" id="root">` + body + `</FWObjectDatabase>`))
	require.NoError(t, err)
	return doc
}

func TestAddressesNetworkAndHost(t *testing.T) {
	doc := loadOffice(t)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	// Src wrapper of r2 points at the lan network: address plus netmask.
	rule := mustNode(t, doc, "r2")
	got, err := r.Addresses(rule.Child("Src"))
	require.NoError(t, err)
	require.Equal(t, []string{"lan <tt>192.168.1.0/255.255.255.0</tt> <em>(office LAN)</em>"}, got)

	// Host with only an address renders without a slash.
	rule = mustNode(t, doc, "r1")
	got, err = r.Addresses(rule.Child("Dst"))
	require.NoError(t, err)
	require.Equal(t, []string{"web1 <tt>10.0.0.5</tt>"}, got)
}

func TestAddressesOfLeafObjects(t *testing.T) {
	doc := loadOffice(t)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	got, err := r.Addresses(mustNode(t, doc, "n-lan"))
	require.NoError(t, err)
	require.Equal(t, []string{"lan <tt>192.168.1.0/255.255.255.0</tt> <em>(office LAN)</em>"}, got)

	got, err = r.Addresses(mustNode(t, doc, "h-web1"))
	require.NoError(t, err)
	require.Equal(t, []string{"web1 <tt>10.0.0.5</tt>"}, got)

	// No address attribute: the interface addresses describe the host.
	got, err = r.Addresses(mustNode(t, doc, "h-db"))
	require.NoError(t, err)
	require.Equal(t, []string{"db1 <tt>10.0.0.9</tt>"}, got)
}

func TestAddressesOfInlineLeaves(t *testing.T) {
	doc := parseInline(t, `<Network id="n" name="lan" address="10.0.0.0" netmask="255.0.0.0"/>
		<Host id="h" name="web1" address="10.0.0.5"/>`)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	got, err := r.Addresses(mustNode(t, doc, "n"))
	require.NoError(t, err)
	require.Equal(t, []string{"lan <tt>10.0.0.0/255.0.0.0</tt>"}, got)

	got, err = r.Addresses(mustNode(t, doc, "h"))
	require.NoError(t, err)
	require.Equal(t, []string{"web1 <tt>10.0.0.5</tt>"}, got)
}

func TestAddressesFlattensNestedGroups(t *testing.T) {
	doc := loadOffice(t)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	got, err := r.Addresses(mustNode(t, doc, "g-servers"))
	require.NoError(t, err)
	require.Equal(t, []string{"web1 <tt>10.0.0.5</tt>", "db1 <tt>10.0.0.9</tt>"}, got)
}

func TestAddressesAnyOverridesSiblings(t *testing.T) {
	doc := loadOffice(t)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	got, err := r.Addresses(mustNode(t, doc, "g-wide"))
	require.NoError(t, err)
	require.Equal(t, []string{AnyAddress}, got)

	got, err = r.Addresses(mustNode(t, doc, "sysid0"))
	require.NoError(t, err)
	require.Equal(t, []string{AnyAddress}, got)

	// One level further down the override stays local to the group that
	// contains the universal object.
	doc = parseInline(t, `
		<AnyNetwork id="sysid0" name="Any"/>
		<Host id="a" name="a" address="10.0.0.1"/>
		<Host id="b" name="b" address="10.0.0.2"/>
		<ObjectGroup id="inner" name="inner"><ObjectRef ref="b"/><ObjectRef ref="sysid0"/></ObjectGroup>
		<ObjectGroup id="outer" name="outer"><ObjectRef ref="a"/><ObjectRef ref="inner"/></ObjectGroup>`)
	r = NewRenderer(doc, Options{Firewall: "gw"})
	got, err = r.Addresses(mustNode(t, doc, "outer"))
	require.NoError(t, err)
	require.Equal(t, []string{"a <tt>10.0.0.1</tt>", AnyAddress}, got)
}

func TestAddressesFirewallsAndTables(t *testing.T) {
	doc := loadOffice(t)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	got, err := r.Addresses(mustNode(t, doc, "fw1"))
	require.NoError(t, err)
	require.Equal(t, []string{"The server on which this firewall is deployed"}, got)

	got, err = r.Addresses(mustNode(t, doc, "fw2"))
	require.NoError(t, err)
	require.Equal(t, []string{"The firewall branch-office"}, got)

	got, err = r.Addresses(mustNode(t, doc, "at-block"))
	require.NoError(t, err)
	require.Equal(t, []string{"Address table <tt>/etc/fw/block.txt</tt> loaded from the firewall"}, got)

	doc = parseInline(t, `<AddressTable id="t" name="t" filename="static.txt" run_time="False"/>`)
	r = NewRenderer(doc, Options{Firewall: "gw"})
	got, err = r.Addresses(mustNode(t, doc, "t"))
	require.NoError(t, err)
	require.Equal(t, []string{"Address table <tt>static.txt</tt> loaded during compile time"}, got)
}

func TestAddressesToleratesMissingAttributes(t *testing.T) {
	doc := parseInline(t, `
		<Host id="h" address="10.9.9.9"/>
		<ObjectGroup id="g"><ObjectRef ref="h"/></ObjectGroup>`)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	got, err := r.Addresses(mustNode(t, doc, "g"))
	require.NoError(t, err)
	require.Equal(t, []string{" <tt>10.9.9.9</tt>"}, got)
}

func TestAddressesEscapesMarkup(t *testing.T) {
	doc := parseInline(t, `
		<Host id="h" name="R&amp;D" address="10.0.0.1" comment="  &lt;lab&gt; "/>
		<ObjectGroup id="g"><ObjectRef ref="h"/></ObjectGroup>`)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	got, err := r.Addresses(mustNode(t, doc, "g"))
	require.NoError(t, err)
	require.Equal(t, []string{"R&amp;D <tt>10.0.0.1</tt> <em>(&lt;lab&gt;)</em>"}, got)
}

func TestAddressesDetectsGroupCycles(t *testing.T) {
	doc := parseInline(t, `
		<ObjectGroup id="A" name="A"><ObjectRef ref="B"/></ObjectGroup>
		<ObjectGroup id="B" name="B"><ObjectRef ref="A"/></ObjectGroup>`)
	r := NewRenderer(doc, Options{Firewall: "gw"})

	_, err := r.Addresses(mustNode(t, doc, "A"))
	var refErr *parser.ReferenceError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, parser.ReasonCycle, refErr.Reason)
}

func TestServiceDescriptions(t *testing.T) {
	doc := parseInline(t, `
		<TCPService id="ssh" name="ssh" dst_range_start="22" dst_range_end="22"/>
		<TCPService id="admin" name="admin" dst_range_start="22" dst_range_end="22" src_range_start="1024" src_range_end="65535"/>
		<TCPService id="web" name="web-alt" dst_range_start="8000" dst_range_end="8080"/>
		<UDPService id="ntp" name="time" dst_range_start="123" dst_range_end="123"/>
		<ICMPService id="ping" name="ping" type="8" code="0"/>
		<ICMPService id="icmp" name="all icmp" type="-1" code="-1"/>
		<IPService id="gre" name="gre" protocol_num="47"/>
		<AnyIPService id="sysid1" name="Any"/>
		<ServiceGroup id="grp" name="grp"><ServiceRef ref="ssh"/><ServiceRef ref="ntp"/></ServiceGroup>`)
	r := NewRenderer(doc, Options{Firewall: "gw", Services: true})

	cases := map[string][]string{
		"ssh":    {"ssh <tt>tcp/22</tt>"},
		"admin":  {"admin <tt>tcp/22</tt> [ssh] from source port <tt>1024-65535</tt>"},
		"web":    {"web-alt <tt>tcp/8000-8080</tt>"},
		"ntp":    {"time <tt>udp/123</tt> [ntp]"},
		"ping":   {"ping <tt>icmp type 8 code 0</tt>"},
		"icmp":   {"all icmp <tt>icmp any</tt>"},
		"gre":    {"gre <tt>ip proto 47</tt>"},
		"sysid1": {AnyService},
		"grp":    {"ssh <tt>tcp/22</tt>", "time <tt>udp/123</tt> [ntp]"},
	}
	for id, want := range cases {
		got, err := r.ServiceDescriptions(mustNode(t, doc, id))
		require.NoError(t, err, id)
		require.Equal(t, want, got, id)
	}
}
