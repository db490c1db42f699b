package inventory

import (
	"sort"
	"strings"
	"time"
)

// Power states reported for hosts.
const (
	PowerIgnored    = "ignored"
	PowerPoweredOff = "poweredOff"
)

// RemovalAge is how long past expiry a host stays visible to provisioning.
const RemovalAge = 7 * 24 * time.Hour

// Query selects rows by column. A row matches when every queried column is
// equal to, or ends with, the queried value.
type Query map[string]string

// Host is the provisioning view of an inventory row.
type Host struct {
	Hostname   string            `json:"hostname" yaml:"hostname"`
	VApp       string            `json:"vapp" yaml:"vapp"`
	Template   string            `json:"template" yaml:"template"`
	Expires    string            `json:"expires" yaml:"expires"`
	Power      string            `json:"power" yaml:"power"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Hosts returns the hosts matching q as seen on day now. Hosts whose expiry
// has passed are reported powered off; hosts RemovalAge or more past expiry
// are left out entirely.
func (inv *Inventory) Hosts(q Query, now time.Time) ([]Host, error) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var hosts []Host
	for _, row := range inv.Rows {
		if !q.matches(row) {
			continue
		}

		expiry := today.AddDate(1, 0, 0)
		if row.Expires != "" {
			parsed, err := ParseExpiry(row.Expires, now.Location(), row.Hostname)
			if err != nil {
				return nil, err
			}
			expiry = parsed
		}

		overdue := today.Sub(expiry)
		if overdue >= RemovalAge {
			continue
		}

		power := PowerIgnored
		if overdue > 0 {
			power = PowerPoweredOff
		}

		hosts = append(hosts, Host{
			Hostname:   row.Hostname,
			VApp:       row.VApp,
			Template:   row.Template,
			Expires:    expiry.Format("2006-01-02"),
			Power:      power,
			Attributes: row.extraFields(),
		})
	}
	return hosts, nil
}

func (q Query) matches(row Row) bool {
	for col, want := range q {
		got := row.Fields[col]
		if got != want && !strings.HasSuffix(got, want) {
			return false
		}
	}
	return true
}

func (r Row) extraFields() map[string]string {
	var out map[string]string
	for k, v := range r.Fields {
		switch k {
		case ColumnVApp, ColumnHostname, ColumnTemplate, ColumnExpires:
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	return out
}

// TemplateNames returns the distinct templates of the inventory, sorted.
func (inv *Inventory) TemplateNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, row := range inv.Rows {
		if row.Template == "" || seen[row.Template] {
			continue
		}
		seen[row.Template] = true
		names = append(names, row.Template)
	}
	sort.Strings(names)
	return names
}
