package pipeline

import (
	"sort"
	"strings"
)

// Group is the aggregated reminder set for one tenant.
type Group struct {
	Tenant Tenant
	Items  []LineItem
}

// Aggregate groups due reminders by tenant email (case-insensitive)
// into one line-item list per tenant. The same (payment, occurrence,
// tenant) combination reached through more than one path collapses to
// a single item. Items are sorted by occurrence date ascending, then
// payment name; groups come back sorted by email so output order is
// deterministic.
func Aggregate(due []DueReminder) []Group {
	byEmail := make(map[string]*Group)
	seen := make(map[string]struct{})
	var order []string

	for _, d := range due {
		email := strings.ToLower(strings.TrimSpace(d.Tenant.Email))
		if email == "" {
			continue
		}

		itemKey := d.Payment.ID + "|" + d.Date.Format("2006-01-02") + "|" + email
		if _, dup := seen[itemKey]; dup {
			continue
		}
		seen[itemKey] = struct{}{}

		g, ok := byEmail[email]
		if !ok {
			g = &Group{Tenant: Tenant{Name: d.Tenant.Name, Email: email}}
			byEmail[email] = g
			order = append(order, email)
		}
		if g.Tenant.Name == "" {
			g.Tenant.Name = d.Tenant.Name
		}
		g.Items = append(g.Items, LineItem{
			PaymentID:   d.Payment.ID,
			Name:        d.Payment.Name,
			Description: d.Payment.Description,
			Amount:      d.Payment.Amount,
			Date:        d.Date,
		})
	}

	sort.Strings(order)
	groups := make([]Group, 0, len(order))
	for _, email := range order {
		g := byEmail[email]
		sort.SliceStable(g.Items, func(i, j int) bool {
			if !g.Items[i].Date.Equal(g.Items[j].Date) {
				return g.Items[i].Date.Before(g.Items[j].Date)
			}
			return g.Items[i].Name < g.Items[j].Name
		})
		groups = append(groups, *g)
	}
	return groups
}
