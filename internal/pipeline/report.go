package pipeline

import "time"

// Result is the outcome of one tenant's dispatch. Err is empty when
// the notification was delivered.
type Result struct {
	Tenant Tenant `json:"tenant"`
	Items  int    `json:"items"`
	Err    string `json:"error,omitempty"`
}

// Report summarises one run: what was computed, what was skipped and
// how dispatch went per tenant.
type Report struct {
	RunID           string        `json:"run_id"`
	Today           time.Time     `json:"today"`
	Started         time.Time     `json:"started"`
	Duration        time.Duration `json:"duration"`
	Payments        int           `json:"payments"`
	SkippedPayments int           `json:"skipped_payments"`
	DueReminders    int           `json:"due_reminders"`
	Suppressed      int           `json:"suppressed"`
	Delivered       int           `json:"delivered"`
	Failed          int           `json:"failed"`
	Results         []Result      `json:"results,omitempty"`
}
