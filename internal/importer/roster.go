package importer

import (
	"strings"

	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/model"
)

// RosterColumns are required in a candidate roster file.
var RosterColumns = []string{"candidate_id", "first_name", "last_name"}

// ParseRoster reads a candidate roster for jobID. A job_id column, when
// present and non-empty, overrides jobID for that row. Phones are
// normalized and emails lowercased; invalid emails are dropped.
func ParseRoster(content, jobID string) ([]model.Candidate, error) {
	rows, err := contact.ParseRecords(content, RosterColumns)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	out := make([]model.Candidate, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		id := row.Get("candidate_id")
		if id == "" {
			continue
		}
		c := model.Candidate{
			ID:             id,
			JobID:          jobID,
			FirstName:      row.Get("first_name"),
			LastName:       row.Get("last_name"),
			Specialty:      row.Get("specialty"),
			City:           row.Get("city"),
			State:          row.Get("state"),
			Tier:           strings.ToUpper(row.Get("tier")),
			WorkEmail:      cleanEmail(row.Get("work_email")),
			WorkPhone:      contact.NormalizePhoneString(row.Get("work_phone")),
			PersonalEmail:  cleanEmail(row.Get("personal_email")),
			PersonalMobile: contact.NormalizePhoneString(row.Get("personal_mobile", "personal_phone")),
		}
		if j := row.Get("job_id"); j != "" {
			c.JobID = j
		}
		c.EnrichmentNeeded = c.NeedsEnrichment()

		// Later rows for the same id win.
		if i, dup := seen[id]; dup {
			out[i] = c
			continue
		}
		seen[id] = len(out)
		out = append(out, c)
	}
	return out, nil
}

func cleanEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !contact.ValidateEmail(s) {
		return ""
	}
	return s
}
