package filter

import (
	"strings"

	"github.com/amishk599/jobboard/internal/model"
)

// CatalogFilter narrows the public job list. Search is a case-insensitive
// substring match over title and description; Department and Location must
// match exactly. Empty fields are treated as "no restriction".
type CatalogFilter struct {
	Search     string
	Department string
	Location   string
}

// NewCatalogFilter returns a filter with "all" normalized to no restriction,
// matching what the public dropdowns send.
func NewCatalogFilter(search, department, location string) CatalogFilter {
	return CatalogFilter{
		Search:     strings.TrimSpace(search),
		Department: unlessAll(department),
		Location:   unlessAll(location),
	}
}

// Match returns true if the job passes every non-empty criterion.
func (f CatalogFilter) Match(job model.Job) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(job.Title), term) &&
			!strings.Contains(strings.ToLower(job.Description), term) {
			return false
		}
	}
	if f.Department != "" && job.Department != f.Department {
		return false
	}
	if f.Location != "" && job.Location != f.Location {
		return false
	}
	return true
}

// Apply returns the matching jobs in input order.
func (f CatalogFilter) Apply(jobs []model.Job) []model.Job {
	var out []model.Job
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

// Departments returns the distinct departments in order of first appearance.
func Departments(jobs []model.Job) []string {
	return distinct(jobs, func(j model.Job) string { return j.Department })
}

// Locations returns the distinct locations in order of first appearance.
func Locations(jobs []model.Job) []string {
	return distinct(jobs, func(j model.Job) string { return j.Location })
}

// ApplicationFilter narrows the admin review list by status and job.
type ApplicationFilter struct {
	Status model.Status
	JobID  string
}

// NewApplicationFilter parses the raw query values; "all" or "" mean no restriction.
func NewApplicationFilter(status, jobID string) (ApplicationFilter, error) {
	var f ApplicationFilter
	if s := unlessAll(status); s != "" {
		st, err := model.ParseStatus(s)
		if err != nil {
			return ApplicationFilter{}, err
		}
		f.Status = st
	}
	f.JobID = unlessAll(jobID)
	return f, nil
}

// Store converts the filter into the gateway's query form.
func (f ApplicationFilter) Store() model.ApplicationFilter {
	return model.ApplicationFilter{Status: f.Status, JobID: f.JobID}
}

func distinct(jobs []model.Job, key func(model.Job) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, j := range jobs {
		k := key(j)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func unlessAll(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
