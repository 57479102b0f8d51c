package hiring

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Page sizes used when a list request leaves pageSize unset, and the cap
// applied to any request.
const (
	DefaultJobPageSize       = 10
	DefaultCandidatePageSize = 20
	MaxPageSize              = 1000
)

// JobSort selects the ordering of a job list.
type JobSort string

const (
	SortManual  JobSort = "order"
	SortTitle   JobSort = "title"
	SortCreated JobSort = "created"
)

// JobQuery holds the filters and paging of GET /jobs.
type JobQuery struct {
	Search   string
	Status   JobStatus
	Sort     JobSort
	Page     int
	PageSize int
}

// Values encodes q as the query string of GET /jobs, omitting zero fields.
func (q JobQuery) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "search", q.Search)
	setNonEmpty(v, "status", string(q.Status))
	setNonEmpty(v, "sort", string(q.Sort))
	setPositive(v, "page", q.Page)
	setPositive(v, "pageSize", q.PageSize)
	return v
}

// Match reports whether j passes the status and search filters.
func (q JobQuery) Match(j Job) bool {
	if q.Status != "" && j.Status != q.Status {
		return false
	}
	return j.MatchesSearch(q.Search)
}

// CandidateQuery holds the filters and paging of GET /candidates.
type CandidateQuery struct {
	Search   string
	Stage    Stage
	JobID    int64
	Page     int
	PageSize int
}

// Values encodes q as the query string of GET /candidates.
func (q CandidateQuery) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "search", q.Search)
	setNonEmpty(v, "stage", string(q.Stage))
	if q.JobID > 0 {
		v.Set("jobId", strconv.FormatInt(q.JobID, 10))
	}
	setPositive(v, "page", q.Page)
	setPositive(v, "pageSize", q.PageSize)
	return v
}

// Match reports whether c passes the stage, job and search filters.
func (q CandidateQuery) Match(c Candidate) bool {
	if q.Stage != "" && c.Stage != q.Stage {
		return false
	}
	if q.JobID > 0 && c.JobID != q.JobID {
		return false
	}
	return c.MatchesSearch(q.Search)
}

func setNonEmpty(v url.Values, key, val string) {
	if strings.TrimSpace(val) != "" {
		v.Set(key, val)
	}
}

func setPositive(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}

// Pagination describes the page returned next to a list.
type Pagination struct {
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
}

// Page is the envelope of every list endpoint.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Paginate slices items for the 1-based page. Non-positive page or pageSize
// fall back to 1 and defaultSize. A page past the end is empty.
func Paginate[T any](items []T, page, pageSize, defaultSize int) Page[T] {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	total := len(items)
	p := Pagination{
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
		Page:       page,
		PageSize:   pageSize,
	}

	// Compare pages before multiplying so a huge page cannot overflow start.
	if page > p.TotalPages {
		return Page[T]{Data: []T{}, Pagination: p}
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	return Page[T]{Data: append([]T(nil), items[start:end]...), Pagination: p}
}

// SortJobs orders jobs in place. The manual order puts active jobs before
// archived ones, each group by ascending Order; "created" is newest first.
func SortJobs(jobs []Job, by JobSort) {
	switch by {
	case SortTitle:
		sort.SliceStable(jobs, func(i, k int) bool {
			return strings.ToLower(jobs[i].Title) < strings.ToLower(jobs[k].Title)
		})
	case SortCreated:
		sort.SliceStable(jobs, func(i, k int) bool {
			return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
		})
	default:
		sort.SliceStable(jobs, func(i, k int) bool {
			ai, ak := jobs[i].Status == JobArchived, jobs[k].Status == JobArchived
			if ai != ak {
				return !ai
			}
			if jobs[i].Order != jobs[k].Order {
				return jobs[i].Order < jobs[k].Order
			}
			return jobs[i].ID < jobs[k].ID
		})
	}
}

// SortCandidates orders candidates by id, the stable paging order.
func SortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, k int) bool { return cs[i].ID < cs[k].ID })
}

// SortTimeline orders events oldest first, ties broken by id.
func SortTimeline(events []TimelineEvent) {
	sort.SliceStable(events, func(i, k int) bool {
		if !events[i].Timestamp.Equal(events[k].Timestamp) {
			return events[i].Timestamp.Before(events[k].Timestamp)
		}
		return events[i].ID < events[k].ID
	})
}
