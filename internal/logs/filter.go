package logs

import (
	"strings"
)

// JobFilter keeps the records of one job. It matches console headers that
// name the job's short id together with their indented field lines, and JSON
// records whose job_id starts with the given id.
type JobFilter struct {
	id      string
	short   string
	inBlock bool
}

// NewJobFilter builds a filter for a full job id or an id prefix.
func NewJobFilter(id string) *JobFilter {
	id = strings.TrimSpace(id)
	short, _, _ := strings.Cut(id, "-")
	return &JobFilter{id: id, short: short}
}

// Keep reports whether line belongs to the job.
func (f *JobFilter) Keep(line string) bool {
	if f == nil || f.id == "" {
		return true
	}
	if strings.HasPrefix(line, "    ") {
		return f.inBlock
	}
	f.inBlock = f.matchesHeader(line) || f.matchesJSON(line)
	return f.inBlock
}

func (f *JobFilter) matchesHeader(line string) bool {
	idx := strings.Index(line, " job "+f.short)
	if idx < 0 {
		return false
	}
	rest := line[idx+len(" job ")+len(f.short):]
	return rest == "" || rest[0] == ' '
}

func (f *JobFilter) matchesJSON(line string) bool {
	return strings.HasPrefix(line, "{") && strings.Contains(line, `"job_id":"`+f.id)
}
