package gateway

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/workdesk/internal/domain/project"
	"github.com/rpggio/workdesk/internal/domain/role"
	"github.com/rpggio/workdesk/internal/domain/task"
	"github.com/rpggio/workdesk/internal/domain/user"
)

// PlaceholderPrefix marks ids generated for records the server sent without one.
const PlaceholderPrefix = "tmp-"

type repairer func(rec map[string]any, now time.Time)

var repairers = map[Resource]repairer{
	Companies:   repairCompany,
	Departments: repairDepartment,
	Users:       repairUser,
	Roles:       repairRole,
	Projects:    repairProject,
	Tasks:       repairTask,
}

// Repair fills defaults on a remote record so it always decodes into the
// resource's type. It never rejects a record and is idempotent.
func Repair(res Resource, rec map[string]any, now time.Time) {
	ensureID(rec)
	ensureString(rec, "name", "")
	if fn, ok := repairers[res]; ok {
		fn(rec, now)
	}
}

func repairCompany(rec map[string]any, _ time.Time) {
	ensureString(rec, "ownerId", "")
	ensureString(rec, "createdAt", "")
}

func repairDepartment(rec map[string]any, now time.Time) {
	ensureStringSlice(rec, "companyIds", "companyId")
	ensureString(rec, "createdAt", "")
	ensureString(rec, "timestamp", "")
	if rec["timestamp"] == "" {
		if created, _ := rec["createdAt"].(string); created != "" {
			rec["timestamp"] = created
		} else {
			rec["timestamp"] = now.UTC().Format(time.RFC3339)
		}
	}
}

func repairUser(rec map[string]any, _ time.Time) {
	ensureString(rec, "email", "")
	ensureString(rec, "createdAt", "")
	ensureStringSlice(rec, "departmentIds", "departmentId")
	ensureStringSlice(rec, "companyIds", "companyId")
	ensureStringSlice(rec, "managerIds", "managerId")
	r, _ := rec["role"].(string)
	parsed, ok := user.ParseRole(r)
	if !ok {
		parsed = user.RoleEmployee
	}
	rec["role"] = string(parsed)
	rating := clamp(toFloat(rec["rating"]), user.MinRating, user.MaxRating)
	rec["rating"] = rating
	delete(rec, "stats")
}

func repairRole(rec map[string]any, _ time.Time) {
	ensureString(rec, "description", "")
	ensureStringSlice(rec, "permissions", "")
	ensureString(rec, "color", role.DefaultColor)
	ensureString(rec, "bgColor", role.DefaultBgColor)
	if rec["color"] == "" {
		rec["color"] = role.DefaultColor
	}
	if rec["bgColor"] == "" {
		rec["bgColor"] = role.DefaultBgColor
	}
	ensureString(rec, "createdAt", "")
	ensureString(rec, "updatedAt", "")
	ensureString(rec, "createdBy", "")
}

func repairProject(rec map[string]any, _ time.Time) {
	ensureString(rec, "companyId", "")
	ensureString(rec, "managerId", "")
	ensureString(rec, "createdAt", "")
	ensureStringSlice(rec, "departmentIds", "departmentId")

	list, _ := rec["roadmap"].([]any)
	roadmap := make([]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ensureID(m)
		for _, key := range []string{"name", "description", "startDate", "endDate"} {
			ensureString(m, key, "")
		}
		status, _ := m["status"].(string)
		switch project.MilestoneStatus(strings.ToUpper(status)) {
		case project.MilestoneInProgress, project.MilestoneCompleted:
			m["status"] = strings.ToUpper(status)
		default:
			m["status"] = string(project.MilestonePending)
		}
		roadmap = append(roadmap, m)
	}
	rec["roadmap"] = roadmap
}

func repairTask(rec map[string]any, _ time.Time) {
	for _, key := range []string{"description", "projectId", "dueDate", "dependency", "createdAt", "assigneeId"} {
		ensureString(rec, key, "")
	}
	ensureStringSlice(rec, "assigneeIds", "")

	s, _ := rec["status"].(string)
	status, ok := task.ParseStatus(s)
	if !ok {
		status = task.StatusTodo
	}
	rec["status"] = string(status)

	p, _ := rec["priority"].(string)
	priority, ok := task.ParsePriority(p)
	if !ok {
		priority = task.PriorityMedium
	}
	rec["priority"] = string(priority)

	est := toFloat(rec["estimatedTime"])
	if est < 0 {
		est = 0
	}
	rec["estimatedTime"] = est
}

func ensureID(rec map[string]any) {
	id := scalarString(rec["id"])
	if id == "" {
		id = scalarString(rec["_id"])
	}
	if id == "" {
		id = PlaceholderPrefix + uuid.NewString()
	}
	rec["id"] = id
}

// ensureString coerces scalars to strings and fills def for anything else.
func ensureString(rec map[string]any, key, def string) {
	v, present := rec[key]
	if !present || v == nil {
		rec[key] = def
		return
	}
	switch v.(type) {
	case string:
	case json.Number, float64, bool:
		rec[key] = scalarString(v)
	default:
		rec[key] = def
	}
}

// ensureStringSlice coerces key to a list of non-empty strings. A lone string
// is wrapped, and a singular fallback key is used when the list is absent.
func ensureStringSlice(rec map[string]any, key, singular string) {
	v, present := rec[key]
	if (!present || v == nil) && singular != "" {
		v = rec[singular]
	}
	out := []any{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range val {
			if s != "" {
				out = append(out, s)
			}
		}
	case string, json.Number, float64:
		if s := scalarString(val); s != "" {
			out = append(out, s)
		}
	}
	rec[key] = out
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func toFloat(v any) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case json.Number:
		f, _ = val.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(val), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
