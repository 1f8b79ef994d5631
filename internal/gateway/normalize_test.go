package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalize_Shapes(t *testing.T) {
	cases := map[string]string{
		"bare array":   `[{"id":"1"},{"id":"2"}]`,
		"items":        `{"items":[{"id":"1"},{"id":"2"}]}`,
		"data":         `{"data":[{"id":"1"},{"id":"2"}],"count":2}`,
		"items wins":   `{"items":[{"id":"1"},{"id":"2"}],"data":[{"id":"x"}]}`,
		"proxy":        `{"statusCode":200,"body":"[{\"id\":\"1\"},{\"id\":\"2\"}]"}`,
		"proxy items":  `{"statusCode":200,"body":"{\"items\":[{\"id\":\"1\"},{\"id\":\"2\"}]}"}`,
		"skip scalars": `[{"id":"1"},3,"x",null,{"id":"2"}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize([]byte(body))
			require.NoError(t, err)
			require.Len(t, got, 2)
			require.Equal(t, "1", got[0]["id"])
			require.Equal(t, "2", got[1]["id"])
		})
	}
}

func TestNormalize_SingleObject(t *testing.T) {
	got, err := Normalize([]byte(`{"id":"c1","name":"Acme"}`))
	require.NoError(t, err)
	require.Equal(t, []map[string]any{{"id": "c1", "name": "Acme"}}, got)

	// data that is not a list falls through to wrapping the whole body
	got, err = Normalize([]byte(`{"data":{"id":"c1"}}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Contains(t, got[0], "data")
}

func TestNormalize_Empty(t *testing.T) {
	for _, body := range []string{"", "  ", "null", "42"} {
		got, err := Normalize([]byte(body))
		require.NoError(t, err)
		require.Empty(t, got)
	}

	_, err := Normalize([]byte("{not json"))
	require.Error(t, err)
}

func TestNormalize_RepairIsIdempotent(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bodies := map[Resource]string{
		Departments: `{"items":[{"name":"Eng","companyId":"c1"},{"id":7}]}`,
		Roles:       `[{"name":"Auditor"},{"id":"r2","permissions":"read","color":""}]`,
		Users:       `{"data":[{"id":"u1","role":"manager","rating":"7.5"},{"name":"x","rating":42}]}`,
		Tasks:       `[{"id":"t1","status":"in-progress","assigneeId":"u1","estimatedTime":"3"}]`,
		Projects:    `[{"id":"p1","roadmap":[{"name":"M1"},"junk",{"id":"m2","status":"completed"}]}]`,
	}

	for res, body := range bodies {
		t.Run(string(res), func(t *testing.T) {
			first, err := Normalize([]byte(body))
			require.NoError(t, err)
			for _, rec := range first {
				Repair(res, rec, now)
			}

			encoded, err := json.Marshal(first)
			require.NoError(t, err)
			second, err := Normalize(encoded)
			require.NoError(t, err)
			for _, rec := range second {
				Repair(res, rec, now.Add(time.Hour))
			}

			require.Equal(t, first, second)
		})
	}
}

func TestRepair_FillsDefaultsAndUniqueIDs(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recs, err := Normalize([]byte(`[{"name":"a"},{"name":"b"},{"_id":"legacy"}]`))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, rec := range recs {
		Repair(Roles, rec, now)
		id, _ := rec["id"].(string)
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		require.Equal(t, []any{}, rec["permissions"])
		require.Equal(t, "#6B7280", rec["color"])
		require.Equal(t, "#F3F4F6", rec["bgColor"])
	}
	require.Equal(t, "legacy", recs[2]["id"])
	require.Contains(t, recs[0]["id"], PlaceholderPrefix)
}

func TestRepair_DepartmentTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := map[string]any{"id": "d1", "name": "Eng", "companyIds": []any{"c1"}}
	Repair(Departments, rec, now)
	require.Equal(t, "2024-05-01T12:00:00Z", rec["timestamp"])

	rec = map[string]any{"id": "d2", "createdAt": "2023-01-01T00:00:00Z"}
	Repair(Departments, rec, now)
	require.Equal(t, "2023-01-01T00:00:00Z", rec["timestamp"])
	require.Equal(t, []any{}, rec["companyIds"])
}

func TestRepair_UserAndTaskCoercion(t *testing.T) {
	now := time.Now()
	u := map[string]any{"id": json.Number("12"), "role": "hr", "rating": "12", "departmentId": "d1"}
	Repair(Users, u, now)
	require.Equal(t, "12", u["id"])
	require.Equal(t, "HR", u["role"])
	require.Equal(t, 10.0, u["rating"])
	require.Equal(t, []any{"d1"}, u["departmentIds"])

	tk := map[string]any{"id": "t1", "status": "bogus", "priority": "HIGH", "estimatedTime": -4.0}
	Repair(Tasks, tk, now)
	require.Equal(t, "TODO", tk["status"])
	require.Equal(t, "high", tk["priority"])
	require.Equal(t, 0.0, tk["estimatedTime"])
}

func TestErrorBody(t *testing.T) {
	msg, isErr := errorBody(map[string]any{"success": false, "message": "nope"})
	require.True(t, isErr)
	require.Equal(t, "nope", msg)

	msg, isErr = errorBody(map[string]any{"error": "boom"})
	require.True(t, isErr)
	require.Equal(t, "boom", msg)

	_, isErr = errorBody(map[string]any{"id": "x", "error": ""})
	require.False(t, isErr)

	_, isErr = errorBody([]any{})
	require.False(t, isErr)
}
