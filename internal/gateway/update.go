package gateway

import (
	"net/http"
	"net/url"
	"strings"
)

// UpdateStrategy selects how an update identifies its target record.
type UpdateStrategy interface {
	isUpdateStrategy()
}

// ByPath identifies the record by id in the URL path and sends a full PUT.
type ByPath struct {
	ID string
}

// ByConcurrencyToken identifies the record by id and a version token sent as a
// query parameter. Latest with no token targets the newest server version.
type ByConcurrencyToken struct {
	ID     string
	Token  string
	Latest bool
}

func (ByPath) isUpdateStrategy()             {}
func (ByConcurrencyToken) isUpdateStrategy() {}

type target struct {
	id         string
	method     string
	path       string
	query      url.Values
	stampField bool
}

// resolve turns a strategy into a method, path and query.
func resolve(strategy UpdateStrategy) (target, *Error) {
	switch s := strategy.(type) {
	case ByPath:
		if strings.TrimSpace(s.ID) == "" {
			return target{}, newError(KindValidation, "id is required")
		}
		return target{id: s.ID, method: http.MethodPut, path: "/" + url.PathEscape(s.ID), stampField: true}, nil
	case ByConcurrencyToken:
		if strings.TrimSpace(s.ID) == "" {
			return target{}, newError(KindValidation, "id is required")
		}
		q := url.Values{}
		switch {
		case s.Token != "":
			q.Set("timestamp", s.Token)
		case s.Latest:
			q.Set("latest", "1")
		default:
			return target{}, newError(KindConcurrencyTokenMissing, "record %s has no timestamp", s.ID)
		}
		return target{id: s.ID, method: http.MethodPatch, path: "/" + url.PathEscape(s.ID), query: q}, nil
	default:
		return target{}, newError(KindValidation, "unsupported update strategy %T", strategy)
	}
}

// deleteTarget builds a DELETE, requiring a token when the resource demands one.
func deleteTarget(res Resource, id, token string) (target, *Error) {
	if strings.TrimSpace(id) == "" {
		return target{}, newError(KindValidation, "id is required")
	}
	t := target{id: id, method: http.MethodDelete, path: "/" + url.PathEscape(id)}
	if token != "" {
		t.query = url.Values{"timestamp": {token}}
	} else if res.RequiresToken() {
		return target{}, newError(KindConcurrencyTokenMissing, "%s %s has no timestamp", res.Singular(), id)
	}
	return t, nil
}
