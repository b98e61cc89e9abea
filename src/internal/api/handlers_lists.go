package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/maksimkurb/keen-route/src/internal/errors"
	"github.com/maksimkurb/keen-route/src/internal/route"
)

// Editable rule lists.
const (
	ListDomain     = "domain"
	ListIP         = "ip"
	ListPort       = "port"
	ListSourcePort = "source_port"
)

// listField resolves a list name to the rule's set editor and an entry check.
func listField(rule *route.Rule, field string) (*route.StringSet, func(string) error, error) {
	switch field {
	case ListDomain:
		return rule.DomainSet(), route.ValidateDomainEntry, nil
	case ListIP:
		return rule.IPSet(), route.ValidateIPEntry, nil
	case ListPort:
		return rule.PortSet(), checkPortToken, nil
	case ListSourcePort:
		return rule.SourcePortSet(), checkPortToken, nil
	}
	return nil, nil, errors.NewNotFoundError(fmt.Sprintf("unknown rule list %q", field))
}

func checkPortToken(token string) error {
	if !route.IsValidPortToken(token) {
		return fmt.Errorf("invalid port or port range %q", token)
	}
	return nil
}

// editList resolves {id} and {field} and applies fn to the list inside the draft.
func (h *Handler) editList(w http.ResponseWriter, r *http.Request, fn func(set *route.StringSet, check func(string) error, resp *ListResponse) error) {
	id := chi.URLParam(r, "id")
	field := chi.URLParam(r, "field")

	resp := ListResponse{Field: field}
	if !h.edit(w, func(cfg *route.Config) error {
		rule, err := findRule(cfg, id)
		if err != nil {
			return err
		}
		set, check, err := listField(rule, field)
		if err != nil {
			return err
		}
		if err := fn(set, check, &resp); err != nil {
			return err
		}
		resp.Values = append([]string{}, set.Values()...)
		return nil
	}) {
		return
	}

	writeJSONData(w, resp)
}

// GetList returns the values of a rule list.
// GET /api/v1/rules/{id}/lists/{field}
func (h *Handler) GetList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	field := chi.URLParam(r, "field")

	resp := ListResponse{Field: field}
	if h.view(w, func(cfg *route.Config) error {
		rule, err := findRule(cfg, id)
		if err != nil {
			return err
		}
		set, _, err := listField(rule, field)
		if err != nil {
			return err
		}
		resp.Values = append([]string{}, set.Values()...)
		return nil
	}) {
		writeJSONData(w, resp)
	}
}

// AddListValue appends a value to a rule list. Blank and duplicate values
// are ignored and reported with "added": false.
// POST /api/v1/rules/{id}/lists/{field}
func (h *Handler) AddListValue(w http.ResponseWriter, r *http.Request) {
	var req ListAddRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	h.editList(w, r, func(set *route.StringSet, check func(string) error, resp *ListResponse) error {
		if value := strings.TrimSpace(req.Value); value != "" {
			if err := check(value); err != nil {
				return invalid(err)
			}
		}
		added := set.Add(req.Value)
		resp.Added = &added
		return nil
	})
}

// RemoveListValues removes values of a rule list by position.
// POST /api/v1/rules/{id}/lists/{field}/remove
func (h *Handler) RemoveListValues(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	h.editList(w, r, func(set *route.StringSet, _ func(string) error, _ *ListResponse) error {
		set.Remove(req.Indices...)
		return nil
	})
}

// MoveListValues reorders values of a rule list.
// POST /api/v1/rules/{id}/lists/{field}/move
func (h *Handler) MoveListValues(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	h.editList(w, r, func(set *route.StringSet, _ func(string) error, _ *ListResponse) error {
		set.Move(req.From, req.To)
		return nil
	})
}
