package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maksimkurb/keen-route/src/internal/route"
)

func ruleResponse(rule *route.Rule, index int) RuleResponse {
	return RuleResponse{
		RuleSpec:      rule.Spec(),
		Index:         index,
		OutboundLabel: route.Outbounds.Label(rule.OutboundTag()),
	}
}

func rulesResponse(cfg *route.Config) RulesResponse {
	rules := cfg.Rules()
	resp := RulesResponse{Rules: make([]RuleResponse, 0, len(rules))}
	for i, rule := range rules {
		resp.Rules = append(resp.Rules, ruleResponse(rule, i))
	}
	return resp
}

// GetRules returns all rules in priority order.
// GET /api/v1/rules
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	var resp RulesResponse
	if h.view(w, func(cfg *route.Config) error {
		resp = rulesResponse(cfg)
		return nil
	}) {
		writeJSONData(w, resp)
	}
}

// GetRule returns a specific rule by ID.
// GET /api/v1/rules/{id}
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var resp RuleResponse
	if h.view(w, func(cfg *route.Config) error {
		rule, err := findRule(cfg, id)
		if err != nil {
			return err
		}
		resp = ruleResponse(rule, cfg.IndexOf(id))
		return nil
	}) {
		writeJSONData(w, resp)
	}
}

// CreateRule appends a new default rule. The body may set its scalar fields.
// POST /api/v1/rules
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleUpdateRequest
	if err := decodeJSON(r, &req); err != nil && !stderrors.Is(err, io.EOF) {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	var resp RuleResponse
	if !h.edit(w, func(cfg *route.Config) error {
		rule := cfg.AddRule()
		if err := applyRuleUpdate(rule, req); err != nil {
			return err
		}
		resp = ruleResponse(rule, cfg.Len()-1)
		return nil
	}) {
		return
	}

	writeCreated(w, resp)
}

// UpdateRule changes the scalar fields of a rule.
// PATCH /api/v1/rules/{id}
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RuleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	var resp RuleResponse
	if !h.edit(w, func(cfg *route.Config) error {
		rule, err := findRule(cfg, id)
		if err != nil {
			return err
		}
		if err := applyRuleUpdate(rule, req); err != nil {
			return err
		}
		resp = ruleResponse(rule, cfg.IndexOf(id))
		return nil
	}) {
		return
	}

	writeJSONData(w, resp)
}

// DeleteRule removes a rule by ID.
// DELETE /api/v1/rules/{id}
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.edit(w, func(cfg *route.Config) error {
		if !cfg.RemoveRule(id) {
			_, err := findRule(cfg, id)
			return err
		}
		return nil
	}) {
		return
	}

	writeNoContent(w)
}

// MoveRules reorders rules by position.
// POST /api/v1/rules/move
func (h *Handler) MoveRules(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	var resp RulesResponse
	if !h.edit(w, func(cfg *route.Config) error {
		cfg.MoveRules(req.From, req.To)
		resp = rulesResponse(cfg)
		return nil
	}) {
		return
	}

	writeJSONData(w, resp)
}

// RemoveRules removes rules by position.
// POST /api/v1/rules/remove
func (h *Handler) RemoveRules(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	var resp RulesResponse
	if !h.edit(w, func(cfg *route.Config) error {
		cfg.RemoveRules(req.Indices...)
		resp = rulesResponse(cfg)
		return nil
	}) {
		return
	}

	writeJSONData(w, resp)
}

// ToggleNetwork switches tcp or udp on or off for a rule.
// POST /api/v1/rules/{id}/network
func (h *Handler) ToggleNetwork(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(rule *route.Rule, req ToggleRequest) error {
		return rule.SetNetworkToken(req.Token, req.Enabled)
	})
}

// ToggleProtocol switches a sniffed protocol on or off for a rule.
// POST /api/v1/rules/{id}/protocol
func (h *Handler) ToggleProtocol(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, func(rule *route.Rule, req ToggleRequest) error {
		p, err := route.ParseProtocol(req.Token)
		if err != nil {
			return err
		}
		return rule.SetProtocol(p, req.Enabled)
	})
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, apply func(*route.Rule, ToggleRequest) error) {
	id := chi.URLParam(r, "id")

	var req ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	var resp RuleResponse
	if !h.edit(w, func(cfg *route.Config) error {
		rule, err := findRule(cfg, id)
		if err != nil {
			return err
		}
		if err := apply(rule, req); err != nil {
			return invalid(err)
		}
		resp = ruleResponse(rule, cfg.IndexOf(id))
		return nil
	}) {
		return
	}

	writeJSONData(w, resp)
}

func applyRuleUpdate(rule *route.Rule, req RuleUpdateRequest) error {
	if req.Name != nil {
		rule.SetName(*req.Name)
	}
	if req.Enabled != nil {
		rule.SetEnabled(*req.Enabled)
	}
	if req.DomainMatcher != nil {
		if err := rule.SetDomainMatcher(*req.DomainMatcher); err != nil {
			return invalid(err)
		}
	}
	if req.Port != nil {
		if err := rule.SetPort(*req.Port); err != nil {
			return invalid(err)
		}
	}
	if req.SourcePort != nil {
		if err := rule.SetSourcePort(*req.SourcePort); err != nil {
			return invalid(err)
		}
	}
	if req.OutboundTag != nil {
		if err := rule.SetOutboundTag(*req.OutboundTag); err != nil {
			return invalid(err)
		}
	}
	return nil
}
