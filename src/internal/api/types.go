package api

import (
	"github.com/maksimkurb/keen-route/src/internal/reconcile"
	"github.com/maksimkurb/keen-route/src/internal/route"
	"github.com/maksimkurb/keen-route/src/internal/service"
	"github.com/maksimkurb/keen-route/src/internal/session"
)

// DataResponse wraps successful responses with a "data" field.
type DataResponse struct {
	Data any `json:"data"`
}

// RoutingResponse returns the global routing settings.
type RoutingResponse struct {
	DomainStrategy route.DomainStrategy `json:"domain_strategy"`
	DomainMatcher  route.DomainMatcher  `json:"domain_matcher"`
	RuleCount      int                  `json:"rule_count"`
}

// RoutingUpdateRequest changes the global routing settings. Omitted fields are kept.
type RoutingUpdateRequest struct {
	DomainStrategy *route.DomainStrategy `json:"domain_strategy,omitempty"`
	DomainMatcher  *route.DomainMatcher  `json:"domain_matcher,omitempty"`
}

// OptionInfo describes one selectable value.
type OptionInfo struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// RoutingOptionsResponse lists the values accepted by the routing settings and rules.
type RoutingOptionsResponse struct {
	DomainStrategies []OptionInfo `json:"domain_strategies"`
	DomainMatchers   []OptionInfo `json:"domain_matchers"`
	Networks         []string     `json:"networks"`
	Protocols        []string     `json:"protocols"`
}

// OutboundInfo is one entry of the outbound catalog.
type OutboundInfo struct {
	Tag   route.OutboundTag `json:"tag"`
	Label string            `json:"label"`
}

// RuleResponse is a rule together with its current position.
type RuleResponse struct {
	route.RuleSpec
	Index         int    `json:"index"`
	OutboundLabel string `json:"outbound_label"`
}

// RulesResponse lists the rules in priority order.
type RulesResponse struct {
	Rules []RuleResponse `json:"rules"`
}

// RuleUpdateRequest changes scalar rule fields. Omitted fields are kept.
type RuleUpdateRequest struct {
	Name          *string              `json:"name,omitempty"`
	Enabled       *bool                `json:"enabled,omitempty"`
	DomainMatcher *route.DomainMatcher `json:"domain_matcher,omitempty"`
	Port          *string              `json:"port,omitempty"`
	SourcePort    *string              `json:"source_port,omitempty"`
	OutboundTag   *route.OutboundTag   `json:"outbound_tag,omitempty"`
}

// MoveRequest moves the items at From before the item at To.
type MoveRequest struct {
	From []int `json:"from"`
	To   int   `json:"to"`
}

// RemoveRequest removes the items at the given positions.
type RemoveRequest struct {
	Indices []int `json:"indices"`
}

// ListAddRequest adds a value to a rule list.
type ListAddRequest struct {
	Value string `json:"value"`
}

// ListResponse returns the values of a rule list after a change.
type ListResponse struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
	Added  *bool    `json:"added,omitempty"`
}

// ToggleRequest switches a network or protocol token on or off.
type ToggleRequest struct {
	Token   string `json:"token"`
	Enabled bool   `json:"enabled"`
}

// StatusResponse returns the state of the session, the editor and the last reconcile.
type StatusResponse struct {
	Version     VersionInfo         `json:"version"`
	Session     session.Info        `json:"session"`
	ConfigStale *bool               `json:"config_stale,omitempty"`
	Editor      service.EditorState `json:"editor"`
	Reconcile   ReconcileStatus     `json:"reconcile"`
}

// VersionInfo contains build version information.
type VersionInfo struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

// ReconcileStatus describes the reconciler.
type ReconcileStatus struct {
	InProgress bool             `json:"in_progress"`
	Runs       int              `json:"runs"`
	Last       reconcile.Result `json:"last"`
}

// SessionControlRequest changes the session state.
type SessionControlRequest struct {
	State string `json:"state"` // "started", "stopped", "restarted"
}

// SessionControlResponse returns the session after a control request.
type SessionControlResponse struct {
	Status  session.Status `json:"status"`
	Message string         `json:"message,omitempty"`
}

// HealthCheckResponse returns health check results.
type HealthCheckResponse struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckResult `json:"checks"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// WarningsResponse lists suspicious but valid rule setups.
type WarningsResponse struct {
	Warnings []string `json:"warnings"`
}
