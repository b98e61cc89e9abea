package api

import (
	"net/http"

	"github.com/maksimkurb/keen-route/src/internal/route"
)

func routingResponse(cfg *route.Config) RoutingResponse {
	return RoutingResponse{
		DomainStrategy: cfg.DomainStrategy(),
		DomainMatcher:  cfg.DomainMatcher(),
		RuleCount:      cfg.Len(),
	}
}

// GetRouting returns the global routing settings.
// GET /api/v1/routing
func (h *Handler) GetRouting(w http.ResponseWriter, r *http.Request) {
	var resp RoutingResponse
	if h.view(w, func(cfg *route.Config) error {
		resp = routingResponse(cfg)
		return nil
	}) {
		writeJSONData(w, resp)
	}
}

// UpdateRouting changes the domain strategy or the global domain matcher.
// PATCH /api/v1/routing
func (h *Handler) UpdateRouting(w http.ResponseWriter, r *http.Request) {
	var req RoutingUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid JSON: "+err.Error())
		return
	}

	var resp RoutingResponse
	if !h.edit(w, func(cfg *route.Config) error {
		if req.DomainStrategy != nil {
			if err := cfg.SetDomainStrategy(*req.DomainStrategy); err != nil {
				return invalid(err)
			}
		}
		if req.DomainMatcher != nil {
			if err := cfg.SetDomainMatcher(*req.DomainMatcher); err != nil {
				return invalid(err)
			}
		}
		resp = routingResponse(cfg)
		return nil
	}) {
		return
	}

	writeJSONData(w, resp)
}

// GetRoutingOptions lists the accepted strategies, matchers, networks and protocols.
// GET /api/v1/routing/options
func (h *Handler) GetRoutingOptions(w http.ResponseWriter, r *http.Request) {
	resp := RoutingOptionsResponse{
		Networks: (route.NetworkTCP | route.NetworkUDP).Tokens(),
	}
	for _, s := range route.DomainStrategies {
		resp.DomainStrategies = append(resp.DomainStrategies, OptionInfo{Value: string(s), Description: s.Description()})
	}
	for _, m := range route.DomainMatchers {
		resp.DomainMatchers = append(resp.DomainMatchers, OptionInfo{Value: string(m), Description: m.Description()})
	}
	for _, p := range route.Protocols {
		resp.Protocols = append(resp.Protocols, string(p))
	}

	writeJSONData(w, resp)
}

// GetRoutingWarnings reports valid rule setups that probably do not do what was meant.
// GET /api/v1/routing/warnings
func (h *Handler) GetRoutingWarnings(w http.ResponseWriter, r *http.Request) {
	resp := WarningsResponse{Warnings: []string{}}
	if h.view(w, func(cfg *route.Config) error {
		resp.Warnings = append(resp.Warnings, h.validator.Warnings(cfg)...)
		return nil
	}) {
		writeJSONData(w, resp)
	}
}

// GetOutbounds returns the outbound catalog.
// GET /api/v1/outbounds
func (h *Handler) GetOutbounds(w http.ResponseWriter, r *http.Request) {
	tags := route.Outbounds.Tags()
	outbounds := make([]OutboundInfo, 0, len(tags))
	for _, tag := range tags {
		outbounds = append(outbounds, OutboundInfo{Tag: tag, Label: route.Outbounds.Label(tag)})
	}
	writeJSONData(w, outbounds)
}
