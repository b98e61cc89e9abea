package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/mocks"
	"github.com/maksimkurb/keen-route/src/internal/reconcile"
	"github.com/maksimkurb/keen-route/src/internal/route"
	"github.com/maksimkurb/keen-route/src/internal/service"
	"github.com/maksimkurb/keen-route/src/internal/session"
)

type testAPI struct {
	router     http.Handler
	store      *mocks.MockStore
	session    *mocks.MockSession
	reconciler *reconcile.Reconciler
	editor     *service.RouteEditor
}

func newTestAPI(t *testing.T, status session.Status) *testAPI {
	t.Helper()

	store := mocks.NewMockStore(nil)
	s := mocks.NewMockSession(status)
	reconciler := reconcile.New(s, reconcile.Options{
		GraceDelay:    10 * time.Millisecond,
		SettleTimeout: 500 * time.Millisecond,
		StartTimeout:  time.Second,
	})
	t.Cleanup(reconciler.Close)

	editor := service.NewRouteEditor(store, reconciler)
	h := NewHandler(HandlerOptions{
		Editor:     editor,
		Session:    s,
		Reconciler: reconciler,
	})

	return &testAPI{
		router:     NewRouter(h),
		store:      store,
		session:    s,
		reconciler: reconciler,
		editor:     editor,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "127.0.0.1:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var resp struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func (a *testAPI) createRule(t *testing.T, name string) RuleResponse {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/v1/rules", map[string]any{"name": name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeData[RuleResponse](t, rec)
}

func ruleNames(rules []RuleResponse) []string {
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name
	}
	return names
}

func TestAPI_EditAndCommitRule(t *testing.T) {
	a := newTestAPI(t, session.StatusConnected)

	rule := a.createRule(t, "Streaming")
	if rule.OutboundTag != route.DefaultOutbound || !rule.Enabled || rule.Index != 0 {
		t.Fatalf("Unexpected new rule: %+v", rule)
	}

	path := "/api/v1/rules/" + rule.ID
	rec := a.do(t, http.MethodPatch, path, map[string]any{"outbound_tag": "proxy", "port": "443, 8000-8080"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = a.do(t, http.MethodPost, path+"/lists/domain", ListAddRequest{Value: "  example.com "})
	list := decodeData[ListResponse](t, rec)
	if list.Added == nil || !*list.Added || !slices.Equal(list.Values, []string{"example.com"}) {
		t.Fatalf("Unexpected list after add: %+v", list)
	}

	rec = a.do(t, http.MethodPost, path+"/lists/domain", ListAddRequest{Value: "example.com"})
	list = decodeData[ListResponse](t, rec)
	if list.Added == nil || *list.Added {
		t.Errorf("Expected duplicate to be ignored, got %+v", list)
	}

	a.do(t, http.MethodPost, path+"/network", ToggleRequest{Token: "udp", Enabled: true})
	a.do(t, http.MethodPost, path+"/network", ToggleRequest{Token: "tcp", Enabled: true})
	rec = a.do(t, http.MethodPost, path+"/protocol", ToggleRequest{Token: "tls", Enabled: true})
	updated := decodeData[RuleResponse](t, rec)
	if updated.Network.String() != "tcp,udp" {
		t.Errorf("Expected network tcp,udp, got %q", updated.Network.String())
	}
	if !slices.Equal(updated.Protocol.Strings(), []string{"tls"}) {
		t.Errorf("Expected protocol [tls], got %v", updated.Protocol)
	}

	if a.store.SaveCalls() != 0 {
		t.Fatalf("Expected nothing saved before commit, got %d saves", a.store.SaveCalls())
	}

	rec = a.do(t, http.MethodPost, "/api/v1/editor/commit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on commit, got %d: %s", rec.Code, rec.Body.String())
	}
	a.reconciler.Wait()

	if a.store.SaveCalls() != 1 {
		t.Errorf("Expected exactly one save, got %d", a.store.SaveCalls())
	}
	saved, _ := a.store.Last()
	if len(saved.Rules) != 1 {
		t.Fatalf("Expected 1 saved rule, got %d", len(saved.Rules))
	}
	got := saved.Rules[0]
	if got.Name != "Streaming" || got.OutboundTag != route.OutboundProxy || got.Port != "443,8000-8080" {
		t.Errorf("Unexpected saved rule: %+v", got)
	}

	if a.session.StopCalls() != 1 || a.session.StartCalls() != 1 {
		t.Errorf("Expected the session to be restarted once, got %d stops and %d starts",
			a.session.StopCalls(), a.session.StartCalls())
	}
	if a.editor.State().Open {
		t.Error("Expected editor to be closed after commit")
	}
}

func TestAPI_RuleErrors(t *testing.T) {
	a := newTestAPI(t, session.StatusDisconnected)
	rule := a.createRule(t, "Rule")
	path := "/api/v1/rules/" + rule.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   ErrorCode
	}{
		{"unknown rule", http.MethodGet, "/api/v1/rules/missing", nil, http.StatusNotFound, ErrCodeNotFound},
		{"delete unknown rule", http.MethodDelete, "/api/v1/rules/missing", nil, http.StatusNotFound, ErrCodeNotFound},
		{"unknown outbound", http.MethodPatch, path, map[string]any{"outbound_tag": "dns"}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad port", http.MethodPatch, path, map[string]any{"port": "80-20"}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad domain", http.MethodPost, path + "/lists/domain", ListAddRequest{Value: "not a domain"}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad ip", http.MethodPost, path + "/lists/ip", ListAddRequest{Value: "10.0.0.0/33"}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad port token", http.MethodPost, path + "/lists/port", ListAddRequest{Value: "70000"}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"unknown list", http.MethodPost, path + "/lists/asn", ListAddRequest{Value: "1"}, http.StatusNotFound, ErrCodeNotFound},
		{"unknown network", http.MethodPost, path + "/network", ToggleRequest{Token: "sctp", Enabled: true}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"unknown protocol", http.MethodPost, path + "/protocol", ToggleRequest{Token: "quic", Enabled: true}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad strategy", http.MethodPatch, "/api/v1/routing", map[string]any{"domain_strategy": "Bogus"}, http.StatusBadRequest, ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if apiErr := decodeError(t, rec); apiErr.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, apiErr.Code)
			}
		})
	}

	rec := a.do(t, http.MethodGet, path, nil)
	after := decodeData[RuleResponse](t, rec)
	if after.OutboundTag != route.DefaultOutbound || after.Port != "" || len(after.Domain) != 0 {
		t.Errorf("Expected rejected edits to leave the rule unchanged, got %+v", after)
	}
}

func TestAPI_MoveAndRemoveRules(t *testing.T) {
	a := newTestAPI(t, session.StatusDisconnected)
	for _, name := range []string{"a", "b", "c", "d"} {
		a.createRule(t, name)
	}

	rec := a.do(t, http.MethodPost, "/api/v1/rules/move", MoveRequest{From: []int{2, 3}, To: 0})
	rules := decodeData[RulesResponse](t, rec).Rules
	if got := ruleNames(rules); !slices.Equal(got, []string{"c", "d", "a", "b"}) {
		t.Fatalf("Unexpected order after move: %v", got)
	}
	for i, rule := range rules {
		if rule.Index != i {
			t.Errorf("Expected index %d for %s, got %d", i, rule.Name, rule.Index)
		}
	}

	rec = a.do(t, http.MethodPost, "/api/v1/rules/remove", RemoveRequest{Indices: []int{0, 0, 9}})
	rules = decodeData[RulesResponse](t, rec).Rules
	if got := ruleNames(rules); !slices.Equal(got, []string{"d", "a", "b"}) {
		t.Fatalf("Unexpected order after remove: %v", got)
	}

	rec = a.do(t, http.MethodDelete, "/api/v1/rules/"+rules[1].ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	rec = a.do(t, http.MethodGet, "/api/v1/rules", nil)
	if got := ruleNames(decodeData[RulesResponse](t, rec).Rules); !slices.Equal(got, []string{"d", "b"}) {
		t.Errorf("Unexpected rules after delete: %v", got)
	}
}

func TestAPI_ListMoveAndRemove(t *testing.T) {
	a := newTestAPI(t, session.StatusDisconnected)
	rule := a.createRule(t, "Rule")
	path := "/api/v1/rules/" + rule.ID + "/lists/port"

	for _, port := range []string{"80", "443", "8080", ""} {
		a.do(t, http.MethodPost, path, ListAddRequest{Value: port})
	}

	rec := a.do(t, http.MethodPost, path+"/move", MoveRequest{From: []int{2}, To: 0})
	list := decodeData[ListResponse](t, rec)
	if !slices.Equal(list.Values, []string{"8080", "80", "443"}) {
		t.Fatalf("Unexpected ports after move: %v", list.Values)
	}

	rec = a.do(t, http.MethodPost, path+"/remove", RemoveRequest{Indices: []int{1}})
	list = decodeData[ListResponse](t, rec)
	if !slices.Equal(list.Values, []string{"8080", "443"}) {
		t.Fatalf("Unexpected ports after remove: %v", list.Values)
	}

	rec = a.do(t, http.MethodGet, "/api/v1/rules/"+rule.ID, nil)
	if got := decodeData[RuleResponse](t, rec).Port; got != "8080,443" {
		t.Errorf("Expected port list 8080,443, got %q", got)
	}
}

func TestAPI_Routing(t *testing.T) {
	a := newTestAPI(t, session.StatusDisconnected)

	rec := a.do(t, http.MethodGet, "/api/v1/routing", nil)
	routing := decodeData[RoutingResponse](t, rec)
	if routing.DomainStrategy != route.DomainStrategyAsIs || routing.DomainMatcher != route.DomainMatcherHybrid {
		t.Fatalf("Unexpected defaults: %+v", routing)
	}

	rec = a.do(t, http.MethodPatch, "/api/v1/routing", map[string]any{"domain_strategy": "IPIfNonMatch"})
	routing = decodeData[RoutingResponse](t, rec)
	if routing.DomainStrategy != route.DomainStrategyIPIfNonMatch || routing.DomainMatcher != route.DomainMatcherHybrid {
		t.Errorf("Unexpected routing after update: %+v", routing)
	}

	rec = a.do(t, http.MethodGet, "/api/v1/routing/options", nil)
	options := decodeData[RoutingOptionsResponse](t, rec)
	if len(options.DomainStrategies) != 3 || len(options.DomainMatchers) != 2 {
		t.Errorf("Unexpected options: %+v", options)
	}
	if !slices.Equal(options.Networks, []string{"tcp", "udp"}) {
		t.Errorf("Unexpected networks: %v", options.Networks)
	}

	rec = a.do(t, http.MethodGet, "/api/v1/outbounds", nil)
	outbounds := decodeData[[]OutboundInfo](t, rec)
	if len(outbounds) != 3 || outbounds[0].Tag != route.OutboundDirect || outbounds[0].Label != "Direct" {
		t.Errorf("Unexpected outbounds: %+v", outbounds)
	}
}

func TestAPI_Warnings(t *testing.T) {
	a := newTestAPI(t, session.StatusDisconnected)
	a.createRule(t, "Empty")

	rec := a.do(t, http.MethodGet, "/api/v1/routing/warnings", nil)
	warnings := decodeData[WarningsResponse](t, rec)
	if len(warnings.Warnings) == 0 {
		t.Error("Expected a warning for a rule without criteria")
	}
}

func TestAPI_DiscardDropsDraft(t *testing.T) {
	a := newTestAPI(t, session.StatusConnected)
	a.createRule(t, "Draft")

	rec := a.do(t, http.MethodGet, "/api/v1/editor", nil)
	if state := decodeData[service.EditorState](t, rec); !state.Open || !state.Dirty {
		t.Fatalf("Expected open dirty editor, got %+v", state)
	}

	a.do(t, http.MethodPost, "/api/v1/editor/discard", nil)

	rec = a.do(t, http.MethodGet, "/api/v1/rules", nil)
	if rules := decodeData[RulesResponse](t, rec).Rules; len(rules) != 0 {
		t.Errorf("Expected no rules after discard, got %d", len(rules))
	}
	if a.store.SaveCalls() != 0 || a.reconciler.Runs() != 0 {
		t.Errorf("Expected no save and no reconcile, got %d saves and %d runs",
			a.store.SaveCalls(), a.reconciler.Runs())
	}
}

func TestAPI_Status(t *testing.T) {
	a := newTestAPI(t, session.StatusConnected)
	a.createRule(t, "Draft")

	rec := a.do(t, http.MethodGet, "/api/v1/status", nil)
	status := decodeData[StatusResponse](t, rec)
	if status.Session.Status != session.StatusConnected {
		t.Errorf("Expected connected session, got %s", status.Session.Status)
	}
	if !status.Editor.Open {
		t.Error("Expected editor to be open")
	}
	if status.ConfigStale != nil {
		t.Error("Expected no stale flag without a config hasher")
	}
	if status.Version.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, status.Version.Version)
	}
}

func TestAPI_ControlSession(t *testing.T) {
	a := newTestAPI(t, session.StatusDisconnected)

	rec := a.do(t, http.MethodPost, "/api/v1/session", SessionControlRequest{State: "started"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeData[SessionControlResponse](t, rec); resp.Status != session.StatusConnected {
		t.Errorf("Expected connected, got %s", resp.Status)
	}

	rec = a.do(t, http.MethodPost, "/api/v1/session", SessionControlRequest{State: "stopped"})
	if rec.Code != http.StatusOK || a.session.StopCalls() != 1 {
		t.Errorf("Expected stop to be requested, got %d and %d stops", rec.Code, a.session.StopCalls())
	}

	rec = a.do(t, http.MethodPost, "/api/v1/session", SessionControlRequest{State: "paused"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown state, got %d", rec.Code)
	}
}

func TestAPI_Reconcile(t *testing.T) {
	a := newTestAPI(t, session.StatusConnected)

	rec := a.do(t, http.MethodPost, "/api/v1/session/reconcile?wait=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	status := decodeData[ReconcileStatus](t, rec)
	if status.Runs != 1 || status.Last.Action != reconcile.ActionRestarted || status.InProgress {
		t.Errorf("Unexpected reconcile status: %+v", status)
	}

	rec = a.do(t, http.MethodPost, "/api/v1/session/reconcile", nil)
	if rec.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", rec.Code)
	}
	a.reconciler.Wait()
}

func TestAPI_Health(t *testing.T) {
	a := newTestAPI(t, session.StatusDisconnected)

	rec := a.do(t, http.MethodGet, "/api/v1/health", nil)
	health := decodeData[HealthCheckResponse](t, rec)
	if health.Healthy {
		t.Error("Expected unhealthy while the session is disconnected")
	}
	if !health.Checks["routing"].Passed || health.Checks["session"].Passed {
		t.Errorf("Unexpected checks: %+v", health.Checks)
	}
}
