package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cryptosimchain_go/api"
	"cryptosimchain_go/llm"
	"cryptosimchain_go/registry"
	"cryptosimchain_go/simulation"
)

func newTestServer() *api.Server {
	reg := registry.NewRegistry()
	manager := simulation.NewManager(reg)
	designer := llm.NewDesigner(llm.NewOfflineProvider())
	return api.NewServer(reg, manager, designer)
}

func doRequest(s *api.Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func createCrypto(t *testing.T, s *api.Server) api.CryptoState {
	t.Helper()
	rr := doRequest(s, "POST", "/api/crypto/initialize", map[string]any{"name": "TestCoin", "symbol": "TST"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("initialize status: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	var state api.CryptoState
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("decoding initialize response: %v", err)
	}
	return state
}

func TestInitializeCrypto(t *testing.T) {
	s := newTestServer()
	state := createCrypto(t, s)

	if state.Name != "TestCoin" || state.Symbol != "TST" {
		t.Errorf("crypto identity: %+v", state)
	}
	if state.ID == "" {
		t.Error("crypto id missing")
	}
	if state.CirculatingSupply <= 0 {
		t.Errorf("circulating supply: got %v", state.CirculatingSupply)
	}
	if state.CurrentPrice <= 0 {
		t.Errorf("current price: got %v", state.CurrentPrice)
	}
}

func TestInitializeCryptoWithAI(t *testing.T) {
	s := newTestServer()
	rr := doRequest(s, "POST", "/api/crypto/initialize", map[string]any{"use_ai": true, "theme": "space travel"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("AI initialize status: got %d (%s)", rr.Code, rr.Body.String())
	}

	var state api.CryptoState
	json.Unmarshal(rr.Body.Bytes(), &state)
	// The offline provider always designs NeuraCoin.
	if state.Name != "NeuraCoin" || state.Symbol != "NURA" {
		t.Errorf("AI-designed identity: %+v", state)
	}
}

func TestCryptoStateNotFound(t *testing.T) {
	s := newTestServer()
	if rr := doRequest(s, "GET", "/api/crypto/missing/state", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown crypto state: got %d want 404", rr.Code)
	}
}

func TestCryptoEndpoints(t *testing.T) {
	s := newTestServer()
	state := createCrypto(t, s)
	base := "/api/crypto/" + state.ID

	if rr := doRequest(s, "GET", base+"/state", nil); rr.Code != http.StatusOK {
		t.Errorf("state endpoint: got %d", rr.Code)
	}

	rr := doRequest(s, "GET", base+"/blockchain", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("blockchain endpoint: got %d", rr.Code)
	}
	var chainResp api.BlockchainResponse
	json.Unmarshal(rr.Body.Bytes(), &chainResp)
	if len(chainResp.Chain) != 1 {
		t.Errorf("fresh chain length: got %d want 1 (genesis)", len(chainResp.Chain))
	}
	if !chainResp.Stats.IsValid {
		t.Error("fresh chain should be valid")
	}

	if rr := doRequest(s, "GET", base+"/price-history?limit=10", nil); rr.Code != http.StatusOK {
		t.Errorf("price history endpoint: got %d", rr.Code)
	}
	if rr := doRequest(s, "GET", base+"/price-history?limit=abc", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d want 400", rr.Code)
	}
	if rr := doRequest(s, "GET", base+"/stats", nil); rr.Code != http.StatusOK {
		t.Errorf("stats endpoint: got %d", rr.Code)
	}
	if rr := doRequest(s, "GET", "/api/crypto", nil); rr.Code != http.StatusOK {
		t.Errorf("list endpoint: got %d", rr.Code)
	}
}

func TestSimulationLifecycleOverHTTP(t *testing.T) {
	s := newTestServer()
	state := createCrypto(t, s)

	rr := doRequest(s, "POST", "/api/simulation/start/"+state.ID, map[string]any{"duration_seconds": 30, "intensity": "low"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("start status: got %d (%s)", rr.Code, rr.Body.String())
	}
	var snap simulation.Snapshot
	json.Unmarshal(rr.Body.Bytes(), &snap)
	if snap.SimulationID == "" {
		t.Fatal("simulation id missing")
	}

	// A second simulation for the same crypto conflicts.
	if rr := doRequest(s, "POST", "/api/simulation/start/"+state.ID, nil); rr.Code != http.StatusConflict {
		t.Errorf("conflicting start: got %d want 409", rr.Code)
	}

	// Deleting the crypto while the simulation runs conflicts too.
	if rr := doRequest(s, "DELETE", "/api/crypto/"+state.ID, nil); rr.Code != http.StatusConflict {
		t.Errorf("delete with active simulation: got %d want 409", rr.Code)
	}

	if rr := doRequest(s, "GET", "/api/simulation/"+snap.SimulationID, nil); rr.Code != http.StatusOK {
		t.Errorf("get simulation: got %d", rr.Code)
	}

	rr = doRequest(s, "POST", "/api/simulation/stop/"+snap.SimulationID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("stop status: got %d (%s)", rr.Code, rr.Body.String())
	}
	var stopped simulation.Snapshot
	json.Unmarshal(rr.Body.Bytes(), &stopped)
	if stopped.Status != simulation.StatusPaused {
		t.Errorf("status after stop: got %s want %s", stopped.Status, simulation.StatusPaused)
	}

	if rr := doRequest(s, "POST", "/api/simulation/stop/"+snap.SimulationID, nil); rr.Code != http.StatusConflict {
		t.Errorf("double stop: got %d want 409", rr.Code)
	}

	if rr := doRequest(s, "GET", "/api/simulation/"+snap.SimulationID+"/summary", nil); rr.Code != http.StatusOK {
		t.Errorf("summary: got %d", rr.Code)
	}

	// With the simulation stopped, deletion succeeds.
	if rr := doRequest(s, "DELETE", "/api/crypto/"+state.ID, nil); rr.Code != http.StatusOK {
		t.Errorf("delete after stop: got %d want 200", rr.Code)
	}
}

func TestStartSimulationUnknownCrypto(t *testing.T) {
	s := newTestServer()
	if rr := doRequest(s, "POST", "/api/simulation/start/missing", nil); rr.Code != http.StatusNotFound {
		t.Errorf("start for unknown crypto: got %d want 404", rr.Code)
	}
}

func TestAIEndpoints(t *testing.T) {
	s := newTestServer()
	state := createCrypto(t, s)

	rr := doRequest(s, "POST", "/api/ai/generate", map[string]any{"theme": "gaming"})
	if rr.Code != http.StatusOK {
		t.Fatalf("generate status: got %d (%s)", rr.Code, rr.Body.String())
	}
	var designed llm.GeneratedCrypto
	json.Unmarshal(rr.Body.Bytes(), &designed)
	if designed.Name == "" || designed.TotalSupply <= 0 {
		t.Errorf("generated bundle: %+v", designed)
	}

	rr = doRequest(s, "POST", "/api/ai/optimize", map[string]any{"crypto_id": state.ID})
	if rr.Code != http.StatusOK {
		t.Fatalf("optimize status: got %d (%s)", rr.Code, rr.Body.String())
	}

	rr = doRequest(s, "GET", "/api/ai/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("ai status: got %d", rr.Code)
	}
	var status map[string]any
	json.Unmarshal(rr.Body.Bytes(), &status)
	if status["provider"] != "offline" || status["offline"] != true {
		t.Errorf("ai status body: %v", status)
	}

	if rr := doRequest(s, "GET", "/api/ai/last-interaction", nil); rr.Code != http.StatusOK {
		t.Errorf("last interaction: got %d", rr.Code)
	}
}

func TestOptimizeUnknownCrypto(t *testing.T) {
	s := newTestServer()
	if rr := doRequest(s, "POST", "/api/ai/optimize", map[string]any{"crypto_id": "missing"}); rr.Code != http.StatusNotFound {
		t.Errorf("optimize unknown crypto: got %d want 404", rr.Code)
	}
}

func TestPingAndHealth(t *testing.T) {
	s := newTestServer()

	rr := doRequest(s, "GET", "/ping", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("ping status: got %d", rr.Code)
	}
	if rr.Body.String() != "pong" {
		t.Errorf("ping body: got %q", rr.Body.String())
	}

	rr = doRequest(s, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health status: got %d", rr.Code)
	}
	var health map[string]any
	json.Unmarshal(rr.Body.Bytes(), &health)
	if health["status"] != "ok" {
		t.Errorf("health body: %v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()
	rr := doRequest(s, "GET", "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("metrics status: got %d", rr.Code)
	}
}
