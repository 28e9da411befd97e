package signaling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestServer() *httptest.Server {
	h := NewHandler(NewStore())
	r := chi.NewRouter()
	r.Route("/api/signal", h.Routes)
	return httptest.NewServer(r)
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSignalingRoundTrip(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	// Caller places an offer for the target
	resp := postJSON(t, srv.URL+"/api/signal/offer", `{"sdp":"offer-sdp","caller_id":"alice","target_id":"bob"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create offer status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Target polls the offer
	resp, err := http.Get(srv.URL + "/api/signal/offer/bob")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get offer status = %d", resp.StatusCode)
	}
	var offer map[string]string
	decodeBody(t, resp, &offer)
	if offer["sdp"] != "offer-sdp" || offer["caller"] != "alice" {
		t.Errorf("offer = %v", offer)
	}

	// Target answers back against the offer entry
	resp = postJSON(t, srv.URL+"/api/signal/answer", `{"sdp":"answer-sdp","caller_id":"bob"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create answer status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/signal/answer/bob")
	if err != nil {
		t.Fatal(err)
	}
	var answer map[string]string
	decodeBody(t, resp, &answer)
	if answer["sdp"] != "answer-sdp" {
		t.Errorf("answer = %v", answer)
	}

	// ICE candidates accumulate and are never drained
	for _, c := range []string{"cand1", "cand2"} {
		resp = postJSON(t, srv.URL+"/api/signal/ice/bob", `{"candidate":"`+c+`"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("post ice status = %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, err = http.Get(srv.URL + "/api/signal/ice/bob")
	if err != nil {
		t.Fatal(err)
	}
	var ice map[string][]string
	decodeBody(t, resp, &ice)
	if len(ice["candidates"]) != 2 {
		t.Errorf("candidates = %v, want 2", ice["candidates"])
	}
}

func TestSignalingNotFoundAndValidation(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	// Polling before the counterpart arrives is a plain 404, not a failure
	resp, err := http.Get(srv.URL + "/api/signal/offer/nobody")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get offer status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["error"] == "" {
		t.Error("404 body should carry an error field")
	}

	// Answer without an offer entry
	resp = postJSON(t, srv.URL+"/api/signal/answer", `{"sdp":"x","caller_id":"nobody"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("answer without offer status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	tests := []struct {
		name string
		url  string
		body string
	}{
		{"offer missing fields", "/api/signal/offer", `{"sdp":"x"}`},
		{"offer malformed json", "/api/signal/offer", `{"sdp":`},
		{"answer missing fields", "/api/signal/answer", `{"sdp":"x"}`},
		{"ice missing candidate", "/api/signal/ice/bob", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+tt.url, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestSignalingOfferOverwriteViaREST(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	postJSON(t, srv.URL+"/api/signal/offer", `{"sdp":"offer1","caller_id":"caller1","target_id":"target"}`).Body.Close()
	postJSON(t, srv.URL+"/api/signal/answer", `{"sdp":"stale","caller_id":"target"}`).Body.Close()
	postJSON(t, srv.URL+"/api/signal/offer", `{"sdp":"offer2","caller_id":"caller2","target_id":"target"}`).Body.Close()

	resp, err := http.Get(srv.URL + "/api/signal/offer/target")
	if err != nil {
		t.Fatal(err)
	}
	var offer map[string]string
	decodeBody(t, resp, &offer)
	if offer["sdp"] != "offer2" || offer["caller"] != "caller2" {
		t.Errorf("offer = %v, want offer2/caller2", offer)
	}

	resp, err = http.Get(srv.URL + "/api/signal/answer/target")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("stale answer survived overwrite: status = %d", resp.StatusCode)
	}
}
