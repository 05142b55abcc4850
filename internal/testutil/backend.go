package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fin-foresight/foresight/internal/types"
)

// SessionCookie is the cookie the fake backend issues on /analyze.
const SessionCookie = "session"

// NoSessionMessage is returned by /run_agent before /analyze was called.
const NoSessionMessage = "No analysis in progress. Please start a new analysis."

// Reply is one scripted HTTP response.
type Reply struct {
	Status int           // HTTP status; 0 means 200
	Body   any           // Encoded as JSON unless it is a string, which is written raw
	Delay  time.Duration // Wait before answering, or until the client gives up
}

// FakeBackend is an httptest server that speaks the analysis backend's
// endpoints. Agent replies are queued per agent; the last one repeats.
type FakeBackend struct {
	Server *httptest.Server

	// RequireSession makes /run_agent answer NoSessionMessage without a cookie.
	RequireSession bool

	mu         sync.Mutex
	replies    map[types.AgentID][]Reply
	calls      []types.AgentID
	analyses   []map[string]string
	stocks     Reply
	topStocks  Reply
	indicators Reply
	forms      []map[string]string
}

// NewFakeBackend starts a fake backend that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		replies:    map[types.AgentID][]Reply{},
		stocks:     Reply{Body: map[string]any{}},
		topStocks:  Reply{Body: []any{}},
		indicators: Reply{Body: map[string]any{"results": map[string]any{}}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", f.handleAnalyze)
	mux.HandleFunc("POST /run_agent/{agent}", f.handleRunAgent)
	mux.HandleFunc("GET /get_stock_data", f.handleStatic(func() Reply { return f.stocks }))
	mux.HandleFunc("GET /api/top_stocks", f.handleStatic(func() Reply { return f.topStocks }))
	mux.HandleFunc("POST /technical_indicators", f.handleIndicators)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server root.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// On queues replies for an agent.
func (f *FakeBackend) On(agent types.AgentID, replies ...Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[agent] = append(f.replies[agent], replies...)
}

// SetStocks sets the /get_stock_data reply.
func (f *FakeBackend) SetStocks(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stocks = r
}

// SetTopStocks sets the /api/top_stocks reply.
func (f *FakeBackend) SetTopStocks(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topStocks = r
}

// SetIndicators sets the /technical_indicators reply.
func (f *FakeBackend) SetIndicators(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indicators = r
}

// Calls returns the agents invoked so far, in order.
func (f *FakeBackend) Calls() []types.AgentID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.AgentID, len(f.calls))
	copy(out, f.calls)
	return out
}

// Analyses returns the /analyze forms received.
func (f *FakeBackend) Analyses() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.analyses...)
}

// IndicatorForms returns the /technical_indicators forms received.
func (f *FakeBackend) IndicatorForms() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.forms...)
}

func (f *FakeBackend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	form := readForm(r)
	f.mu.Lock()
	f.analyses = append(f.analyses, form)
	n := len(f.analyses)
	f.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: fmt.Sprintf("s%d", n), Path: "/"})
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, "<html><body>%s</body></html>", form["ticker"])
}

func (f *FakeBackend) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	agent := types.AgentID(r.PathValue("agent"))

	f.mu.Lock()
	f.calls = append(f.calls, agent)
	requireSession := f.RequireSession
	var reply Reply
	queue := f.replies[agent]
	switch {
	case len(queue) > 1:
		reply = queue[0]
		f.replies[agent] = queue[1:]
	case len(queue) == 1:
		reply = queue[0]
	default:
		reply = Reply{Body: map[string]any{"status": "error", "message": "unknown agent: " + string(agent)}}
	}
	f.mu.Unlock()

	if requireSession {
		if _, err := r.Cookie(SessionCookie); err != nil {
			writeReply(w, r, Reply{Body: map[string]any{"error": NoSessionMessage}})
			return
		}
	}
	writeReply(w, r, reply)
}

func (f *FakeBackend) handleIndicators(w http.ResponseWriter, r *http.Request) {
	form := readForm(r)
	f.mu.Lock()
	f.forms = append(f.forms, form)
	reply := f.indicators
	f.mu.Unlock()
	writeReply(w, r, reply)
}

func (f *FakeBackend) handleStatic(get func() Reply) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		reply := get()
		f.mu.Unlock()
		writeReply(w, r, reply)
	}
}

func readForm(r *http.Request) map[string]string {
	_ = r.ParseForm()
	out := map[string]string{}
	for k, v := range r.PostForm {
		out[k] = strings.Join(v, ",")
	}
	for k, v := range r.URL.Query() {
		if _, ok := out[k]; !ok {
			out[k] = strings.Join(v, ",")
		}
	}
	return out
}

func writeReply(w http.ResponseWriter, r *http.Request, reply Reply) {
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	if raw, ok := reply.Body.(string); ok {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(raw))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(reply.Body)
}
