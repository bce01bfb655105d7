// Package entsoetest provides an in-process stand-in for the transparency
// portal, for tests of code built on package entsoe.
package entsoetest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
)

const sessionName = "JSESSIONID"

// Reply is a canned answer to an export request, a zero Status means 200.
type Reply struct {
	Status int
	Body   string
}

// Throttled is what the portal answers when it wants the client to back off.
var Throttled = Reply{Status: http.StatusOK}

type exportKey struct {
	endpoint string
	day      string
}

// Portal serves logins and per day exports. Unknown exports, and exports
// requested without a logged in session, are answered with an empty body.
type Portal struct {
	username string
	password string
	store    *sessions.CookieStore

	mu          sync.Mutex
	loginAnswer string
	exports     map[exportKey]string
	queued      map[exportKey][]Reply
	always      map[exportKey]Reply
	logins      int
	requests    map[string]int
	lastParams  map[string]url.Values
}

func New(username, password string) *Portal {
	store := sessions.NewCookieStore([]byte("entsoetest-session-key-32-bytes!"))
	// httptest serves plain http, a Secure cookie would never come back.
	store.Options.Secure = false
	store.Options.SameSite = http.SameSiteLaxMode
	return &Portal{
		username:   username,
		password:   password,
		store:      store,
		exports:    make(map[exportKey]string),
		queued:     make(map[exportKey][]Reply),
		always:     make(map[exportKey]Reply),
		requests:   make(map[string]int),
		lastParams: make(map[string]url.Values),
	}
}

// Start serves the portal until the test ends and returns its base URL.
func (p *Portal) Start(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func dayKey(day time.Time) string {
	return day.UTC().Format("02.01.2006")
}

// SetExport registers the CSV body returned for endpoint on day.
func (p *Portal) SetExport(endpoint string, day time.Time, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exports[exportKey{endpoint, dayKey(day)}] = body
}

// Queue makes the next requests for endpoint on day return replies,
// in order, before the registered export is served.
func (p *Portal) Queue(endpoint string, day time.Time, replies ...Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := exportKey{endpoint, dayKey(day)}
	p.queued[k] = append(p.queued[k], replies...)
}

// Fail makes every request for endpoint on day return reply.
func (p *Portal) Fail(endpoint string, day time.Time, reply Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.always[exportKey{endpoint, dayKey(day)}] = reply
}

// RejectLogins makes the login endpoint answer with msg instead of "ok".
func (p *Portal) RejectLogins(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loginAnswer = msg
}

func (p *Portal) Logins() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logins
}

// Requests returns the number of export requests received for endpoint.
func (p *Portal) Requests(endpoint string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[endpoint]
}

// LastParams returns the query of the latest request for endpoint.
func (p *Portal) LastParams(endpoint string) url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastParams[endpoint]
}

func (p *Portal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "login" {
		p.login(w, r)
		return
	}
	p.export(w, r, path)
}

func (p *Portal) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("X-Ajax-call") != "true" {
		http.Error(w, "bad login request", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.logins++
	answer := p.loginAnswer
	p.mu.Unlock()

	q := r.URL.Query()
	if answer == "" && (q.Get("username") != p.username || q.Get("password") != p.password) {
		answer = "non_exists_user_or_bad_password"
	}
	if answer != "" {
		_, _ = w.Write([]byte(answer))
		return
	}

	session, _ := p.store.Get(r, sessionName)
	session.Values["user"] = p.username
	if err := session.Save(r, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (p *Portal) export(w http.ResponseWriter, r *http.Request, endpoint string) {
	q := r.URL.Query()
	day, _, _ := strings.Cut(q.Get("dateTime.dateTime"), " ")
	k := exportKey{endpoint, day}

	session, err := p.store.Get(r, sessionName)
	authenticated := err == nil && session.Values["user"] == p.username

	p.mu.Lock()
	p.requests[endpoint]++
	p.lastParams[endpoint] = q
	if !authenticated {
		p.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		return
	}
	reply, ok := p.always[k]
	if !ok {
		if queued := p.queued[k]; len(queued) > 0 {
			reply, ok = queued[0], true
			p.queued[k] = queued[1:]
		}
	}
	body, found := p.exports[k]
	p.mu.Unlock()

	if ok {
		if reply.Status == 0 {
			reply.Status = http.StatusOK
		}
		w.WriteHeader(reply.Status)
		_, _ = w.Write([]byte(reply.Body))
		return
	}
	if !found {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write([]byte(body))
}
