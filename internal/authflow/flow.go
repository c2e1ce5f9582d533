package authflow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/j-veylop/codex-switch-tui/internal/logger"
)

const maxTokenResponseBytes = 1 << 20

var (
	// ErrStateMismatch is returned when the callback state does not match.
	ErrStateMismatch = errors.New("oauth callback state mismatch")
	// ErrCancelled is returned when the flow was cancelled before completion.
	ErrCancelled = errors.New("oauth login cancelled")
)

// Config parameterises a login flow.
type Config struct {
	Issuer       string
	ClientID     string
	CallbackPort int
}

// Tokens is the result of a completed code exchange.
type Tokens struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims are the identity fields parsed out of the id token.
type Claims struct {
	Email     string
	PlanType  string
	AccountID string
}

// Flow is one in-progress browser login: a callback server bound to the
// loopback port plus the PKCE material needed to exchange the code.
type Flow struct {
	cfg         Config
	pkce        PKCEPair
	state       string
	redirectURI string
	authURL     string
	listener    net.Listener
	server      *http.Server
	resultCh    chan result
	resultOnce  sync.Once
	closeOnce   sync.Once
}

type result struct {
	code string
	err  error
}

// Start binds the loopback callback port and returns the flow with its
// authorization URL ready to hand to a browser.
func Start(cfg Config) (*Flow, error) {
	pkce, err := NewPKCEPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate pkce pair: %w", err)
	}
	state, err := NewState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback port %d: %w", cfg.CallbackPort, err)
	}

	f := &Flow{
		cfg:         cfg,
		pkce:        pkce,
		state:       state,
		redirectURI: fmt.Sprintf("http://localhost:%d/auth/callback", cfg.CallbackPort),
		listener:    listener,
		resultCh:    make(chan result, 1),
	}
	f.authURL = f.buildAuthorizeURL()

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/callback", f.handleCallback)
	f.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.deliver(result{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()

	return f, nil
}

// AuthURL returns the authorization URL to open in the browser.
func (f *Flow) AuthURL() string {
	return f.authURL
}

// Port returns the bound callback port.
func (f *Flow) Port() int {
	return f.listener.Addr().(*net.TCPAddr).Port
}

// buildAuthorizeURL assembles the issuer authorization URL with the PKCE
// challenge and the extra parameters the Codex issuer requires.
func (f *Flow) buildAuthorizeURL() string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", f.cfg.ClientID)
	q.Set("redirect_uri", f.redirectURI)
	q.Set("scope", "openid profile email offline_access")
	q.Set("code_challenge", f.pkce.Challenge)
	q.Set("code_challenge_method", ChallengeMethodS256)
	q.Set("id_token_add_organizations", "true")
	q.Set("codex_cli_simplified_flow", "true")
	q.Set("state", f.state)
	q.Set("originator", "codex_cli_rs")
	return f.cfg.Issuer + "/oauth/authorize?" + q.Encode()
}

// handleCallback receives the browser redirect with the authorization code.
func (f *Flow) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errMsg := q.Get("error"); errMsg != "" {
		http.Error(w, "Login failed. You can close this window.", http.StatusBadRequest)
		f.deliver(result{err: fmt.Errorf("authorization failed: %s", errMsg)})
		return
	}
	if q.Get("state") != f.state {
		http.Error(w, "State mismatch. You can close this window.", http.StatusBadRequest)
		f.deliver(result{err: ErrStateMismatch})
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code.", http.StatusBadRequest)
		f.deliver(result{err: errors.New("callback missing authorization code")})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, "<html><body><p>Login complete. You can close this window.</p></body></html>")
	f.deliver(result{code: code})
}

// deliver hands the callback result over exactly once.
func (f *Flow) deliver(res result) {
	f.resultOnce.Do(func() {
		f.resultCh <- res
	})
}

// Wait blocks until the browser redirect arrives, then exchanges the code
// for tokens. Cancelling the context aborts the wait.
func (f *Flow) Wait(ctx context.Context) (*Tokens, error) {
	defer f.Close()

	select {
	case <-ctx.Done():
		return nil, ErrCancelled
	case res := <-f.resultCh:
		if res.err != nil {
			return nil, res.err
		}
		return f.exchangeCode(ctx, res.code)
	}
}

// exchangeCode trades the authorization code for tokens at the issuer.
func (f *Flow) exchangeCode(ctx context.Context, code string) (*Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", f.redirectURI)
	form.Set("client_id", f.cfg.ClientID)
	form.Set("code_verifier", f.pkce.Verifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.cfg.Issuer+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, string(body))
	}

	var tokens Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	return &tokens, nil
}

// Close shuts the callback server down. Safe to call more than once.
func (f *Flow) Close() {
	f.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := f.server.Shutdown(ctx); err != nil {
			logger.Error("failed to shut down callback server", "error", err)
		}
	})
}

// ParseIDTokenClaims extracts identity fields from a JWT id token without
// verifying the signature; the token came straight from the issuer over TLS.
func ParseIDTokenClaims(idToken string) Claims {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return Claims{}
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}
	}

	var raw struct {
		Email string `json:"email"`
		Auth  struct {
			ChatGPTPlanType  string `json:"chatgpt_plan_type"`
			ChatGPTAccountID string `json:"chatgpt_account_id"`
		} `json:"https://api.openai.com/auth"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Claims{}
	}

	return Claims{
		Email:     raw.Email,
		PlanType:  raw.Auth.ChatGPTPlanType,
		AccountID: raw.Auth.ChatGPTAccountID,
	}
}
