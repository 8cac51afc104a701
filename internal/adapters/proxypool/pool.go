package proxypool

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	xproxy "golang.org/x/net/proxy"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

const probeTimeout = 10 * time.Second

// Pool is a file-backed proxy pool: one proxy URL per line, blank lines
// and #-comments skipped. Probing strategy depends on the scheme:
// SOCKS5 proxies get a dialer handshake, HTTP(S) proxies a proxied GET
// against probeURL.
type Pool struct {
	proxies  []string
	probeURL string
	logger   *zap.Logger

	// probe is swappable in tests.
	probe func(ctx context.Context, proxyURL string) error
}

var _ ports.ProxyPool = (*Pool)(nil)

func NewFromFile(path, probeURL string, logger *zap.Logger) (*Pool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open proxies file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var proxies []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		normalized, err := normalizeProxyURL(line)
		if err != nil {
			logger.Warn("skipping invalid proxy line", zap.String("line", line), zap.Error(err))
			continue
		}
		proxies = append(proxies, normalized)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read proxies file: %w", err)
	}

	pool := &Pool{proxies: proxies, probeURL: probeURL, logger: logger}
	pool.probe = pool.probeProxy
	return pool, nil
}

func normalizeProxyURL(line string) (string, error) {
	if !strings.Contains(line, "://") {
		line = "http://" + line
	}
	parsed, err := url.Parse(line)
	if err != nil {
		return "", fmt.Errorf("parse proxy url: %w", err)
	}
	switch parsed.Scheme {
	case "http", "https", "socks5":
	default:
		return "", fmt.Errorf("unsupported proxy scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("proxy url missing host")
	}
	return parsed.String(), nil
}

func (p *Pool) Check(ctx context.Context, proxyURL string) bool {
	if proxyURL == "" {
		return false
	}
	if err := p.probe(ctx, proxyURL); err != nil {
		p.logger.Debug("proxy probe failed", zap.String("proxy", proxyURL), zap.Error(err))
		return false
	}
	return true
}

func (p *Pool) Next(ctx context.Context, current string) (string, error) {
	for _, candidate := range p.proxies {
		if candidate == current {
			continue
		}
		if p.Check(ctx, candidate) {
			return candidate, nil
		}
	}
	return "", domain.ErrNoWorkingProxy
}

func (p *Pool) probeProxy(ctx context.Context, proxyURL string) error {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}
	if parsed.Scheme == "socks5" {
		return p.probeSOCKS5(ctx, parsed)
	}
	return p.probeHTTP(ctx, parsed)
}

func (p *Pool) probeSOCKS5(ctx context.Context, proxyURL *url.URL) error {
	var auth *xproxy.Auth
	if proxyURL.User != nil {
		password, _ := proxyURL.User.Password()
		auth = &xproxy.Auth{User: proxyURL.User.Username(), Password: password}
	}

	dialer, err := xproxy.SOCKS5("tcp", proxyURL.Host, auth, &net.Dialer{Timeout: probeTimeout})
	if err != nil {
		return fmt.Errorf("build socks5 dialer: %w", err)
	}

	target := p.probeTarget()
	conn, err := dialContext(ctx, dialer, "tcp", target)
	if err != nil {
		return fmt.Errorf("socks5 dial %s: %w", target, err)
	}
	return conn.Close()
}

func (p *Pool) probeHTTP(ctx context.Context, proxyURL *url.URL) error {
	client := &http.Client{
		Timeout:   probeTimeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.probeURL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *Pool) probeTarget() string {
	parsed, err := url.Parse(p.probeURL)
	if err != nil || parsed.Host == "" {
		return "1.1.1.1:443"
	}
	host := parsed.Host
	if parsed.Port() == "" {
		host = net.JoinHostPort(parsed.Hostname(), "443")
	}
	return host
}

// dialContext adapts x/net/proxy dialers that may not implement
// ContextDialer.
func dialContext(ctx context.Context, dialer xproxy.Dialer, network, address string) (net.Conn, error) {
	if contextDialer, ok := dialer.(xproxy.ContextDialer); ok {
		return contextDialer.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	results := make(chan dialResult, 1)
	go func() {
		conn, err := dialer.Dial(network, address)
		results <- dialResult{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if result := <-results; result.conn != nil {
				_ = result.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case result := <-results:
		return result.conn, result.err
	}
}
