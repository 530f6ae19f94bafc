// Package sshutil opens SSH connections using the user's ~/.ssh setup and
// tunnels container-engine sockets through them.
package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Client is an established SSH connection to one host.
type Client struct {
	conn *ssh.Client

	Target  string // The target as given (alias, user@host, host:port)
	Address string // The resolved host:port
}

var (
	logMu sync.RWMutex
	log   logger.Logger = logger.Noop()
)

// SetLogger routes sshutil warnings to l.
func SetLogger(l logger.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	if l == nil {
		l = logger.Noop()
	}
	log = l
}

func warnf(format string, args ...interface{}) {
	logMu.RLock()
	defer logMu.RUnlock()
	log.Warn(format, args...)
}

// matchWarningOnce limits the ssh_config Match warning to one per process.
var matchWarningOnce sync.Once

// StrictHostKeyChecking controls known_hosts verification. Disable only for
// throwaway test machines.
var StrictHostKeyChecking = true

// Dial connects to target, which may be an ssh_config alias, a hostname,
// user@hostname, hostname:port or user@hostname:port. HostName, Port, User
// and IdentityFile are taken from ~/.ssh/config when present.
//
// timeout bounds the TCP connect and the handshake; ctx cancels both.
func Dial(ctx context.Context, target string, timeout time.Duration) (*Client, error) {
	settings := resolveSettings(target)

	config, err := clientConfig(settings, timeout)
	if err != nil {
		var dErr *errors.Error
		if stderrors.As(err, &dErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't set up SSH for '%s'", target),
			"Check your keys are loaded: ssh-add -l")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	address := settings.address()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", target, address),
			suggestionForDialError(err))
	}

	// The handshake has no context of its own; a deadline on the raw
	// connection keeps a stalled server from hanging us.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()

		var mismatch *HostKeyMismatchError
		if stderrors.As(err, &mismatch) {
			return nil, errors.New(errors.ErrSSH, mismatch.Error(), mismatch.Suggestion())
		}

		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", target),
			suggestionForHandshakeError(err, settings.encryptedKeys))
	}
	_ = conn.SetDeadline(time.Time{})

	return &Client{
		conn:    ssh.NewClient(sshConn, chans, reqs),
		Target:  target,
		Address: address,
	}, nil
}

// DialSocket opens a stream to a unix socket on the remote host.
func (c *Client) DialSocket(ctx context.Context, path string) (net.Conn, error) {
	if c == nil || c.conn == nil {
		return nil, fmt.Errorf("ssh connection to %s is closed", c.target())
	}
	conn, err := c.conn.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial %s on %s: %w", path, c.target(), err)
	}
	return conn, nil
}

// SocketDialer returns a dial function that ignores the requested address and
// always reaches the remote socket at path. It plugs into HTTP transports
// whose requests should travel over this connection.
func (c *Client) SocketDialer(path string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, _, _ string) (net.Conn, error) {
		return c.DialSocket(ctx, path)
	}
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) target() string {
	if c == nil {
		return "<nil>"
	}
	return c.Target
}

// settings holds resolved SSH connection parameters.
type settings struct {
	hostname      string
	port          string
	user          string
	identityFile  string
	encryptedKeys []string
}

func (s *settings) address() string {
	return net.JoinHostPort(s.hostname, s.port)
}

// splitTarget breaks user@host:port into its parts. Missing parts are empty.
func splitTarget(target string) (user, host, port string) {
	if at := strings.LastIndex(target, "@"); at != -1 {
		user = target[:at]
		target = target[at+1:]
	}

	if h, p, err := net.SplitHostPort(target); err == nil && isDigits(p) {
		return user, strings.Trim(h, "[]"), p
	}
	return user, strings.Trim(target, "[]"), ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// resolveSettings applies, in increasing priority: defaults, ~/.ssh/config,
// then anything spelled out in target.
func resolveSettings(target string) *settings {
	user, host, port := splitTarget(target)

	s := &settings{hostname: host, port: "22", user: currentUser()}
	if user == "" {
		if testUser := os.Getenv("DTUI_TEST_SSH_USER"); testUser != "" {
			s.user = testUser
		}
	}

	applySSHConfig(s, host, filepath.Join(homeDir(), ".ssh", "config"))

	if user != "" {
		s.user = user
	}
	if port != "" {
		s.port = port
	}
	return s
}

// applySSHConfig overlays values for alias from the ssh_config file at path.
func applySSHConfig(s *settings, alias, path string) {
	content, matchLine, err := preprocessSSHConfig(path)
	if err != nil {
		return
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return
	}

	found := false
	set := func(key string, dst *string, transform func(string) string) {
		v, _ := cfg.Get(alias, key)
		if v == "" {
			return
		}
		if transform != nil {
			v = transform(v)
		}
		*dst = v
		found = true
	}
	set("HostName", &s.hostname, nil)
	set("Port", &s.port, nil)
	set("User", &s.user, nil)
	set("IdentityFile", &s.identityFile, expandPath)

	if matchLine > 0 && !found {
		matchWarningOnce.Do(func() {
			warnf("host '%s' not found in SSH config (a Match block at line %d may hide later entries; move the host above it)",
				alias, matchLine)
		})
	}
}

// clientConfig collects auth methods (agent, DTUI_TEST_SSH_KEY, IdentityFile,
// default keys) and the host key policy.
func clientConfig(s *settings, timeout time.Duration) (*ssh.ClientConfig, error) {
	var methods []ssh.AuthMethod

	tryKey := func(path string) {
		auth, err := keyFileAuth(path)
		if err != nil {
			var encErr *EncryptedKeyError
			if stderrors.As(err, &encErr) {
				s.encryptedKeys = append(s.encryptedKeys, path)
			}
			return
		}
		methods = append(methods, auth)
	}

	if a := agentAuth(); a != nil {
		methods = append(methods, a)
	}
	if testKey := os.Getenv("DTUI_TEST_SSH_KEY"); testKey != "" {
		tryKey(testKey)
	}
	if s.identityFile != "" {
		tryKey(s.identityFile)
	}
	for _, path := range defaultKeyPaths() {
		if path != s.identityFile {
			tryKey(path)
		}
	}

	if len(methods) == 0 {
		if len(s.encryptedKeys) > 0 {
			return nil, errors.New(errors.ErrSSH,
				fmt.Sprintf("Found SSH key(s) but they're encrypted: %s", strings.Join(s.encryptedKeys, ", ")),
				addKeysSuggestion("Add your key(s) to the agent:", s.encryptedKeys))
		}
		return nil, errors.New(errors.ErrSSH,
			"No SSH auth methods available",
			"Check your keys are loaded: ssh-add -l")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // only when the user turned checking off
	if StrictHostKeyChecking {
		cb, err := hostKeyCallbackFor(filepath.Join(homeDir(), ".ssh", "known_hosts"))
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ssh.ClientConfig{
		User:            s.user,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

var (
	agentOnce   sync.Once
	agentConn   net.Conn
	agentClient agent.ExtendedAgent
)

// agentAuth uses the SSH agent when it has at least one key loaded. The agent
// connection is shared by every Dial.
func agentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	agentOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return
		}
		agentConn = conn
		agentClient = agent.NewClient(conn)
	})
	if agentClient == nil {
		return nil
	}

	// An empty agent placed first makes servers reject later methods.
	if signers, err := agentClient.Signers(); err != nil || len(signers) == 0 {
		return nil
	}
	return ssh.PublicKeysCallback(agentClient.Signers)
}

// CloseAgent closes the shared SSH agent connection, if any.
func CloseAgent() {
	if agentConn != nil {
		agentConn.Close()
	}
}

// keyFileAuth loads a private key. Passphrase-protected keys yield
// *EncryptedKeyError.
func keyFileAuth(path string) (ssh.AuthMethod, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || isEncryptedPEM(pem) ||
			strings.Contains(err.Error(), "passphrase") {
			return nil, &EncryptedKeyError{Path: path}
		}
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

func defaultKeyPaths() []string {
	dir := filepath.Join(homeDir(), ".ssh")
	return []string{
		filepath.Join(dir, "id_ed25519"),
		filepath.Join(dir, "id_rsa"),
		filepath.Join(dir, "id_ecdsa"),
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func addKeysSuggestion(header string, keys []string) string {
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for _, key := range keys {
		if runtime.GOOS == "darwin" {
			fmt.Fprintf(&sb, "  ssh-add --apple-use-keychain %s\n", key)
		} else {
			fmt.Fprintf(&sb, "  ssh-add %s\n", key)
		}
	}
	sb.WriteString("\nNot sure which key? Check with: ssh -v <host>")
	return sb.String()
}

func suggestionForDialError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Is SSH running on that box? Try: ssh <host>"
	case strings.Contains(msg, "no route to host"), strings.Contains(msg, "network is unreachable"):
		return "Can't route to the host. Check your network connection."
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "Connection timed out. Host might be offline or blocked by a firewall."
	case strings.Contains(msg, "no such host"):
		return "The name didn't resolve. Check the host name or your ~/.ssh/config alias."
	}
	return "Make sure the host is reachable: ping <host>"
}

func suggestionForHandshakeError(err error, encryptedKeys []string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "no supported methods"):
		if len(encryptedKeys) > 0 {
			return addKeysSuggestion("Your key(s) are encrypted. Add them to the agent:", encryptedKeys)
		}
		return "Auth failed. Check your keys are loaded: ssh-add -l"
	case strings.Contains(msg, "knownhosts: key is unknown"):
		return "This host isn't in known_hosts yet. Connect once with: ssh <host>"
	case strings.Contains(msg, "host key"):
		return "Host key issue. Try connecting manually first: ssh <host>"
	}
	return "Something went wrong during SSH setup. Try: ssh <host>"
}

// EncryptedKeyError is returned when an SSH key requires a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

// HostKeyMismatchError is returned when a server's key differs from the one
// recorded in known_hosts.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns the commands that refresh the known_hosts entry.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	known := make([]string, 0, len(e.Want))
	for _, k := range e.Want {
		known = append(known, k.Key.Type())
	}
	knownStr := "unknown"
	if len(known) > 0 {
		knownStr = strings.Join(known, ", ")
	}

	return fmt.Sprintf(
		"The server's host key doesn't match what's in known_hosts.\n"+
			"  Known types: %s\n"+
			"  Server sent: %s\n\n"+
			"  To update known_hosts with all key types:\n"+
			"    ssh-keyscan -t rsa,ecdsa,ed25519 %s >> %s\n\n"+
			"  Or remove the old entry:\n"+
			"    ssh-keygen -R %s",
		knownStr, e.ReceivedType, host, e.KnownHosts, host)
}

// preprocessSSHConfig returns the config content before the first Match
// directive, which ssh_config can't parse, and that directive's 1-based line
// (0 when there is none).
func preprocessSSHConfig(path string) ([]byte, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			return []byte(strings.Join(lines[:i], "\n")), i + 1, nil
		}
	}
	return content, 0, nil
}

func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED"))
}

// hostKeyCallbackFor verifies against known_hosts (created empty when
// missing) and turns key mismatches into *HostKeyMismatchError.
func hostKeyCallbackFor(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(knownHostsPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create .ssh directory: %w", err)
		}
		if err := os.WriteFile(knownHostsPath, nil, 0o600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
			return &HostKeyMismatchError{
				Hostname:     hostname,
				ReceivedType: key.Type(),
				KnownHosts:   knownHostsPath,
				Want:         keyErr.Want,
			}
		}
		return err
	}, nil
}
