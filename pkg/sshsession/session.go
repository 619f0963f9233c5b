// Package sshsession wraps one authenticated remote shell to one
// device over golang.org/x/crypto/ssh.
package sshsession

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/netdiscover/netdiscover/pkg/config"
	"github.com/netdiscover/netdiscover/pkg/errs"
	"github.com/netdiscover/netdiscover/pkg/logging"
)

// promptSuffixes are the characters Cisco IOS/XE CLI prompts end with.
const promptSuffixes = "#>$"

// readTimeout bounds how long Run waits for a command's output before
// giving up with a timeout classification.
const readTimeout = 30 * time.Second

// Session wraps one authenticated shell channel to one device. Not
// safe for concurrent use: callers must not interleave calls to Run
// on the same Session from more than one goroutine.
type Session struct {
	device   string
	client   *ssh.Client
	sess     *ssh.Session
	stdin    io.WriteCloser
	stdout   *bufio.Reader
	prompt   string
	closed   bool
}

// Open dials and authenticates a shell session to host:port using the
// supplied credentials, and drains the device's banner/initial prompt.
// On failure the returned error is an *errs.DeviceError classified as
// config (unusable key settings), auth, timeout, or transport.
func Open(hostname, addr string, creds config.Credentials, port int, timeoutSeconds int) (*Session, error) {
	if port == 0 {
		port = config.DefaultPort
	}
	if timeoutSeconds == 0 {
		timeoutSeconds = config.DefaultTimeoutSeconds
	}

	auths, err := authMethods(creds)
	if err != nil {
		return nil, errs.New(hostname, errs.KindConfig, err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auths,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         time.Duration(timeoutSeconds) * time.Second,
	}

	dialAddr := fmt.Sprintf("%s:%d", addr, port)
	client, err := ssh.Dial("tcp", dialAddr, clientConfig)
	if err != nil {
		return nil, errs.New(hostname, classifyDialError(err), err)
	}

	sshSess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, errs.New(hostname, errs.KindTransport, err)
	}

	stdin, err := sshSess.StdinPipe()
	if err != nil {
		sshSess.Close()
		client.Close()
		return nil, errs.New(hostname, errs.KindTransport, err)
	}
	stdout, err := sshSess.StdoutPipe()
	if err != nil {
		sshSess.Close()
		client.Close()
		return nil, errs.New(hostname, errs.KindTransport, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO: 0,
	}
	if err := sshSess.RequestPty("vt100", 0, 400, modes); err != nil {
		sshSess.Close()
		client.Close()
		return nil, errs.New(hostname, errs.KindTransport, err)
	}
	if err := sshSess.Shell(); err != nil {
		sshSess.Close()
		client.Close()
		return nil, errs.New(hostname, errs.KindTransport, err)
	}

	s := &Session{
		device: hostname,
		client: client,
		sess:   sshSess,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}

	// Drain the banner and initial prompt so the first Run call's
	// output does not include login noise.
	if _, err := s.readUntilPrompt(context.Background(), readTimeout); err != nil {
		s.Close()
		return nil, errs.New(hostname, errs.KindTimeout, err)
	}
	// Disable paging so multi-screen "show" output doesn't stall on "--More--".
	if _, err := s.Run(context.Background(), "terminal length 0"); err != nil {
		logging.WithDevice(hostname).WithField("err", err).Warn("could not disable terminal paging")
	}

	return s, nil
}

func authMethods(creds config.Credentials) ([]ssh.AuthMethod, error) {
	if creds.UseKeys {
		if creds.KeyFile == "" {
			return nil, fmt.Errorf("use_keys is set but key_file is empty")
		}
		signer, err := loadSigner(creds.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load key %s: %w", creds.KeyFile, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	return []ssh.AuthMethod{ssh.Password(creds.Password)}, nil
}

func classifyDialError(err error) errs.Kind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "permission denied"):
		return errs.KindAuth
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "i/o timeout"):
		return errs.KindTimeout
	default:
		return errs.KindTransport
	}
}

// Run sends command and returns the device's full output up to (but
// not including) the next CLI prompt. Requires an open session. If ctx
// is cancelled before the prompt is seen, Run returns promptly with a
// timeout-classified error instead of waiting out the full read
// timeout.
func (s *Session) Run(ctx context.Context, command string) (string, error) {
	if s.closed {
		return "", errs.New(s.device, errs.KindTransport, fmt.Errorf("session is closed"))
	}

	if _, err := fmt.Fprintf(s.stdin, "%s\n", command); err != nil {
		return "", errs.New(s.device, errs.KindTransport, err)
	}

	out, err := s.readUntilPrompt(ctx, readTimeout)
	if err != nil {
		return "", errs.New(s.device, errs.KindTimeout, err)
	}

	return stripEcho(out, command), nil
}

// Enable elevates privilege with the optional enable secret. Failures
// are non-fatal: the caller should log and continue in unprivileged
// mode.
func (s *Session) Enable(ctx context.Context, secret string) error {
	if _, err := fmt.Fprintf(s.stdin, "enable\n"); err != nil {
		return errs.New(s.device, errs.KindTransport, err)
	}
	out, err := s.readUntilDelim(ctx, readTimeout, "Password:", promptSuffixes)
	if err != nil {
		return errs.New(s.device, errs.KindTimeout, err)
	}
	if strings.Contains(out, "Password:") {
		if _, err := fmt.Fprintf(s.stdin, "%s\n", secret); err != nil {
			return errs.New(s.device, errs.KindTransport, err)
		}
		if _, err := s.readUntilPrompt(ctx, readTimeout); err != nil {
			return errs.New(s.device, errs.KindAuth, err)
		}
	}
	return nil
}

// Close tears the channel down. Idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.sess != nil {
		s.sess.Close()
	}
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

// readUntilPrompt reads until a line ending in one of promptSuffixes
// is seen, returning everything read up to that point.
func (s *Session) readUntilPrompt(ctx context.Context, timeout time.Duration) (string, error) {
	return s.readUntilDelim(ctx, timeout, "", promptSuffixes)
}

// readUntilDelim reads byte-by-byte until either extraDelim appears in
// the accumulated buffer or the most recently completed line ends in
// one of promptChars. It also returns early, with a timeout-classified
// error, as soon as ctx is done.
func (s *Session) readUntilDelim(ctx context.Context, timeout time.Duration, extraDelim string, promptChars string) (string, error) {
	deadline := time.Now().Add(timeout)
	var buf strings.Builder

	type readResult struct {
		b   byte
		err error
	}
	byteCh := make(chan readResult, 1)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if time.Now().After(deadline) {
			return buf.String(), fmt.Errorf("timed out waiting for prompt")
		}
		select {
		case <-ctx.Done():
			return buf.String(), fmt.Errorf("context done waiting for prompt: %w", ctx.Err())
		default:
		}

		go func() {
			b, err := s.stdout.ReadByte()
			byteCh <- readResult{b, err}
		}()

		select {
		case <-ctx.Done():
			return buf.String(), fmt.Errorf("context done waiting for prompt: %w", ctx.Err())
		case <-timer.C:
			return buf.String(), fmt.Errorf("timed out waiting for prompt")
		case r := <-byteCh:
			if r.err != nil {
				if r.err == io.EOF {
					return buf.String(), fmt.Errorf("connection closed: %w", r.err)
				}
				return buf.String(), r.err
			}
			buf.WriteByte(r.b)
		}

		if extraDelim != "" && strings.Contains(buf.String(), extraDelim) {
			return buf.String(), nil
		}

		trimmed := strings.TrimRight(buf.String(), " \r\n")
		if isPromptEnd(trimmed, promptChars) && looksLikePromptLine(trimmed) {
			return buf.String(), nil
		}
	}
}

func isPromptEnd(s string, chars string) bool {
	if s == "" {
		return false
	}
	return strings.ContainsRune(chars, rune(s[len(s)-1]))
}

// looksLikePromptLine guards against false-positive matches on
// unrelated '#'/'>' characters that appear mid-output, by requiring
// the candidate prompt line to be short and on its own line.
func looksLikePromptLine(s string) bool {
	idx := strings.LastIndexAny(s, "\n")
	line := s[idx+1:]
	return len(line) > 0 && len(line) < 64
}

// stripEcho removes the echoed command and trailing prompt line from
// raw session output.
func stripEcho(raw, command string) string {
	lines := strings.Split(raw, "\n")
	var out []string
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if i == 0 && strings.TrimSpace(trimmed) == strings.TrimSpace(command) {
			continue
		}
		if i == len(lines)-1 && looksLikePromptLine(trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

// loadSigner reads and parses a private key file. Declared as a var so
// tests can stub it without touching the filesystem.
var loadSigner = func(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(data)
}
