// Package notifier posts desktop notifications through the habittasker tray
// helper. The helper advertises itself with a lockfile holding
// "port|pid|secret" and accepts authenticated POSTs on 127.0.0.1.
package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/logger"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

var (
	// ErrHelperMissing means no lockfile was found: the helper was never
	// started or has been uninstalled.
	ErrHelperMissing = errors.New("habittasker-tray is not running")
	// ErrHelperUnavailable means a lockfile exists but it is unusable or its
	// process is gone.
	ErrHelperUnavailable = errors.New("habittasker-tray is unavailable")
)

// SecretHeader carries the lockfile secret.
const SecretHeader = "X-Habittasker-Secret"

type Notifier struct {
	client *http.Client
}

type WebhookPayload struct {
	Text       string `json:"text"`
	Title      string `json:"title,omitempty"`
	DurationMs uint32 `json:"duration_ms"`
}

func New() *Notifier {
	return &Notifier{client: &http.Client{Timeout: 5 * time.Second}}
}

// Notify delivers one notification.
func (n *Notifier) Notify(ctx context.Context, title, text string) error {
	port, secret, err := n.locate()
	if err != nil {
		return err
	}

	payload := WebhookPayload{
		Text:       text,
		Title:      title,
		DurationMs: constants.NotificationDurationMs,
	}
	if err := n.send(ctx, port, secret, payload); err != nil {
		return err
	}
	logger.Debug("Notification sent", "title", title)
	return nil
}

// Check reports whether a verified helper is reachable, without posting.
func (n *Notifier) Check() error {
	_, _, err := n.locate()
	return err
}

func (n *Notifier) locate() (port, secret string, err error) {
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return "", "", err
	}
	return findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName))
}

// GetTrayAppConfigDir returns the directory holding the helper's lockfile.
// The helper's settings.json may redirect it with "lockfile_dir".
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err != nil {
		return trayConfigDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err != nil {
		logger.Warn("Ignoring unreadable tray settings", "error", err)
		return trayConfigDir, nil
	}
	if d := store.Settings.LockfileDir; d != nil && *d != "" {
		return *d, nil
	}
	return trayConfigDir, nil
}

func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrHelperMissing
	}

	unavailable := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrHelperUnavailable, fmt.Sprintf(format, args...))
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", unavailable("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", unavailable("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", unavailable("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", unavailable("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", unavailable("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return "", "", unavailable("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", unavailable("process %d not running", pid)
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayProcessPrefix) {
		return "", "", unavailable("process with PID %d is not %s (is %s)", pid, constants.TrayProcessPrefix, process.Executable())
	}

	return port, secret, nil
}

func (n *Notifier) send(ctx context.Context, port, secret string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://127.0.0.1:"+port, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, secret)

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach notifier: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
}
