package transport

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ziutek/telnet"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/logger"
)

const (
	DefaultTimeout   = 120 * time.Second // slow boxes need plenty for full running-config dumps
	BufferSize       = 4096
	PromptPassword   = "Password:"
	PromptEnable     = ">"
	PromptPrivileged = "#"
)

var telnetLog = logger.GetLogger("transport/telnet")

// TelnetClient manages a Telnet connection to a switch
type TelnetClient struct {
	conn         *telnet.Conn
	config       entities.TargetConfig
	authSequence []entities.AuthPrompt
}

// NewTelnetClient creates a new Telnet client with the given configuration
func NewTelnetClient(cfg entities.TargetConfig) *TelnetClient {
	return &TelnetClient{config: cfg}
}

// SetAuthSequence configures the authentication sequence for this client
func (tc *TelnetClient) SetAuthSequence(prompts []entities.AuthPrompt) {
	tc.authSequence = prompts
}

// Connect establishes a Telnet connection to the switch
func (tc *TelnetClient) Connect() error {
	if tc.conn != nil {
		return nil
	}
	conn, err := telnet.Dial("tcp", tc.config.Target+":23")
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", tc.config.Target, err)
	}
	tc.conn = conn
	telnetLog.Debugf("Connected to %s", tc.config.Target)

	// Use the driver supplied auth sequence when set, default to IOS
	var prompts []entities.AuthPrompt
	if len(tc.authSequence) > 0 {
		prompts = tc.authSequence
	} else {
		prompts = []entities.AuthPrompt{
			{WaitFor: "Username:", SendCmd: tc.config.Username + "\n"},
			{WaitFor: PromptPassword, SendCmd: tc.config.Password + "\n"},
			{WaitFor: PromptEnable, SendCmd: "enable\n"},
			{WaitFor: PromptPassword, SendCmd: tc.config.EnablePassword + "\n"},
			{WaitFor: PromptPrivileged, SendCmd: "terminal length 0\n"},
			{WaitFor: PromptPrivileged, SendCmd: ""},
		}
	}

	for _, p := range prompts {
		output, err := tc.readUntil(p.WaitFor, DefaultTimeout)
		if err != nil {
			return fmt.Errorf("failed to wait for %s: %v, output: %s", p.WaitFor, err, output)
		}
		if p.SendCmd != "" {
			tc.conn.SetWriteDeadline(time.Now().Add(DefaultTimeout))
			tc.conn.Write([]byte(p.SendCmd))
			telnetLog.Debugf("Sent response for prompt %s", p.WaitFor)
		}
	}
	return nil
}

// readUntil reads from the Telnet connection until the specified pattern
// is found. The read deadline is refreshed per read so a session cached
// across sync runs does not go stale.
func (tc *TelnetClient) readUntil(pattern string, timeout time.Duration) (string, error) {
	buffer := make([]byte, BufferSize)
	var output strings.Builder
	output.Grow(BufferSize)
	deadline := time.Now().Add(timeout)
	for {
		tc.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, err := tc.conn.Read(buffer)
		if n > 0 {
			output.Write(buffer[:n])
			telnetLog.Tracef("Read: %s", string(buffer[:n]))
			if strings.Contains(output.String(), pattern) {
				return output.String(), nil
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if time.Now().After(deadline) {
					return output.String(), fmt.Errorf("timeout waiting for %s", pattern)
				}
				continue
			}
			return output.String(), fmt.Errorf("read error: %v", err)
		}
		if time.Now().After(deadline) {
			return output.String(), fmt.Errorf("timeout waiting for %s", pattern)
		}
	}
}

// Disconnect closes the Telnet connection
func (tc *TelnetClient) Disconnect() {
	if tc.conn != nil {
		tc.conn.Close()
		telnetLog.Debugf("Disconnected from %s", tc.config.Target)
		tc.conn = nil
	}
}

func (tc *TelnetClient) IsConnected() bool {
	return tc.conn != nil
}

// ExecuteCommand sends a command to the switch and returns its output
func (tc *TelnetClient) ExecuteCommand(cmd string) (string, error) {
	telnetLog.Debugf("Executing: %s", cmd)
	tc.conn.SetWriteDeadline(time.Now().Add(DefaultTimeout))
	tc.conn.Write([]byte(cmd + "\n"))
	output, err := tc.readUntil(PromptPrivileged, DefaultTimeout)
	if err != nil {
		return "", fmt.Errorf("error executing %s: %v", cmd, err)
	}
	lines := strings.Split(output, "\n")
	if len(lines) > 1 {
		output = strings.Join(lines[1:len(lines)-1], "\n")
	} else {
		output = ""
	}
	telnetLog.Tracef("Output for '%s':\n%s", cmd, output)
	return output, nil
}
