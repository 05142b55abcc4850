package ipc

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/fin-foresight/foresight/internal/types"
)

// Client connects to an IPC server to send messages.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// NewClientForRun creates a client for a specific run's IPC socket.
func NewClientForRun(runID string) *Client {
	return NewClient(SocketPath(runID))
}

// SetTimeout sets the connection and read/write timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Send sends a message and waits for a response.
// The response is parsed and returned as the appropriate message type.
func (c *Client) Send(msg any) (any, error) {
	// Connect to socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IPC socket %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	// Set deadline for the entire operation
	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	// Marshal and send message
	data, err := Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	// Add newline delimiter
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	responseLine, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	response, err := ParseMessage(responseLine)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return response, nil
}

// Status requests the run's progress snapshot.
func (c *Client) Status() (*StatusMessage, error) {
	response, err := c.Send(&GetStatusMessage{Type: MsgGetStatus})
	if err != nil {
		return nil, err
	}

	switch r := response.(type) {
	case *StatusMessage:
		return r, nil
	case *ErrorMessage:
		return nil, fmt.Errorf("server error: %s", r.Message)
	default:
		return nil, fmt.Errorf("unexpected response type: %T", response)
	}
}

// Result requests the latest presented result of an agent.
func (c *Client) Result(agent types.AgentID) (*ResultMessage, error) {
	response, err := c.Send(&GetResultMessage{Type: MsgGetResult, Agent: agent})
	if err != nil {
		return nil, err
	}

	switch r := response.(type) {
	case *ResultMessage:
		return r, nil
	case *ErrorMessage:
		return nil, fmt.Errorf("server error: %s", r.Message)
	default:
		return nil, fmt.Errorf("unexpected response type: %T", response)
	}
}
