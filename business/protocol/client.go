package protocol

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"
)

// Client knows how to deliver one command to a running node and collect the
// single line that comes back.
type Client struct {
	Addr    string
	Timeout time.Duration
}

// Send dials the node, writes the command, and returns the node's reply
// line with the trailing newline removed.
func (c Client) Send(cmd Command) (string, error) {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	conn, err := net.DialTimeout("tcp", c.Addr, timeout)
	if err != nil {
		return "", fmt.Errorf("connecting to node at %s: %w", c.Addr, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	data, err := cmd.Encode()
	if err != nil {
		return "", err
	}

	if _, err := conn.Write(data); err != nil {
		return "", fmt.Errorf("sending command: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading reply: %w", err)
	}

	return strings.TrimSuffix(reply, "\n"), nil
}
