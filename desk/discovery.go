package main

import (
	"fmt"
	"net"
	"strings"
	"time"
)

const discoveryPort = 9999

// callSign is the payload prefix the backend broadcasts on the LAN,
// followed by its HTTP port: "GAMEDESK_API 8080".
const callSign = "GAMEDESK_API"

// discoverBackend waits for one beacon datagram and builds the backend
// base URL from the sender's address.
func discoverBackend(port int, timeout time.Duration) (string, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return "", fmt.Errorf("listen for beacon: %w", err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", err
	}

	buf := make([]byte, 256)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return "", fmt.Errorf("no beacon heard: %w", err)
		}

		fields := strings.Fields(string(buf[:n]))
		if len(fields) == 2 && fields[0] == callSign {
			return fmt.Sprintf("http://%s:%s", addr.IP, fields[1]), nil
		}
		// Someone else's broadcast; keep listening until the deadline.
	}
}
