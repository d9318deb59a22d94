package notifier

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	config "github.com/lmello0/status-page/internal/config/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSMTP accepts a single session and returns the commands and message it saw.
func fakeSMTP(t *testing.T) (string, <-chan []string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		var seen []string
		reply("220 localhost ESMTP")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				out <- seen
				return
			}
			line = strings.TrimRight(line, "\r\n")
			seen = append(seen, line)
			switch cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); cmd {
			case "EHLO", "HELO":
				reply("250 localhost")
			case "DATA":
				reply("354 go ahead")
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						out <- seen
						return
					}
					if l == ".\r\n" {
						break
					}
					seen = append(seen, strings.TrimRight(l, "\r\n"))
				}
				reply("250 queued")
			case "QUIT":
				reply("221 bye")
				out <- seen
				return
			default:
				reply("250 ok")
			}
		}
	}()
	return ln.Addr().String(), out
}

func TestMailer_SendPlain(t *testing.T) {
	addr, seen := fakeSMTP(t)
	m := NewMailer(config.SMTP{Addr: addr, From: "status@example.com", SubjPrefix: "[Status]", Timeout: 2 * time.Second}, zap.NewNop())

	require.NoError(t, m.Send(context.Background(), "ops@example.com", "api is OUTAGE", "line one\nline two"))

	var lines []string
	select {
	case lines = <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("smtp session did not finish")
	}
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "MAIL FROM:<status@example.com>")
	assert.Contains(t, joined, "RCPT TO:<ops@example.com>")
	assert.Contains(t, joined, "Subject: [Status] api is OUTAGE")
	assert.Contains(t, joined, "line one\nline two")
}

func TestMailer_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := NewMailer(config.SMTP{Addr: addr, From: "status@example.com", Timeout: time.Second}, zap.NewNop())
	err = m.Send(context.Background(), "ops@example.com", "s", "b")
	assert.ErrorContains(t, err, "smtp dial")
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "smtp.example.com", hostOf("smtp.example.com:587"))
	assert.Equal(t, "smtp.example.com", hostOf("smtp.example.com"))
	assert.Equal(t, "::1", hostOf("[::1]:25"))
}
