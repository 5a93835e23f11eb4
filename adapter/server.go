package adapter

import (
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog/log"
)

// ServeStdio runs a single debug session over stdin/stdout. Diagnostics
// go to stderr only; stdout carries nothing but framed protocol messages.
func ServeStdio(factory RuntimeFactory) error {
	session := NewSession(os.Stdin, os.Stdout, factory)
	return session.Run()
}

// ServeTCP listens on 127.0.0.1:port and serves one client at a time.
// Every connection gets a fresh session, so protocol flags, breakpoints,
// hit counters, and variable handles never leak across reconnects.
// A bind failure is fatal and is returned to the caller.
func ServeTCP(port int, factory RuntimeFactory) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer ln.Close()
	log.Info().Str("addr", addr).Msg("listening for debug clients")

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		session := NewSession(conn, conn, factory)
		if err := session.Run(); err != nil {
			log.Warn().Err(err).Msg("session ended with error")
		}
		_ = conn.Close()
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client disconnected, awaiting next")
	}
}
