// SPDX-License-Identifier: MIT
package transport

import (
	"fbank/internal/log"
)

// LoggingTransport implements the Transport interface by logging events.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Debug("transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data. Failed requests are logged at warn level,
// everything else at debug.
func (lt *LoggingTransport) Send(data any) error {
	ev, ok := data.(Event)
	if !ok {
		log.Debugf("transport: %T: %+v", data, data)
		return nil
	}
	if ev.Err != "" {
		log.Warnf("transport: request %s from %s failed after %s: %s", ev.ID, ev.RemoteAddr, ev.Elapsed, ev.Err)
		return nil
	}
	log.Debugf("transport: request %s from %s: %d bytes, %d samples, %d frames in %s",
		ev.ID, ev.RemoteAddr, ev.Bytes, ev.Samples, ev.Frames, ev.Elapsed)
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	log.Debug("transport: LoggingTransport closed")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
