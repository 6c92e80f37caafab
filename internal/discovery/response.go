package discovery

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var errNoLocation = errors.New("response has no location header")

// ParseResponse reads a datagram shaped like an HTTP response (status line and
// headers, no body). The header block ends at the blank line or at the end of
// the datagram, whichever comes first.
func ParseResponse(datagram []byte) (Response, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(terminateHeaders(datagram))), nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to parse SSDP response: %w", err)
	}
	// Nothing follows the headers; closing only releases the reader.
	_ = resp.Body.Close()

	r := Response{
		Location: resp.Header.Get("Location"),
		USN:      resp.Header.Get("USN"),
		ST:       resp.Header.Get("ST"),
		MaxAge:   parseMaxAge(resp.Header.Get("Cache-Control")),
	}
	if r.Location == "" {
		return Response{}, errNoLocation
	}
	return r, nil
}

// terminateHeaders appends the blank line that ends the header block when the
// responder left it out or the read buffer cut the datagram short.
func terminateHeaders(datagram []byte) []byte {
	if bytes.Contains(datagram, []byte("\r\n\r\n")) || bytes.Contains(datagram, []byte("\n\n")) {
		return datagram
	}

	out := bytes.TrimRight(datagram, "\r\n")
	// A truncated read can leave half a header name behind
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 && !bytes.Contains(out[i+1:], []byte(":")) {
		out = bytes.TrimRight(out[:i], "\r")
	}

	terminated := make([]byte, 0, len(out)+4)
	terminated = append(terminated, out...)
	return append(terminated, "\r\n\r\n"...)
}

// parseMaxAge extracts n from a "max-age=n" directive.
func parseMaxAge(cacheControl string) int {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "max-age") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0
		}
		return seconds
	}
	return 0
}
