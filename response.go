package grokflag

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/textproto"
	"net/url"
	"strings"

	http "github.com/bogdanfinn/fhttp"
)

const (
	grpcWebFrameHeaderLen = 5
	grpcWebTrailerFlag    = 0x80
)

// parseResponse classifies a completed response. Only the status code and
// the grpc-status header decide OK; body trailers are diagnostics.
func parseResponse(statusCode int, header http.Header, body []byte) Result {
	res := Result{
		HexReply:   hex.EncodeToString(body),
		StatusCode: &statusCode,
	}

	grpcStatus, hasStatus := headerValue(header, "grpc-status")
	if hasStatus {
		res.GRPCStatus = &grpcStatus
	}
	if msg, ok := headerValue(header, "grpc-message"); ok {
		res.GRPCMessage = decodeGRPCMessage(msg)
	}
	if !hasStatus || res.GRPCMessage == "" {
		if trailers := bodyTrailers(body); trailers != nil {
			if !hasStatus {
				res.TrailerStatus = trailers.Get("grpc-status")
			}
			if res.GRPCMessage == "" {
				res.GRPCMessage = decodeGRPCMessage(trailers.Get("grpc-message"))
			}
		}
	}

	grpcOK := !hasStatus || grpcStatus == "0"
	res.OK = statusCode == http.StatusOK && grpcOK

	switch {
	case statusCode == http.StatusForbidden:
		res.Error = "403 Forbidden"
	case statusCode != http.StatusOK:
		res.Error = fmt.Sprintf("HTTP %d", statusCode)
	case !grpcOK:
		res.Error = fmt.Sprintf("gRPC %s", grpcStatus)
	}

	return res
}

// headerValue looks a header up case-insensitively. fhttp keeps whatever
// key casing the server or a test supplied, so Header.Get alone is not enough.
func headerValue(h http.Header, name string) (string, bool) {
	if vs, ok := h[textproto.CanonicalMIMEHeaderKey(name)]; ok && len(vs) > 0 {
		return vs[0], true
	}
	for k, vs := range h {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0], true
		}
	}
	return "", false
}

// decodeGRPCMessage undoes the percent-encoding gRPC applies to grpc-message.
func decodeGRPCMessage(msg string) string {
	if decoded, err := url.PathUnescape(msg); err == nil {
		return decoded
	}
	return msg
}

// bodyTrailers walks the gRPC-Web frames in body and parses the first
// trailer frame. It returns nil when the body holds no well-formed trailer.
func bodyTrailers(body []byte) textproto.MIMEHeader {
	for len(body) >= grpcWebFrameHeaderLen {
		flag := body[0]
		n := binary.BigEndian.Uint32(body[1:grpcWebFrameHeaderLen])
		if uint64(n) > uint64(len(body)-grpcWebFrameHeaderLen) {
			return nil
		}
		frame := body[grpcWebFrameHeaderLen : grpcWebFrameHeaderLen+int(n)]
		body = body[grpcWebFrameHeaderLen+int(n):]

		if flag&grpcWebTrailerFlag == 0 {
			continue
		}
		return parseTrailerBlock(frame)
	}
	return nil
}

// parseTrailerBlock reads "key: value\r\n" lines. gRPC-Web trailers carry
// no terminating blank line, so one is appended for textproto.
func parseTrailerBlock(frame []byte) textproto.MIMEHeader {
	trimmed := bytes.TrimRight(frame, "\r\n")
	block := make([]byte, 0, len(trimmed)+4)
	block = append(block, trimmed...)
	block = append(block, "\r\n\r\n"...)
	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(block)))
	h, err := r.ReadMIMEHeader()
	if err != nil && len(h) == 0 {
		return nil
	}
	return h
}
