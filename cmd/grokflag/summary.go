package main

import (
	"fmt"

	"grokflag"
)

// Summary buckets results by how they failed.
type Summary struct {
	OK        int
	Forbidden int
	HTTP      int
	GRPC      int
	Transport int
	Invalid   int
}

func (s *Summary) Add(res grokflag.Result) {
	switch {
	case res.OK:
		s.OK++
	case res.StatusCode == nil:
		switch res.Error {
		case grokflag.ErrMissingSSO.Error(), grokflag.ErrMissingSSORW.Error():
			s.Invalid++
		default:
			s.Transport++
		}
	case res.Status() == 403:
		s.Forbidden++
	case res.Status() != 200:
		s.HTTP++
	default:
		s.GRPC++
	}
}

func (s Summary) Total() int {
	return s.OK + s.Failed()
}

func (s Summary) Failed() int {
	return s.Forbidden + s.HTTP + s.GRPC + s.Transport + s.Invalid
}

func (s Summary) String() string {
	return fmt.Sprintf("ok=%d forbidden=%d http=%d grpc=%d transport=%d invalid=%d",
		s.OK, s.Forbidden, s.HTTP, s.GRPC, s.Transport, s.Invalid)
}
