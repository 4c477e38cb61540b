package value

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
)

var portOnly = regexp.MustCompile("^[0-9]+$")

// listen address (host?:port)

type Address string

func NewAddress(p *string, val string) *Address {
	*p = val

	return (*Address)(p)
}

func (s *Address) Set(val string) error {
	// Only a port number
	if portOnly.MatchString(val) {
		val = ":" + val
	}

	*s = Address(val)
	return nil
}

func (s *Address) String() string {
	return string(*s)
}

func (s *Address) Validate() error {
	_, err := s.Port()

	return err
}

// Port returns the numerical port of the address.
func (s *Address) Port() (int, error) {
	_, port, err := net.SplitHostPort(string(*s))
	if err != nil {
		return 0, err
	}

	if !portOnly.MatchString(port) {
		return 0, fmt.Errorf("the port must be numerical")
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		return 0, err
	}

	if p < 0 || p > 65535 {
		return 0, fmt.Errorf("the port must be between 0 and 65535")
	}

	return p, nil
}

func (s *Address) IsEmpty() bool {
	return len(string(*s)) == 0
}

// remote endpoint (host:port), optional

type Endpoint string

func NewEndpoint(p *string, val string) *Endpoint {
	*p = val

	return (*Endpoint)(p)
}

func (s *Endpoint) Set(val string) error {
	*s = Endpoint(val)
	return nil
}

func (s *Endpoint) String() string {
	return string(*s)
}

func (s *Endpoint) Validate() error {
	if len(string(*s)) == 0 {
		return nil
	}

	host, port, err := net.SplitHostPort(string(*s))
	if err != nil {
		return err
	}

	if len(host) == 0 {
		return fmt.Errorf("the host must not be empty")
	}

	if !portOnly.MatchString(port) {
		return fmt.Errorf("the port must be numerical")
	}

	return nil
}

func (s *Endpoint) IsEmpty() bool {
	return len(string(*s)) == 0
}
