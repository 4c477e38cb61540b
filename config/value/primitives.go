package value

import (
	"fmt"
	"strconv"
	"strings"
)

// string

type String string

func NewString(p *string, val string) *String {
	*p = val

	return (*String)(p)
}

func (s *String) Set(val string) error {
	*s = String(val)
	return nil
}

func (s *String) String() string {
	return string(*s)
}

func (s *String) Validate() error {
	return nil
}

func (s *String) IsEmpty() bool {
	return len(string(*s)) == 0
}

// one of a fixed set of strings

type Choice struct {
	p       *string
	choices []string
}

func NewChoice(p *string, val string, choices []string) *Choice {
	*p = val

	return &Choice{
		p:       p,
		choices: choices,
	}
}

func (s *Choice) Set(val string) error {
	val = strings.ToLower(strings.TrimSpace(val))

	for _, c := range s.choices {
		if c == val {
			*s.p = val
			return nil
		}
	}

	return fmt.Errorf("%s is not one of %s", val, strings.Join(s.choices, ", "))
}

func (s *Choice) String() string {
	return *s.p
}

func (s *Choice) Validate() error {
	for _, c := range s.choices {
		if c == *s.p {
			return nil
		}
	}

	return fmt.Errorf("%s is not one of %s", *s.p, strings.Join(s.choices, ", "))
}

func (s *Choice) IsEmpty() bool {
	return len(*s.p) == 0
}

// boolean

type Bool bool

func NewBool(p *bool, val bool) *Bool {
	*p = val

	return (*Bool)(p)
}

func (b *Bool) Set(val string) error {
	v, err := strconv.ParseBool(val)
	if err != nil {
		return err
	}
	*b = Bool(v)
	return nil
}

func (b *Bool) String() string {
	return strconv.FormatBool(bool(*b))
}

func (b *Bool) Validate() error {
	return nil
}

func (b *Bool) IsEmpty() bool {
	return !bool(*b)
}

// int with a lower bound

type Int struct {
	p   *int
	min int
}

func NewInt(p *int, val, min int) *Int {
	*p = val

	return &Int{
		p:   p,
		min: min,
	}
}

func (i *Int) Set(val string) error {
	v, err := strconv.Atoi(val)
	if err != nil {
		return err
	}
	*i.p = v
	return nil
}

func (i *Int) String() string {
	return strconv.Itoa(*i.p)
}

func (i *Int) Validate() error {
	if *i.p < i.min {
		return fmt.Errorf("must be equal or greater than %d", i.min)
	}

	return nil
}

func (i *Int) IsEmpty() bool {
	return *i.p == 0
}

// int64 with a lower bound

type Int64 struct {
	p   *int64
	min int64
}

func NewInt64(p *int64, val, min int64) *Int64 {
	*p = val

	return &Int64{
		p:   p,
		min: min,
	}
}

func (u *Int64) Set(val string) error {
	v, err := strconv.ParseInt(val, 0, 64)
	if err != nil {
		return err
	}
	*u.p = v
	return nil
}

func (u *Int64) String() string {
	return strconv.FormatInt(*u.p, 10)
}

func (u *Int64) Validate() error {
	if *u.p < u.min {
		return fmt.Errorf("must be equal or greater than %d", u.min)
	}

	return nil
}

func (u *Int64) IsEmpty() bool {
	return *u.p == 0
}

// uint64

type Uint64 uint64

func NewUint64(p *uint64, val uint64) *Uint64 {
	*p = val

	return (*Uint64)(p)
}

func (u *Uint64) Set(val string) error {
	v, err := strconv.ParseUint(val, 0, 64)
	if err != nil {
		return err
	}
	*u = Uint64(v)
	return nil
}

func (u *Uint64) String() string {
	return strconv.FormatUint(uint64(*u), 10)
}

func (u *Uint64) Validate() error {
	return nil
}

func (u *Uint64) IsEmpty() bool {
	return uint64(*u) == 0
}
