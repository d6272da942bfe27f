package kit

import (
	"net/mail"
	"strings"
)

type Checks struct {
	errs []FieldError
}

func (c *Checks) Add(field, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: msg})
}

func (c *Checks) Required(field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		c.Add(field, msg)
	}
}

func (c *Checks) Email(field, value string) {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address != strings.TrimSpace(value) {
		c.Add(field, "Please enter a valid email address")
	}
}

func (c *Checks) Check(ok bool, field, msg string) {
	if !ok {
		c.Add(field, msg)
	}
}

func (c *Checks) Failed() bool { return len(c.errs) > 0 }

func (c *Checks) Errors() []FieldError { return c.errs }
