package razorpay

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrNotFound indicates the IFSC directory has no entry for the code.
	ErrNotFound = errors.New("ifsc code not found")
	// ErrInvalidIFSC indicates the code failed the format check and was not looked up.
	ErrInvalidIFSC = errors.New("invalid ifsc format")

	ifscPattern = regexp.MustCompile(`^[A-Za-z]{4}0[A-Za-z0-9]{6}$`)
)

// Branch is a bank branch resolved from an IFSC code.
type Branch struct {
	Bank   string `json:"BANK"`
	Branch string `json:"BRANCH"`
	City   string `json:"CITY,omitempty"`
	State  string `json:"STATE,omitempty"`
	IFSC   string `json:"IFSC,omitempty"`
}

// ValidIFSC reports whether code has the shape of an Indian Financial System Code.
func ValidIFSC(code string) bool {
	return ifscPattern.MatchString(strings.TrimSpace(code))
}

// LookupIFSC resolves the bank and branch for code.
func (c *Client) LookupIFSC(ctx context.Context, code string) (Branch, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ValidIFSC(code) {
		return Branch{}, ErrInvalidIFSC
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ifscBase+"/"+url.PathEscape(code), nil)
	if err != nil {
		return Branch{}, err
	}

	var branch Branch
	if err := c.do(req, &branch); err != nil {
		return Branch{}, err
	}
	if branch.Bank == "" {
		return Branch{}, ErrNotFound
	}
	return branch, nil
}
