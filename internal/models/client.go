package models

import (
	"errors"
	"strings"
	"time"
)

// Client is a portal customer whose balance the ledger tracks.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) Validate() error {
	if len(strings.TrimSpace(c.Name)) < 2 {
		return errors.New("name too short")
	}
	if !strings.Contains(c.Email, "@") {
		return errors.New("invalid email")
	}
	return nil
}
