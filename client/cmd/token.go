package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/auraprotocol/diamond/server/jwt"
)

type tokenCmd struct {
	Subject string        `arg:"" name:"address" help:"caller address the token is issued to"`
	Key     string        `name:"key" env:"DIAMOND_JWT_KEY" help:"HS256 signing key shared with the server"`
	TTL     time.Duration `name:"ttl" default:"1h" help:"token lifetime"`
}

func (cmd *tokenCmd) Run(cli *CtlCmd) error {
	if cmd.Key == "" {
		return errors.New("--key or DIAMOND_JWT_KEY is required")
	}
	token, err := jwt.GetToken(cmd.Key, cmd.Subject, cmd.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, token)
	return err
}
