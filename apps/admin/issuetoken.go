package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/xenthrall/academy/apps/api/echo"
)

func parseRoles(s string) ([]string, error) {
	var roles []string
	for _, role := range strings.Split(s, ",") {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		known := false
		for _, r := range echoapi.Roles {
			if r == role {
				known = true
				break
			}
		}
		if !known {
			return nil, errors.Errorf("unknown role %q, expected one of: %s", role, strings.Join(echoapi.Roles, ", "))
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func (cli *commandLine) issueToken(secret, subject, roles string, ttl time.Duration) error {
	if secret == "" {
		return errors.New("no signing key")
	}
	parsed, err := parseRoles(roles)
	if err != nil {
		return err
	}

	token, err := echoapi.GenerateToken(secret, echoapi.NewOperatorClaims(cli.conf, subject, parsed, ttl))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
