// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	formatter "github.com/onsi/ginkgo/v2/formatter"
)

var ErrMissingPort = errors.New("uri has no port")

// Outf writes a formatted, colored line to stdout.
//
// e.g.,
//
//	Outf("{{green}}{{bold}}committed:{{/}} %d\n", n)
//
// ref.
// https://github.com/onsi/ginkgo/blob/v2.0.0/formatter/formatter.go#L52-L73
func Outf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdOut, s)
}

// HostPort returns the host:port of [uri]. The port must be explicit.
func HostPort(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if len(u.Port()) == 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingPort, uri)
	}
	return net.JoinHostPort(u.Hostname(), u.Port()), nil
}
