package main

import "errors"

var (
	errNoPublicURL = errors.New("no public URL configured (report_url)")
	errBadIndex    = errors.New("index must be a non-negative number")
)
