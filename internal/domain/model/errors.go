package model

import "errors"

// ErrExternalTool marks a failure of a spawned program (git, tunnel).
// Such failures are reported to the operator and never retried.
var ErrExternalTool = errors.New("external tool failed")
