// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodeserver

import "fmt"

// State is a runtime's lifecycle position.
type State int

const (
	NotReady State = iota
	LayoutPreparing
	InstallPreparing
	Starting
	Ready
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case NotReady:
		return "not-ready"
	case LayoutPreparing:
		return "layout-preparing"
	case InstallPreparing:
		return "install-preparing"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
